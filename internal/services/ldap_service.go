package services

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sort"

	ldap "github.com/go-ldap/ldap/v3"
	"go.uber.org/zap"

	"member2ldap/internal/dto"
	"member2ldap/internal/sync"
	"member2ldap/pkg/config"
	apperrors "member2ldap/pkg/errors"
)

// LDAPServiceInterface - соединение с каталогом на время одного прогона.
type LDAPServiceInterface interface {
	sync.DirectoryInterface
	Bind(bindDN, password string) error
	Close() error
}

// DirectoryDialer открывает соединение с каталогом. В тестах подменяется фейком.
type DirectoryDialer func(cfg *config.LDAPConfig, logger *zap.Logger) (LDAPServiceInterface, error)

type LDAPService struct {
	conn   *ldap.Conn
	cfg    *config.LDAPConfig
	logger *zap.Logger
}

// DialLDAP подключается к серверу из конфига и при необходимости поднимает StartTLS.
func DialLDAP(cfg *config.LDAPConfig, logger *zap.Logger) (LDAPServiceInterface, error) {
	logger.Debug("[LDAP] Подключение к серверу", zap.String("url", cfg.URL))

	conn, err := ldap.DialURL(cfg.URL, ldap.DialWithDialer(&net.Dialer{Timeout: cfg.Timeout}))
	if err != nil {
		logger.Error("[LDAP] Не удалось подключиться к LDAP-серверу", zap.Error(err), zap.String("url", cfg.URL))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnreachable, err)
	}
	if cfg.Timeout > 0 {
		conn.SetTimeout(cfg.Timeout)
	}

	if cfg.StartTLS {
		host := ""
		if u, perr := url.Parse(cfg.URL); perr == nil {
			host = u.Hostname()
		}
		if err := conn.StartTLS(&tls.Config{ServerName: host, InsecureSkipVerify: cfg.InsecureSkipVerify}); err != nil {
			conn.Close()
			logger.Error("[LDAP] StartTLS не удался", zap.Error(err))
			return nil, fmt.Errorf("%w: starttls: %v", apperrors.ErrUnreachable, err)
		}
	}

	return &LDAPService{conn: conn, cfg: cfg, logger: logger}, nil
}

func (s *LDAPService) Bind(bindDN, password string) error {
	s.logger.Debug("[LDAP] Bind", zap.String("bind_dn", bindDN))
	if err := s.conn.Bind(bindDN, password); err != nil {
		s.logger.Error("[LDAP] Не удалось выполнить Bind под сервисной учетной записью", zap.Error(err), zap.String("bind_dn", bindDN))
		return classifyLDAPError(err)
	}
	return nil
}

// SearchOneLevel ищет только непосредственных потомков baseDN.
func (s *LDAPService) SearchOneLevel(baseDN, filter string) ([]dto.DirectoryMatchDTO, error) {
	searchRequest := ldap.NewSearchRequest(
		baseDN,
		ldap.ScopeSingleLevel, ldap.NeverDerefAliases, 0, 0, false,
		filter,
		[]string{"uid"},
		nil,
	)

	sr, err := s.conn.Search(searchRequest)
	if err != nil {
		s.logger.Debug("[LDAP] Ошибка поиска", zap.Error(err), zap.String("filter", filter))
		return nil, classifyLDAPError(err)
	}

	matches := make([]dto.DirectoryMatchDTO, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		matches = append(matches, dto.DirectoryMatchDTO{
			DN:  entry.DN,
			UID: entry.GetAttributeValue("uid"),
		})
	}
	return matches, nil
}

func (s *LDAPService) Add(entry dto.DirectoryEntryDTO) error {
	if err := s.conn.Add(newAddRequest(entry)); err != nil {
		return classifyLDAPError(err)
	}
	return nil
}

func (s *LDAPService) Delete(dn string) error {
	if err := s.conn.Del(ldap.NewDelRequest(dn, nil)); err != nil {
		return classifyLDAPError(err)
	}
	return nil
}

// Close делает unbind; если сервер его не принял, соединение всё равно закрывается.
func (s *LDAPService) Close() error {
	if err := s.conn.Unbind(); err != nil {
		s.conn.Close()
		return err
	}
	return nil
}

// newAddRequest раскладывает атрибуты в стабильном порядке.
func newAddRequest(entry dto.DirectoryEntryDTO) *ldap.AddRequest {
	names := make([]string, 0, len(entry.Attributes))
	for name := range entry.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	req := ldap.NewAddRequest(entry.DN, nil)
	for _, name := range names {
		req.Attribute(name, entry.Attributes[name])
	}
	return req
}

// classifyLDAPError переводит коды результата LDAP в ошибки приложения.
func classifyLDAPError(err error) error {
	var ldapErr *ldap.Error
	if !errors.As(err, &ldapErr) {
		return fmt.Errorf("%w: %v", apperrors.ErrUnreachable, err)
	}

	switch ldapErr.ResultCode {
	case ldap.LDAPResultInvalidCredentials, ldap.LDAPResultInappropriateAuthentication:
		return fmt.Errorf("%w: %v", apperrors.ErrAuth, err)
	case ldap.ErrorNetwork, ldap.LDAPResultUnavailable, ldap.LDAPResultBusy, ldap.LDAPResultServerDown:
		return fmt.Errorf("%w: %v", apperrors.ErrUnreachable, err)
	case ldap.LDAPResultEntryAlreadyExists, ldap.LDAPResultConstraintViolation,
		ldap.LDAPResultObjectClassViolation, ldap.LDAPResultInvalidDNSyntax,
		ldap.LDAPResultInvalidAttributeSyntax, ldap.LDAPResultAttributeOrValueExists:
		return fmt.Errorf("%w: %v", apperrors.ErrConstraint, err)
	case ldap.LDAPResultNoSuchObject:
		return fmt.Errorf("%w: %v", apperrors.ErrNotFound, err)
	}
	return err
}
