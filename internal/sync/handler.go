// Файл: internal/sync/handler.go
package sync

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"member2ldap/internal/dto"
	"member2ldap/internal/entities"
	apperrors "member2ldap/pkg/errors"
	"member2ldap/pkg/types"
)

// DirectoryInterface - операции каталога, нужные синхронизатору.
// Соединение к моменту вызова Synchronize уже должно быть привязано (bind).
type DirectoryInterface interface {
	SearchOneLevel(baseDN, filter string) ([]dto.DirectoryMatchDTO, error)
	Add(entry dto.DirectoryEntryDTO) error
	Delete(dn string) error
}

type Options struct {
	// CredentialScheme - config.SchemeVerbatim или config.SchemeAuto
	CredentialScheme string
	// OpsPerSecond - не больше стольких участников в секунду, 0 - без ограничения
	OpsPerSecond float64
}

type Synchronizer struct {
	validate         *validator.Validate
	limiter          *rate.Limiter
	formatCredential func(string) string
	logger           *zap.Logger
}

func NewSynchronizer(v *validator.Validate, opts Options, logger *zap.Logger) *Synchronizer {
	limit := rate.Inf
	if opts.OpsPerSecond > 0 {
		limit = rate.Limit(opts.OpsPerSecond)
	}
	return &Synchronizer{
		validate:         v,
		limiter:          rate.NewLimiter(limit, 1),
		formatCredential: newCredentialFormatter(opts.CredentialScheme),
		logger:           logger,
	}
}

// Synchronize проходит по участникам строго по порядку источника и приводит каталог
// в соответствие. Ошибки по отдельному участнику попадают в его итог и не прерывают прогон.
// Ошибка возвращается только если источник сломался посреди выдачи или контекст отменён;
// в этом случае вместе с ней возвращаются итоги уже обработанных участников.
func (s *Synchronizer) Synchronize(
	ctx context.Context,
	members iter.Seq2[entities.Member, error],
	directory DirectoryInterface,
	baseDN string,
	overwrite bool,
) ([]dto.SyncOutcomeDTO, error) {
	var outcomes []dto.SyncOutcomeDTO

	for member, err := range members {
		if err != nil {
			return outcomes, apperrors.NewFatalSetupError("source", fmt.Errorf("%w: %v", apperrors.ErrSourceUnavailable, err))
		}
		if err := ctx.Err(); err != nil {
			s.logger.Warn("[SYNC] Прогон отменён", zap.Int("processed", len(outcomes)))
			return outcomes, err
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return outcomes, err
		}

		outcome := s.syncMember(member, directory, baseDN, overwrite)
		s.logOutcome(outcome)
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

func (s *Synchronizer) syncMember(member entities.Member, directory DirectoryInterface, baseDN string, overwrite bool) dto.SyncOutcomeDTO {
	dn := MemberDN(member.UserID, baseDN)
	outcome := dto.SyncOutcomeDTO{UserID: member.UserID, DN: dn}
	s.logger.Debug("[SYNC] Рассматриваем участника", zap.String("uid", member.UserID))

	if err := s.validateMember(member); err != nil {
		return failed(outcome, err)
	}

	existing, err := directory.SearchOneLevel(baseDN, UIDFilter(member.UserID))
	if err != nil {
		return failed(outcome, fmt.Errorf("поиск %s: %w", dn, err))
	}

	replaced := false
	if len(existing) > 0 {
		if !overwrite {
			outcome.Kind = dto.OutcomeSkippedExisting
			return outcome
		}
		s.logger.Info("[SYNC] Удаляем существующую запись", zap.String("dn", dn))
		if err := directory.Delete(dn); err != nil {
			return failed(outcome, fmt.Errorf("удаление %s: %w", dn, err))
		}
		replaced = true
	}

	entry := s.BuildEntry(member, baseDN)
	s.logger.Debug("[SYNC] Добавляем запись", zap.String("dn", dn))
	if err := directory.Add(entry); err != nil {
		if replaced {
			s.logger.Error("[SYNC] Старая запись удалена, новая не добавлена", zap.String("dn", dn), zap.Error(err))
		}
		return failed(outcome, fmt.Errorf("добавление %s: %w", dn, err))
	}

	if replaced {
		outcome.Kind = dto.OutcomeOverwritten
	} else {
		outcome.Kind = dto.OutcomeCreated
	}
	return outcome
}

// validateMember отсекает записи, которые нельзя переносить, до любого обращения к каталогу.
func (s *Synchronizer) validateMember(member entities.Member) error {
	err := s.validate.Struct(member)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidMember, err)
	}
	// отсутствие пароля перекрывает остальные причины
	for _, fe := range verrs {
		if fe.StructField() == "PasswordCredential" {
			return apperrors.ErrMissingCredential
		}
	}
	switch verrs[0].StructField() {
	case "UserID":
		return apperrors.ErrInvalidUserID
	case "FullName":
		return apperrors.ErrMissingFullName
	}
	return fmt.Errorf("%w: поле %s не прошло проверку %q", apperrors.ErrInvalidMember, verrs[0].StructField(), verrs[0].Tag())
}

func failed(outcome dto.SyncOutcomeDTO, err error) dto.SyncOutcomeDTO {
	outcome.Kind = dto.OutcomeFailed
	outcome.Reason = err.Error()
	outcome.Err = err
	return outcome
}

func (s *Synchronizer) logOutcome(o dto.SyncOutcomeDTO) {
	switch o.Kind {
	case dto.OutcomeCreated:
		s.logger.Info("[SYNC] Добавлен в LDAP", zap.String("dn", o.DN))
	case dto.OutcomeOverwritten:
		s.logger.Info("[SYNC] Перезаписан в LDAP", zap.String("dn", o.DN))
	case dto.OutcomeSkippedExisting:
		s.logger.Info("[SYNC] Уже есть в LDAP, не перезаписываем", zap.String("dn", o.DN))
	case dto.OutcomeFailed:
		s.logger.Warn("[SYNC] Не удалось перенести участника", zap.String("uid", o.UserID), zap.String("reason", o.Reason))
	}
}

// Summarize считает итоги прогона по категориям.
func Summarize(outcomes []dto.SyncOutcomeDTO) types.SyncStats {
	stats := types.SyncStats{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Kind {
		case dto.OutcomeCreated:
			stats.Created++
		case dto.OutcomeSkippedExisting:
			stats.Skipped++
		case dto.OutcomeOverwritten:
			stats.Overwritten++
		case dto.OutcomeFailed:
			stats.Failed++
		}
	}
	return stats
}
