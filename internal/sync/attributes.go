package sync

import (
	"fmt"
	"strings"

	ldap "github.com/go-ldap/ldap/v3"
	"golang.org/x/crypto/bcrypt"

	"member2ldap/internal/dto"
	"member2ldap/internal/entities"
	"member2ldap/pkg/config"
)

var objectClasses = []string{"top", "person", "organizationalPerson", "inetOrgPerson"}

func MemberDN(userID, baseDN string) string {
	return "uid=" + userID + "," + baseDN
}

func UIDFilter(userID string) string {
	return fmt.Sprintf("(uid=%s)", ldap.EscapeFilter(userID))
}

// Surname - последнее слово полного имени; имя из одного слова целиком.
func Surname(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return fullName
	}
	return fields[len(fields)-1]
}

// BuildEntry собирает полный набор атрибутов записи. mail не пишется, если email пуст.
func (s *Synchronizer) BuildEntry(member entities.Member, baseDN string) dto.DirectoryEntryDTO {
	attrs := map[string][]string{
		"objectClass":  append([]string(nil), objectClasses...),
		"uid":          {member.UserID},
		"cn":           {member.FullName},
		"sn":           {Surname(member.FullName)},
		"userPassword": {s.formatCredential(member.PasswordCredential)},
	}
	if email := strings.TrimSpace(member.Email); email != "" {
		attrs["mail"] = []string{email}
	}
	return dto.DirectoryEntryDTO{
		DN:         MemberDN(member.UserID, baseDN),
		Attributes: attrs,
	}
}

func newCredentialFormatter(scheme string) func(string) string {
	if scheme == config.SchemeAuto {
		return withSchemePrefix
	}
	return func(credential string) string { return credential }
}

// withSchemePrefix помечает голый bcrypt-хеш как {CRYPT}; значения с префиксом
// {SCHEME} и всё нераспознанное остаются как есть.
func withSchemePrefix(credential string) string {
	if strings.HasPrefix(credential, "{") {
		return credential
	}
	if _, err := bcrypt.Cost([]byte(credential)); err == nil {
		return "{CRYPT}" + credential
	}
	return credential
}
