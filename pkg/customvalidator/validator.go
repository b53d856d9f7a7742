// Файл: pkg/customvalidator/validators.go

package customvalidator

import (
	"net/url"
	"strings"

	ldap "github.com/go-ldap/ldap/v3"
	"github.com/go-playground/validator/v10"
)

// rdnSpecialChars - символы, которые нельзя подставлять в RDN без экранирования.
const rdnSpecialChars = `,=+<>#;\"`

// RegisterCustomValidations "собирает" все наши кастомные правила валидации
// и регистрирует их в переданном экземпляре валидатора.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("ldap_dn", isLDAPDN); err != nil {
		return err
	}
	if err := v.RegisterValidation("ldap_url", isLDAPURL); err != nil {
		return err
	}
	if err := v.RegisterValidation("rdn_value", isRDNValue); err != nil {
		return err
	}
	if err := v.RegisterValidation("not_blank", isNotBlank); err != nil {
		return err
	}
	return nil
}

func isLDAPDN(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return false
	}
	dn, err := ldap.ParseDN(value)
	return err == nil && len(dn.RDNs) > 0
}

func isLDAPURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil || u.Host == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "ldap", "ldaps", "ldapi":
		return true
	}
	return false
}

// isRDNValue - значение годится для "uid=<value>" без экранирования.
func isRDNValue(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if strings.TrimSpace(value) != value || value == "" {
		return false
	}
	return !strings.ContainsAny(value, rdnSpecialChars)
}

func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
