// Файл: internal/entities/member-entity.go
package entities

// Member - запись участника из источника. PasswordCredential уже захеширован
// источником и переносится в каталог как есть.
type Member struct {
	UserID             string `json:"user_id" db:"user_id" validate:"required,rdn_value"`
	FullName           string `json:"fullname" db:"fullname" validate:"not_blank"`
	Email              string `json:"email" db:"email"`
	PasswordCredential string `json:"-" db:"password_hash" validate:"not_blank"`
}
