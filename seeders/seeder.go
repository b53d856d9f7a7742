package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword - bcrypt с DefaultCost, как хранят пароли порталы-источники.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("ошибка при генерации хеша: %w", err)
	}
	return string(hashed), nil
}

// SeedMembers добавляет демо-участников для сайта. Существующие строки не трогаются.
func SeedMembers(ctx context.Context, db *pgxpool.Pool, site string) error {
	log.Printf("▶️  Наполнение участников для сайта %q...", site)

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, m := range demoMembers {
		if err := seedMember(ctx, tx, site, m.UserID, m.FullName, m.Email, m.Password); err != nil {
			return fmt.Errorf("участник %s: %w", m.UserID, err)
		}
		log.Printf("    - %s", m.UserID)
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	log.Println("✅ Участники добавлены")
	return nil
}

func seedMember(ctx context.Context, tx pgx.Tx, site, userID, fullName, email, password string) error {
	var nullableEmail *string
	if email != "" {
		nullableEmail = &email
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO members (site, user_id, fullname, email)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (site, user_id) DO NOTHING`,
		site, userID, fullName, nullableEmail)
	if err != nil {
		return err
	}

	if password == "" {
		return nil
	}
	hashed, err := HashPassword(password)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO member_passwords (site, user_id, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (site, user_id) DO NOTHING`,
		site, userID, hashed)
	return err
}
