package seeders

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migrate накатывает схему источника участников (members, member_passwords).
func Migrate(ctx context.Context, dsn string) error {
	log.Println("▶️  Применение миграций схемы участников...")

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("ошибка открытия БД для миграций: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	log.Println("✅ Миграции применены")
	return nil
}
