package repositories

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"member2ldap/internal/entities"
)

// Допустимые названия колонок в шапке выгрузки (сравнение без учёта регистра).
var xlsxColumnAliases = map[string][]string{
	"user_id":  {"user_id", "userid", "uid", "login", "username"},
	"fullname": {"fullname", "full_name", "name", "cn"},
	"email":    {"email", "mail"},
	"password": {"password", "password_hash", "userpassword", "credential"},
}

type xlsxMemberRepository struct {
	path   string
	logger *zap.Logger
}

// NewXLSXMemberRepository - источник участников из выгрузки Excel. Лист = сайт.
// Пароль читается как есть, без обрезки пробелов.
func NewXLSXMemberRepository(path string, logger *zap.Logger) MemberSourceInterface {
	return &xlsxMemberRepository{path: path, logger: logger}
}

func (r *xlsxMemberRepository) Members(_ context.Context, site string) iter.Seq2[entities.Member, error] {
	return func(yield func(entities.Member, error) bool) {
		f, err := excelize.OpenFile(r.path)
		if err != nil {
			yield(entities.Member{}, fmt.Errorf("ошибка открытия файла: %w", err))
			return
		}
		defer f.Close()

		rows, err := f.Rows(site)
		if err != nil {
			yield(entities.Member{}, fmt.Errorf("лист %q: %w", site, err))
			return
		}
		defer rows.Close()

		if !rows.Next() {
			yield(entities.Member{}, fmt.Errorf("лист %q пуст: нет строки заголовков", site))
			return
		}
		header, err := rows.Columns()
		if err != nil {
			yield(entities.Member{}, fmt.Errorf("ошибка чтения заголовков: %w", err))
			return
		}
		idx := mapXLSXColumns(header)
		if idx["user_id"] == -1 {
			yield(entities.Member{}, fmt.Errorf("НЕ НАЙДЕНА колонка с логином на листе %q", site))
			return
		}
		r.logger.Debug("[SOURCE] Заголовки XLSX найдены", zap.String("sheet", site), zap.Any("columns", idx))

		line := 1
		for rows.Next() {
			line++
			row, err := rows.Columns()
			if err != nil {
				yield(entities.Member{}, fmt.Errorf("строка %d: %w", line, err))
				return
			}
			if isBlankRow(row) {
				continue
			}
			member := entities.Member{
				UserID:             strings.TrimSpace(safeGet(row, idx["user_id"])),
				FullName:           strings.TrimSpace(safeGet(row, idx["fullname"])),
				Email:              strings.TrimSpace(safeGet(row, idx["email"])),
				PasswordCredential: safeGet(row, idx["password"]),
			}
			if !yield(member, nil) {
				return
			}
		}
		if err := rows.Error(); err != nil {
			yield(entities.Member{}, fmt.Errorf("ошибка чтения листа %q: %w", site, err))
		}
	}
}

func mapXLSXColumns(header []string) map[string]int {
	idx := map[string]int{"user_id": -1, "fullname": -1, "email": -1, "password": -1}
	for col, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		for field, aliases := range xlsxColumnAliases {
			if idx[field] != -1 {
				continue
			}
			for _, alias := range aliases {
				if name == alias {
					idx[field] = col
				}
			}
		}
	}
	return idx
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
