package repositories

import (
	"context"
	"fmt"
	"iter"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"member2ldap/internal/entities"
)

const (
	memberTable         = "members m"
	memberPasswordsJoin = "member_passwords p ON p.site = m.site AND p.user_id = m.user_id"
)

// MemberSourceInterface - источник участников. Последовательность конечна и
// при повторном вызове Members выдаётся заново с начала.
type MemberSourceInterface interface {
	Members(ctx context.Context, site string) iter.Seq2[entities.Member, error]
}

// Querier - то, что умеет pgxpool.Pool, pgx.Conn и pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type memberRepository struct {
	storage Querier
	logger  *zap.Logger
}

func NewMemberRepository(storage Querier, logger *zap.Logger) MemberSourceInterface {
	return &memberRepository{storage: storage, logger: logger}
}

// buildMembersQuery - участники сайта вместе с хешем пароля из отдельной таблицы.
// LEFT JOIN: участник без строки пароля всё равно попадает в выборку с пустым хешем.
func buildMembersQuery(site string) (string, []interface{}, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	return psql.Select("m.user_id", "m.fullname", "m.email", "p.password_hash").
		From(memberTable).
		LeftJoin(memberPasswordsJoin).
		Where(sq.Eq{"m.site": site}).
		OrderBy("m.id").
		ToSql()
}

func (r *memberRepository) Members(ctx context.Context, site string) iter.Seq2[entities.Member, error] {
	return func(yield func(entities.Member, error) bool) {
		query, args, err := buildMembersQuery(site)
		if err != nil {
			yield(entities.Member{}, fmt.Errorf("ошибка сборки SQL для Members: %w", err))
			return
		}

		r.logger.Debug("[SOURCE] Чтение участников из PostgreSQL", zap.String("site", site), zap.String("query", query))
		rows, err := r.storage.Query(ctx, query, args...)
		if err != nil {
			yield(entities.Member{}, fmt.Errorf("ошибка запроса участников: %w", err))
			return
		}
		defer rows.Close()

		count := 0
		for rows.Next() {
			member, err := scanMember(rows)
			if err != nil {
				yield(entities.Member{}, err)
				return
			}
			count++
			if !yield(member, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(entities.Member{}, fmt.Errorf("ошибка чтения участников: %w", err))
			return
		}
		r.logger.Debug("[SOURCE] Участники прочитаны", zap.Int("count", count))
	}
}

func scanMember(row pgx.Row) (entities.Member, error) {
	var (
		userID                   string
		fullName, email, pwdHash null.String
	)
	if err := row.Scan(&userID, &fullName, &email, &pwdHash); err != nil {
		return entities.Member{}, fmt.Errorf("ошибка сканирования members: %w", err)
	}
	return entities.Member{
		UserID:             userID,
		FullName:           fullName.String,
		Email:              email.String,
		PasswordCredential: pwdHash.String,
	}, nil
}
