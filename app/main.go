// Файл: main.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"member2ldap/internal/dto"
	"member2ldap/internal/metrics"
	"member2ldap/internal/repositories"
	"member2ldap/internal/services"
	"member2ldap/internal/sync"
	"member2ldap/pkg/config"
	"member2ldap/pkg/customvalidator"
	"member2ldap/pkg/database/postgresql"
	apperrors "member2ldap/pkg/errors"
	applogger "member2ldap/pkg/logger"
	"member2ldap/pkg/secrets"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run возвращает код выхода: 0 - прогон дошёл до конца, 1 - прерван.
func run(args []string) int {
	cfg := config.New()

	opts, err := parseFlags(args, cfg, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger, err := applogger.NewLogger(cfg.Sync.Verbose, cfg.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "не удалось создать логгер: %v\n", err)
		return 1
	}
	defer logger.Sync()

	v := validator.New()
	if err := customvalidator.RegisterCustomValidations(v); err != nil {
		logger.Error("Ошибка регистрации кастомных правил валидации", zap.Error(err))
		return 1
	}
	if err := cfg.Validate(v); err != nil {
		logger.Error("Некорректная конфигурация", zap.Error(err))
		return 1
	}

	password, err := secrets.NewResolver(logger).Resolve(opts.password)
	if err != nil {
		logger.Error("Не удалось получить пароль для bind", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, closeSource, err := openSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("Источник участников недоступен", zap.Error(err))
		return 1
	}
	defer closeSource()

	deps := services.SyncServiceDeps{
		Source: source,
		Dial:   services.DialLDAP,
		Synchronizer: sync.NewSynchronizer(v, sync.Options{
			CredentialScheme: cfg.Sync.CredentialScheme,
			OpsPerSecond:     cfg.LDAP.OpsPerSecond,
		}, logger),
		LDAP: &cfg.LDAP,
	}

	if cfg.Redis.Address != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			logger.Error("не удалось подключиться к Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
			return 1
		}
		cacheRepo := repositories.NewRedisCacheRepository(redisClient)
		deps.Cache = cacheRepo
		deps.Lock = services.NewRunLock(cacheRepo, cfg.Redis.LockTTL, logger)
	}
	if cfg.Report.Dir != "" {
		deps.Reporter = services.NewReportService(cfg.Report.Dir, logger)
	}
	if cfg.Metrics.PushgatewayURL != "" {
		deps.Metrics = metrics.NewCollector(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job)
	}

	result, err := services.NewSyncService(deps, logger).Run(ctx, dto.RunParamsDTO{
		Site:         cfg.Source.Site,
		BindDN:       cfg.LDAP.BindDN,
		BindPassword: password,
		BaseDN:       cfg.LDAP.BaseDN,
		Overwrite:    cfg.Sync.Overwrite,
	})
	if result != nil {
		printSummary(os.Stdout, result)
	}
	if err != nil {
		logger.Error("Прогон прерван", zap.Error(err), zap.Bool("fatal", apperrors.IsFatal(err)))
		return 1
	}
	return 0
}

// openSource подключает источник по SOURCE_KIND. Postgres пингуется сразу.
func openSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.MemberSourceInterface, func(), error) {
	switch cfg.Source.Kind {
	case config.SourceXLSX:
		if _, err := os.Stat(cfg.Source.File); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrSourceUnavailable, err)
		}
		return repositories.NewXLSXMemberRepository(cfg.Source.File, logger), func() {}, nil
	default:
		pool, err := postgresql.ConnectDB(ctx, cfg.Source.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrSourceUnavailable, err)
		}
		logger.Info("Подключено к PostgreSQL")
		return repositories.NewMemberRepository(pool, logger), pool.Close, nil
	}
}

func printSummary(w io.Writer, result *dto.RunResultDTO) {
	for _, o := range result.Outcomes {
		if o.Kind == dto.OutcomeFailed {
			fmt.Fprintf(w, "%-16s %s: %s\n", o.Kind, o.UserID, o.Reason)
			continue
		}
		fmt.Fprintf(w, "%-16s %s\n", o.Kind, o.DN)
	}
	fmt.Fprintf(w, "всего: %d, создано: %d, пропущено: %d, перезаписано: %d, ошибок: %d\n",
		result.Stats.Total, result.Stats.Created, result.Stats.Skipped, result.Stats.Overwritten, result.Stats.Failed)
	if result.Aborted {
		fmt.Fprintln(w, "прогон прерван, итоги неполные")
	}
	if result.ReportPath != "" {
		fmt.Fprintf(w, "отчёт: %s\n", result.ReportPath)
	}
}
