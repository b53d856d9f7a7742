// Файл: internal/services/sync_service.go
package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"member2ldap/internal/dto"
	"member2ldap/internal/metrics"
	"member2ldap/internal/repositories"
	"member2ldap/internal/sync"
	"member2ldap/pkg/config"
	apperrors "member2ldap/pkg/errors"
	"member2ldap/pkg/types"
)

const (
	lastRunTTL = 30 * 24 * time.Hour
	// afterRunTimeout ограничивает отчёт и отправку метрик после отмены основного контекста
	afterRunTimeout = 30 * time.Second
)

// SyncServiceInterface - один полный прогон переноса участников в каталог.
type SyncServiceInterface interface {
	Run(ctx context.Context, params dto.RunParamsDTO) (*dto.RunResultDTO, error)
}

// SyncServiceDeps - зависимости сервиса. Lock, Cache, Reporter и Metrics необязательны.
type SyncServiceDeps struct {
	Source       repositories.MemberSourceInterface
	Dial         DirectoryDialer
	Synchronizer *sync.Synchronizer
	Lock         RunLockInterface
	Cache        repositories.CacheRepositoryInterface
	Reporter     ReportServiceInterface
	Metrics      metrics.MetricsCollector
	LDAP         *config.LDAPConfig
}

type SyncService struct {
	deps   SyncServiceDeps
	logger *zap.Logger
}

func NewSyncService(deps SyncServiceDeps, logger *zap.Logger) SyncServiceInterface {
	return &SyncService{deps: deps, logger: logger}
}

type lastRunSummary struct {
	RunID      string          `json:"run_id"`
	Site       string          `json:"site"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Overwrite  bool            `json:"overwrite"`
	Aborted    bool            `json:"aborted"`
	Stats      types.SyncStats `json:"stats"`
}

// Run возвращает ошибку только если прогон прерван: блокировка занята, каталог
// недоступен, bind не прошёл, источник сломался или контекст отменён.
// Ошибки по отдельным участникам остаются в result.Outcomes.
func (s *SyncService) Run(ctx context.Context, params dto.RunParamsDTO) (*dto.RunResultDTO, error) {
	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID))
	result := &dto.RunResultDTO{RunID: runID, StartedAt: time.Now()}

	logger.Info("[SYNC] Начало прогона",
		zap.String("site", params.Site),
		zap.String("base_dn", params.BaseDN),
		zap.Bool("overwrite", params.Overwrite),
	)

	if s.deps.Lock != nil {
		release, err := s.deps.Lock.Acquire(ctx, params.BaseDN, runID)
		if err != nil {
			logger.Error("[SYNC] Не удалось получить блокировку прогона", zap.Error(err))
			return nil, apperrors.NewFatalSetupError("lock", err)
		}
		defer release()
	}

	directory, err := s.deps.Dial(s.deps.LDAP, logger)
	if err != nil {
		return nil, apperrors.NewFatalSetupError("connect", err)
	}
	defer func() {
		if cerr := directory.Close(); cerr != nil {
			logger.Debug("[LDAP] Ошибка при закрытии соединения", zap.Error(cerr))
		}
	}()

	if err := directory.Bind(params.BindDN, params.BindPassword); err != nil {
		return nil, apperrors.NewFatalSetupError("bind", err)
	}
	logger.Info("[LDAP] Bind выполнен", zap.String("bind_dn", params.BindDN))

	members := s.deps.Source.Members(ctx, params.Site)
	outcomes, syncErr := s.deps.Synchronizer.Synchronize(ctx, members, directory, params.BaseDN, params.Overwrite)

	result.Outcomes = outcomes
	result.Stats = sync.Summarize(outcomes)
	result.FinishedAt = time.Now()

	if syncErr != nil {
		logger.Error("[SYNC] Прогон прерван",
			zap.Error(syncErr),
			zap.Int("processed", result.Stats.Total),
		)
		if !apperrors.IsFatal(syncErr) {
			syncErr = apperrors.NewFatalSetupError("sync", syncErr)
		}
		// изменения, сделанные до обрыва, тоже попадают в отчёт, метрики и сводку
		result.Aborted = true
		s.afterRun(ctx, result, params, logger)
		return result, syncErr
	}

	logger.Info("[SYNC] Прогон завершён",
		zap.Int("total", result.Stats.Total),
		zap.Int("created", result.Stats.Created),
		zap.Int("skipped", result.Stats.Skipped),
		zap.Int("overwritten", result.Stats.Overwritten),
		zap.Int("failed", result.Stats.Failed),
		zap.Duration("duration", result.FinishedAt.Sub(result.StartedAt)),
	)

	s.afterRun(ctx, result, params, logger)
	return result, nil
}

// afterRun - отчёт, метрики и сводка в Redis. Их ошибки на результат прогона не влияют.
// Контекст отвязан от отмены: прерванный по сигналу прогон тоже оставляет следы.
func (s *SyncService) afterRun(ctx context.Context, result *dto.RunResultDTO, params dto.RunParamsDTO, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), afterRunTimeout)
	defer cancel()

	if s.deps.Reporter != nil {
		path, err := s.deps.Reporter.Write(result, params)
		if err != nil {
			logger.Warn("[REPORT] Не удалось сохранить отчёт", zap.Error(err))
		} else {
			result.ReportPath = path
		}
	}

	if s.deps.Metrics != nil {
		for _, o := range result.Outcomes {
			s.deps.Metrics.RecordOutcome(o.Kind.String())
		}
		s.deps.Metrics.RecordRun(result.FinishedAt.Sub(result.StartedAt), result.FinishedAt)
		if err := s.deps.Metrics.Push(ctx, params.Site); err != nil {
			logger.Warn("[METRICS] Не удалось отправить метрики", zap.Error(err))
		}
	}

	if s.deps.Cache != nil {
		payload, err := json.Marshal(lastRunSummary{
			RunID:      result.RunID,
			Site:       params.Site,
			StartedAt:  result.StartedAt,
			FinishedAt: result.FinishedAt,
			Overwrite:  params.Overwrite,
			Aborted:    result.Aborted,
			Stats:      result.Stats,
		})
		if err == nil {
			err = s.deps.Cache.Set(ctx, lastRunKeyPrefix+params.BaseDN, payload, lastRunTTL)
		}
		if err != nil {
			logger.Warn("[SYNC] Не удалось сохранить сводку последнего прогона", zap.Error(err))
		}
	}
}
