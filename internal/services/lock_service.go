package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"member2ldap/internal/repositories"
	apperrors "member2ldap/pkg/errors"
)

const (
	lockKeyPrefix    = "member2ldap:lock:"
	lastRunKeyPrefix = "member2ldap:last_run:"
)

// RunLockInterface - не даёт двум прогонам писать в одно поддерево одновременно.
type RunLockInterface interface {
	Acquire(ctx context.Context, baseDN, runID string) (release func(), err error)
}

type runLock struct {
	cache  repositories.CacheRepositoryInterface
	ttl    time.Duration
	logger *zap.Logger
}

func NewRunLock(cache repositories.CacheRepositoryInterface, ttl time.Duration, logger *zap.Logger) RunLockInterface {
	return &runLock{cache: cache, ttl: ttl, logger: logger}
}

// Acquire ставит ключ блокировки. Если ключ занят, возвращает ErrRunInProgress
// вместе с ID прогона, который его держит.
func (l *runLock) Acquire(ctx context.Context, baseDN, runID string) (func(), error) {
	key := lockKeyPrefix + baseDN
	ok, err := l.cache.SetNX(ctx, key, runID, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("не удалось поставить блокировку %s: %w", key, err)
	}
	if !ok {
		holder, gerr := l.cache.Get(ctx, key)
		if gerr != nil && !errors.Is(gerr, apperrors.ErrNotFound) {
			l.logger.Warn("[LOCK] Не удалось прочитать владельца блокировки", zap.Error(gerr))
		}
		return nil, fmt.Errorf("%w: base_dn=%s run_id=%s", apperrors.ErrRunInProgress, baseDN, holder)
	}

	l.logger.Debug("[LOCK] Блокировка получена", zap.String("key", key), zap.Duration("ttl", l.ttl))
	release := func() {
		// отмена основного контекста не должна мешать снять блокировку;
		// ключ снимается, только если он всё ещё принадлежит этому прогону
		deleted, err := l.cache.DelIfValue(context.WithoutCancel(ctx), key, runID)
		switch {
		case err != nil:
			l.logger.Warn("[LOCK] Не удалось снять блокировку", zap.String("key", key), zap.Error(err))
		case !deleted:
			l.logger.Warn("[LOCK] Блокировка истекла и уже не принадлежит прогону, не снимаем",
				zap.String("key", key), zap.Duration("ttl", l.ttl))
		}
	}
	return release, nil
}
