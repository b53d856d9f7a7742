package repositories

import (
	"context"
	"time"
)

// CacheRepositoryInterface - то, что нужно от Redis: блокировка прогона и сводка последнего запуска.
type CacheRepositoryInterface interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	// DelIfValue удаляет ключ, только если в нём всё ещё лежит value. true - ключ удалён.
	DelIfValue(ctx context.Context, key string, value string) (bool, error)
}
