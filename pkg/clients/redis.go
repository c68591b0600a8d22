package clients

import (
	"context"

	"github.com/DRSN-tech/minimarket/internal/cfg"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// RedisClient — подключение к Redis для кэша каталога.
type RedisClient struct {
	Client *r.Client
}

// NewRedisClient открывает подключение и проверяет его PING с таймаутом DialTimeout.
// При неудаче клиент закрывается.
func NewRedisClient(ctx context.Context, cfg *cfg.RedisCfg) (*RedisClient, error) {
	client := r.NewClient(&r.Options{
		Addr:         cfg.Addr,
		Username:     cfg.User,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	rc := &RedisClient{Client: client}

	pingCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	if err := rc.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return rc, nil
}

func (rc *RedisClient) Ping(ctx context.Context) error {
	if err := rc.Client.Ping(ctx).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (rc *RedisClient) Close() error {
	return rc.Client.Close()
}
