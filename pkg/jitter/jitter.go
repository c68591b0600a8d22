// Package jitter добавляет случайность в интервалы повторов, чтобы терминалы и воркеры
// не переподключались к хранилищу одновременно.
package jitter

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

var (
	globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMutex  sync.Mutex
)

// Duration возвращает d с джиттером в диапазоне [d, d*(1+jitterFactor)].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	randMutex.Lock()
	j := globalRand.Float64() * jitterFactor * float64(d)
	randMutex.Unlock()
	return d + time.Duration(j)
}

// Backoff возвращает экспоненциальную задержку без джиттера: base * 2^attempt, не больше max.
// attempt нумеруется с нуля.
func Backoff(base, max time.Duration, attempt int) time.Duration {
	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff >= max {
			return max
		}
	}

	return backoff
}

// ExponentialBackoff — Backoff с применённым джиттером.
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	return Duration(Backoff(base, max, attempt), jitterFactor)
}

// Sleep ждёт d или отмены контекста. Возвращает ctx.Err(), если контекст отменён раньше.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
