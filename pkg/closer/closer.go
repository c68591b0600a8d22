package closer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Func — сигнатура функции закрытия ресурса.
type Func func(ctx context.Context) error

type resource struct {
	name string
	fn   Func
}

// Closer закрывает зарегистрированные ресурсы в обратном порядке (LIFO).
type Closer struct {
	mu            sync.Mutex
	resources     []resource
	once          sync.Once
	forcedTimeout time.Duration
}

// NewCloser создает новый экземпляр Closer.
// forcedTimeout — время на принудительное закрытие ресурсов, не успевших закрыться до отмены контекста.
func NewCloser(forcedTimeout time.Duration) *Closer {
	const defaultForcedTimeout = 2 * time.Second

	if forcedTimeout <= 0 {
		forcedTimeout = defaultForcedTimeout
	}

	return &Closer{forcedTimeout: forcedTimeout}
}

// Add регистрирует функцию закрытия под именем name (используется в сообщениях об ошибках).
func (c *Closer) Add(name string, f Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources = append(c.resources, resource{name: name, fn: f})
}

// AddFunc регистрирует функцию закрытия без контекста и ошибки, например pgxpool.Pool.Close.
func (c *Closer) AddFunc(name string, f func()) {
	c.Add(name, func(context.Context) error {
		f()
		return nil
	})
}

// Close последовательно закрывает ресурсы. Повторные вызовы ничего не делают.
// Если ctx отменяется до завершения, оставшиеся ресурсы закрываются параллельно с forcedTimeout.
func (c *Closer) Close(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		resources := append([]resource(nil), c.resources...)
		c.mu.Unlock()

		remaining, errs := c.gracefulClose(ctx, resources)
		if len(remaining) > 0 {
			errs = append(errs, c.forcedClose(remaining)...)
			err = fmt.Errorf(
				"shutdown interrupted after %d/%d resources:\n%s",
				len(resources)-len(remaining),
				len(resources),
				strings.Join(errs, "\n"),
			)
			return
		}

		if len(errs) > 0 {
			err = fmt.Errorf("shutdown finished with error(s):\n%s", strings.Join(errs, "\n"))
		}
	})

	return err
}

// gracefulClose возвращает ресурсы, до которых не дошла очередь из-за отмены контекста.
func (c *Closer) gracefulClose(ctx context.Context, resources []resource) ([]resource, []string) {
	var errs []string
	for i := len(resources) - 1; i >= 0; i-- {
		r := resources[i]
		done := make(chan error, 1)
		go func() {
			done <- r.fn(ctx)
		}()

		select {
		case err := <-done:
			if err != nil {
				errs = append(errs, fmt.Sprintf("[!] %s: %v", r.name, err))
			}
		case <-ctx.Done():
			return resources[:i+1], errs
		}
	}

	return nil, errs
}

func (c *Closer) forcedClose(resources []resource) []string {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []string
	)

	ctx, cancel := context.WithTimeout(context.Background(), c.forcedTimeout)
	defer cancel()

	for _, r := range resources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.fn(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Sprintf("[FORCED] %s: %v", r.name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errs
}
