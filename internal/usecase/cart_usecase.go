package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/logger"
	"github.com/google/uuid"
)

// ProductReader отдаёт товар для проверок при редактировании корзины.
// Допускается чтение из кэша: проведение продажи всё равно перепроверяет остатки.
type ProductReader interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

type cartSession struct {
	mu     sync.Mutex
	cart   *domain.Cart
	closed bool // корзина удалена из реестра, пока сессия ждала блокировку
}

// CartUseCase хранит корзины кассовых сессий. Операции над одной корзиной
// сериализуются, разные корзины работают независимо.
type CartUseCase struct {
	products  ProductReader
	committer Committer
	logger    logger.Logger
	idleTTL   time.Duration
	now       func() time.Time
	newID     func() string

	mu    sync.RWMutex
	carts map[string]*cartSession
}

func NewCartUC(products ProductReader, committer Committer, logger logger.Logger, idleTTL time.Duration) *CartUseCase {
	return &CartUseCase{
		products:  products,
		committer: committer,
		logger:    logger,
		idleTTL:   idleTTL,
		now:       time.Now,
		newID:     uuid.NewString,
		carts:     make(map[string]*cartSession),
	}
}

func (c *CartUseCase) Create(ctx context.Context) (*CartView, error) {
	cart := domain.NewCart(c.newID(), c.now())

	c.mu.Lock()
	c.carts[cart.ID] = &cartSession{cart: cart}
	c.mu.Unlock()

	c.logger.Debugf("cart created: id=%s", cart.ID)
	return NewCartView(cart, 0), nil
}

func (c *CartUseCase) Get(ctx context.Context, cartID string) (*CartView, error) {
	return c.withCart(cartID, func(cart *domain.Cart) error { return nil })
}

// AddItem добавляет товар в корзину, проверяя остаток с учётом уже добавленного количества.
func (c *CartUseCase) AddItem(ctx context.Context, cartID string, productID int64, quantity int64) (*CartView, error) {
	const op = "CartUseCase.AddItem"

	view, err := c.withCart(cartID, func(cart *domain.Cart) error {
		product, err := c.products.GetProduct(ctx, productID)
		if err != nil {
			return err
		}

		return cart.Add(product, quantity)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return view, nil
}

// SetQuantity заменяет количество в строке корзины.
func (c *CartUseCase) SetQuantity(ctx context.Context, cartID string, productID int64, quantity int64) (*CartView, error) {
	const op = "CartUseCase.SetQuantity"

	view, err := c.withCart(cartID, func(cart *domain.Cart) error {
		if _, ok := cart.Line(productID); !ok {
			return e.ErrCartLineNotFound
		}

		product, err := c.products.GetProduct(ctx, productID)
		if err != nil {
			return err
		}

		return cart.SetQuantity(product, quantity)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return view, nil
}

func (c *CartUseCase) RemoveItem(ctx context.Context, cartID string, productID int64) (*CartView, error) {
	return c.withCart(cartID, func(cart *domain.Cart) error {
		cart.Remove(productID)
		return nil
	})
}

func (c *CartUseCase) Clear(ctx context.Context, cartID string) (*CartView, error) {
	return c.withCart(cartID, func(cart *domain.Cart) error {
		cart.Clear()
		return nil
	})
}

// Delete отменяет кассовую сессию. Каталог и журнал продаж не затрагиваются.
func (c *CartUseCase) Delete(ctx context.Context, cartID string) error {
	c.mu.Lock()
	session, ok := c.carts[cartID]
	delete(c.carts, cartID)
	c.mu.Unlock()

	if !ok {
		return e.ErrCartNotFound
	}

	session.mu.Lock()
	session.closed = true
	session.mu.Unlock()

	return nil
}

// Checkout проводит продажу по строкам корзины. Корзина очищается только после успешной
// фиксации продажи; при ошибке её содержимое сохраняется для повтора.
func (c *CartUseCase) Checkout(ctx context.Context, cartID string, customer domain.Customer) (*domain.Sale, error) {
	const op = "CartUseCase.Checkout"

	session, err := c.lock(cartID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer session.mu.Unlock()

	if session.cart.IsEmpty() {
		return nil, e.Wrap(op, e.ErrEmptyCart)
	}

	customer = domain.NewCustomer(customer.Name, customer.DocumentID)
	sale, err := c.committer.Commit(ctx, session.cart.Lines(), customer)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	session.cart.Clear()
	return sale, nil
}

// PurgeIdle удаляет корзины, не менявшиеся дольше idleTTL. Корзины, занятые
// в данный момент, пропускаются. Возвращает количество удалённых корзин.
func (c *CartUseCase) PurgeIdle(now time.Time) int {
	if c.idleTTL <= 0 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	purged := 0
	for id, session := range c.carts {
		if !session.mu.TryLock() {
			continue
		}

		if now.Sub(session.cart.UpdatedAt) > c.idleTTL {
			session.closed = true
			delete(c.carts, id)
			purged++
		}
		session.mu.Unlock()
	}

	if purged > 0 {
		c.logger.Infof("idle carts purged: %d", purged)
	}

	return purged
}

// Len возвращает количество открытых корзин.
func (c *CartUseCase) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.carts)
}

// withCart выполняет fn под блокировкой корзины и возвращает её снимок.
// Ошибка fn оставляет корзину без изменений: доменные операции не меняют её при отказе.
func (c *CartUseCase) withCart(cartID string, fn func(cart *domain.Cart) error) (*CartView, error) {
	session, err := c.lock(cartID)
	if err != nil {
		return nil, err
	}
	defer session.mu.Unlock()

	if err := fn(session.cart); err != nil {
		return nil, err
	}

	total, err := session.cart.Total()
	if err != nil {
		return nil, err
	}

	return NewCartView(session.cart, total), nil
}

// lock находит корзину и захватывает её блокировку. Вызывающий обязан снять блокировку.
func (c *CartUseCase) lock(cartID string) (*cartSession, error) {
	c.mu.RLock()
	session, ok := c.carts[cartID]
	c.mu.RUnlock()

	if !ok {
		return nil, e.ErrCartNotFound
	}

	session.mu.Lock()
	if session.closed {
		session.mu.Unlock()
		return nil, e.ErrCartNotFound
	}

	return session, nil
}
