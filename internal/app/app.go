package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/minimarket/internal/cfg"
	v1Grpc "github.com/DRSN-tech/minimarket/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/minimarket/internal/delivery/v1/http"
	"github.com/DRSN-tech/minimarket/internal/infrastructure/backend"
	"github.com/DRSN-tech/minimarket/internal/infrastructure/kafka"
	"github.com/DRSN-tech/minimarket/internal/repository/memory"
	s3Repo "github.com/DRSN-tech/minimarket/internal/repository/minio"
	"github.com/DRSN-tech/minimarket/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/minimarket/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/minimarket/internal/repository/redis"
	redisConv "github.com/DRSN-tech/minimarket/internal/repository/redis/converter"
	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/clients"
	"github.com/DRSN-tech/minimarket/pkg/closer"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/logger"
	"github.com/DRSN-tech/minimarket/pkg/postgres"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	initTimeout     = 30 * time.Second
	shutdownTimeout = 10 * time.Second
	topicTimeout    = 10 * time.Second
)

// stores — хранилища выбранного режима.
type stores struct {
	catalog    usecase.CatalogRepository
	products   usecase.ProductRepository
	categories usecase.CategoryRepository
	ledger     usecase.SaleReader
	txManager  usecase.TxManager
	committer  usecase.Committer
}

type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	catalogUC *usecase.CatalogUseCase
	cartUC    *usecase.CartUseCase
	httpSrv   *v1Http.Server
	grpcSrv   *v1Grpc.GRPCServer
	outbox    *kafka.OutboxWorker // nil без Kafka
}

// NewApp собирает зависимости для режима cfg.Store.Mode. Уже открытые ресурсы
// закрываются, если сборка не удалась.
func NewApp(cfg *config.Config, logger logger.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	a := &App{
		cfg:    cfg,
		logger: logger,
		closer: closer.NewCloser(shutdownTimeout),
	}
	defer func() {
		if err != nil {
			_ = a.closer.Close(context.Background())
		}
	}()

	cacheRepo, err := a.initCache(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	archive, err := a.initArchive(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var st *stores
	switch cfg.Store.Mode {
	case config.StoreModePostgres:
		st, err = a.initPostgresStores(ctx, cacheRepo)
	case config.StoreModeMemory:
		st = a.initMemoryStores(cacheRepo)
	case config.StoreModeRemote:
		st = a.initRemoteStores(cacheRepo)
	default:
		err = e.Wrap(string(cfg.Store.Mode), e.ErrUnknownStoreMode)
	}
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	logger.Infof("store mode: %s", cfg.Store.Mode)

	a.catalogUC = usecase.NewCatalogUC(st.catalog, st.products, st.categories, st.txManager, cacheRepo, logger, cfg.Sales.LowStockThreshold)
	a.cartUC = usecase.NewCartUC(a.catalogUC, st.committer, logger, cfg.Sales.CartIdleTTL)
	saleUC := usecase.NewSaleUC(st.ledger, a.catalogUC, archive, logger, cfg.Sales.PageSize)

	r := chi.NewRouter()
	v1Http.NewRouter(r, logger).Init(a.catalogUC, a.cartUC, saleUC)
	a.httpSrv = v1Http.NewServer(r, cfg.Http)
	a.grpcSrv = v1Grpc.NewGRPCServer(cfg.Grpc, logger)

	return a, nil
}

func (a *App) initCache(ctx context.Context) (usecase.CacheRepository, error) {
	if !a.cfg.Redis.Enabled {
		a.logger.Infof("redis is not configured, using in-process catalog cache")
		return memory.NewCacheRepo(a.cfg.Redis.ProductTTL), nil
	}

	redisClient, err := clients.NewRedisClient(ctx, a.cfg.Redis)
	if err != nil {
		a.logger.Errorf(err, "failed to connect to redis")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("redis", func(context.Context) error { return redisClient.Close() })

	return redis.NewCacheRepo(redisClient, redisConv.ProductConverterImpl{}, a.cfg.Redis, a.logger), nil
}

func (a *App) initArchive(ctx context.Context) (usecase.ArchiveRepository, error) {
	if !a.cfg.Minio.Enabled {
		a.logger.Infof("minio is not configured, sales archive disabled")
		return nil, nil
	}

	minioClient, err := clients.NewMinIOClient(a.cfg.Minio)
	if err != nil {
		a.logger.Errorf(err, "failed to initialize minio client")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := clients.EnsureBucket(ctx, minioClient, a.cfg.Minio.BucketName); err != nil {
		a.logger.Errorf(err, "failed to initialize MinIO bucket")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return s3Repo.NewArchiveRepo(minioClient, a.cfg.Minio), nil
}

func (a *App) initPostgresStores(ctx context.Context, cacheRepo usecase.CacheRepository) (*stores, error) {
	db, err := initPGDB(ctx, a.logger, a.cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.AddFunc("postgres", db.Close)

	productRepo := pgdb.NewProductRepo(db.Pool, pgdbConv.ProductConverterImpl{})
	categoryRepo := pgdb.NewCategoryRepo(db.Pool, pgdbConv.CategoryConverterImpl{})
	saleRepo := pgdb.NewSaleRepo(db.Pool, pgdbConv.SaleConverterImpl{})
	txManager := pgdb.NewTxManager(db.Pool, a.logger)

	var opts []usecase.CommitOption
	if a.cfg.Kafka.Enabled {
		outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, pgdbConv.OutboxEventConverterImpl{})
		opts = append(opts, usecase.WithOutbox(outboxRepo, kafka.NewProtoEncoder()))

		producer := kafka.NewProducer(a.logger, a.cfg.Kafka)
		a.closer.Add("kafka producer", func(context.Context) error { return producer.Close() })

		// Топик может создать и администратор кластера
		if err := producer.EnsureTopic(topicTimeout); err != nil {
			a.logger.Warnf("failed to ensure kafka topic: %v", err)
		}

		a.outbox = kafka.NewOutboxWorker(outboxRepo, a.logger, producer, db.Dsn, pgdb.OutboxChannel)
	} else {
		a.logger.Infof("kafka is not configured, sale events are not published")
	}

	return &stores{
		catalog:    productRepo,
		products:   productRepo,
		categories: categoryRepo,
		ledger:     saleRepo,
		txManager:  txManager,
		committer:  usecase.NewCommitUC(productRepo, productRepo, saleRepo, txManager, cacheRepo, a.logger, opts...),
	}, nil
}

func (a *App) initMemoryStores(cacheRepo usecase.CacheRepository) *stores {
	catalog := memory.NewCatalogRepo()
	saleRepo := memory.NewSaleRepo()
	txManager := memory.NewTxManager()

	a.logger.Warnf("memory store: catalog and sales are lost on restart")

	return &stores{
		catalog:    catalog,
		products:   catalog,
		categories: catalog,
		ledger:     saleRepo,
		txManager:  txManager,
		committer:  usecase.NewCommitUC(catalog, catalog, saleRepo, txManager, cacheRepo, a.logger),
	}
}

// initRemoteStores: каталог и журнал на внешнем бэкенде, регистрация товаров не поддерживается.
func (a *App) initRemoteStores(cacheRepo usecase.CacheRepository) *stores {
	client := backend.NewClient(a.cfg.Backend, a.logger)
	catalog := backend.NewCatalogRepo(client)

	return &stores{
		catalog:   catalog,
		ledger:    backend.NewSaleRepo(client),
		txManager: memory.NewTxManager(),
		committer: backend.NewCommitter(client, catalog, cacheRepo, a.logger),
	}
}

// Run запускает серверы и фоновые задачи и блокируется до сигнала остановки или ошибки сервера.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if n, err := a.catalogUC.Refresh(ctx); err != nil {
		a.logger.Warnf("catalog warm-up failed: %v", err)
	} else {
		a.logger.Infof("catalog warmed up: %d products", n)
	}

	if a.outbox != nil {
		a.outbox.Start(ctx)
		a.closer.AddFunc("outbox worker", a.outbox.Stop)
	}

	go a.purgeCarts(ctx)

	grpcErrCh := make(chan error, 1)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := a.grpcSrv.Start(); err != nil {
			a.logger.Errorf(err, "gRPC server failed")
			grpcErrCh <- err
		}
	}()
	a.closer.Add("grpc server", a.grpcSrv.Stop)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil {
			a.logger.Errorf(err, "HTTP server failed: %v", err)
			errCh <- err
		}
	}()
	a.closer.Add("http server", a.httpSrv.Stop)

	// === Ожидание сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case appErr = <-grpcErrCh:
		a.logger.Errorf(appErr, "gRPC server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	// === Graceful shutdown ===
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			a.logger.Warnf("shutdown timeout: %v", err)
		} else {
			a.logger.Errorf(err, "shutdown error")
		}
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

// purgeCarts периодически удаляет брошенные корзины.
func (a *App) purgeCarts(ctx context.Context) {
	ttl := a.cfg.Sales.CartIdleTTL
	if ttl <= 0 {
		return
	}

	ticker := time.NewTicker(max(ttl/4, time.Minute))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			a.cartUC.PurgeIdle(now)
		}
	}
}

func initPGDB(ctx context.Context, logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(ctx, cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(cfg.Db.Migrations, logger); err != nil {
		db.Close()
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
