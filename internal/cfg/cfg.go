package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/logger"
	"github.com/jimlawless/whereami"
)

// StoreMode определяет, где живут каталог и журнал продаж.
type StoreMode string

const (
	StoreModePostgres StoreMode = "postgres" // PostgreSQL + Redis + Kafka + MinIO
	StoreModeMemory   StoreMode = "memory"   // всё в памяти процесса, для разработки
	StoreModeRemote   StoreMode = "remote"   // внешний REST-бэкенд
)

type Config struct {
	Store   *StoreCfg
	Http    *HTTPConfig
	Grpc    *GRPCConfig
	Db      *PGDBCfg
	Redis   *RedisCfg
	Kafka   *KafkaCfg
	Minio   *MinIOCfg
	Backend *BackendCfg
	Sales   *SalesCfg
}

type StoreCfg struct {
	Mode StoreMode
}

type KafkaCfg struct {
	Enabled           bool
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

type MinIOCfg struct {
	Enabled           bool
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Бакет для архива продаж
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type GRPCConfig struct {
	Port        string
	NetworkMode string
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	// Migrations — источник миграций для golang-migrate, например file://db/migrations
	Migrations string
}

// DSN возвращает строку подключения к PostgreSQL.
func (c *PGDBCfg) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type RedisCfg struct {
	Enabled     bool
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	ProductTTL  time.Duration
}

type BackendCfg struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries int
}

type SalesCfg struct {
	LowStockThreshold int64         // порог «мало на складе», если у товара не задан свой
	CartIdleTTL       time.Duration // корзина без изменений дольше TTL удаляется
	PageSize          int           // размер страницы при обходе журнала продаж
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	store, err := loadStoreCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var db *PGDBCfg
	if store.Mode == StoreModePostgres {
		db, err = loadPGDBCfg(log)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	var backend *BackendCfg
	if store.Mode == StoreModeRemote {
		backend, err = loadBackendCfg(log)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	sales, err := loadSalesCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Store:   store,
		Http:    http,
		Grpc:    loadGRPCConfig(),
		Db:      db,
		Redis:   redis,
		Kafka:   kafka,
		Minio:   minio,
		Backend: backend,
		Sales:   sales,
	}, nil
}

func loadStoreCfg() (*StoreCfg, error) {
	mode := StoreMode(strings.ToLower(getEnvOrDefault("STORE_MODE", string(StoreModePostgres))))
	switch mode {
	case StoreModePostgres, StoreModeMemory, StoreModeRemote:
		return &StoreCfg{Mode: mode}, nil
	default:
		return nil, e.Wrap(string(mode), e.ErrUnknownStoreMode)
	}
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultTopic             = "sales.committed"
	)

	brokerStr := getEnv("KAFKA_BROKERS")
	if brokerStr == "" {
		return &KafkaCfg{Enabled: false}, nil
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Enabled:           true,
		Brokers:           strings.Split(brokerStr, ","),
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL = false
		defaultBucket = "sales-archive"
	)

	endpoint := getEnv("MINIO_ENDPOINT")
	if endpoint == "" {
		return &MinIOCfg{Enabled: false}, nil
	}

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	return &MinIOCfg{
		Enabled:           true,
		MinioEndpoint:     endpoint,
		BucketName:        getEnvOrDefault("BUCKET_NAME", defaultBucket),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         getEnvOrDefault("HTTP_PORT", defaultPort),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadGRPCConfig() *GRPCConfig {
	const (
		defaultPort        = "8091"
		defaultNetworkMode = "tcp"
	)

	return &GRPCConfig{
		Port:        getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode: getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
	}
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost       = "localhost"
		defaultPort       = "5432"
		defaultSSLMode    = "disable"
		defaultMigrations = "file://db/migrations"
	)

	required := map[string]string{}
	for _, key := range []string{"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB"} {
		value := getEnv(key)
		if value == "" {
			err := fmt.Errorf("%s is required", key)
			log.Errorf(err, "missing %s", key)
			return nil, err
		}
		required[key] = value
	}

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     required["POSTGRES_USER"],
		Password: required["POSTGRES_PASSWORD"],
		DBName:   required["POSTGRES_DB"],
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),

		Migrations: getEnvOrDefault("MIGRATIONS_URL", defaultMigrations),
	}, nil
}

func loadBackendCfg(log logger.Logger) (*BackendCfg, error) {
	const (
		defaultTimeout    = 5 * time.Second
		defaultMaxRetries = 3
	)

	baseURL := strings.TrimRight(getEnv("BACKEND_URL"), "/")
	if baseURL == "" {
		err := fmt.Errorf("BACKEND_URL is required")
		log.Errorf(err, "missing BACKEND_URL")
		return nil, err
	}

	timeout, err := parseDurationEnv("BACKEND_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid BACKEND_TIMEOUT")
		return nil, err
	}

	maxRetries, err := parseIntEnv("BACKEND_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid BACKEND_MAX_RETRIES")
		return nil, err
	}

	return &BackendCfg{
		BaseURL:    baseURL,
		Token:      getEnv("BACKEND_TOKEN"),
		Timeout:    timeout,
		MaxRetries: maxRetries,
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultProductTTL   = 3 * time.Minute
	)

	productTTL, err := parseDurationEnv("PRODUCT_TTL", defaultProductTTL)
	if err != nil {
		log.Errorf(err, "invalid PRODUCT_TTL")
		return nil, err
	}

	addr := getEnv("REDIS_ADDR")
	if addr == "" {
		return &RedisCfg{Enabled: false, ProductTTL: productTTL}, nil
	}

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	return &RedisCfg{
		Enabled:     true,
		Addr:        addr,
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     max(readTimeout, writeTimeout),
		ProductTTL:  productTTL,
	}, nil
}

func loadSalesCfg(log logger.Logger) (*SalesCfg, error) {
	const (
		defaultLowStockThreshold = 10
		defaultCartIdleTTL       = 2 * time.Hour
		defaultPageSize          = 100
	)

	threshold, err := parseIntEnv("LOW_STOCK_THRESHOLD", defaultLowStockThreshold)
	if err != nil || threshold < 0 {
		log.Errorf(e.ErrIncorrectEnvVariable, "invalid LOW_STOCK_THRESHOLD")
		return nil, e.Wrap("LOW_STOCK_THRESHOLD", e.ErrIncorrectEnvVariable)
	}

	cartTTL, err := parseDurationEnv("CART_IDLE_TTL", defaultCartIdleTTL)
	if err != nil {
		log.Errorf(err, "invalid CART_IDLE_TTL")
		return nil, err
	}

	pageSize, err := parseIntEnv("SALES_PAGE_SIZE", defaultPageSize)
	if err != nil || pageSize <= 0 {
		log.Errorf(e.ErrIncorrectEnvVariable, "invalid SALES_PAGE_SIZE")
		return nil, e.Wrap("SALES_PAGE_SIZE", e.ErrIncorrectEnvVariable)
	}

	return &SalesCfg{
		LowStockThreshold: int64(threshold),
		CartIdleTTL:       cartTTL,
		PageSize:          pageSize,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}
