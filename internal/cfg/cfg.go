package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/joho/godotenv"
)

const (
	VectorBackendPgvector = "pgvector"
	VectorBackendQdrant   = "qdrant"
)

type Config struct {
	Minio         *MinIOCfg
	Http          *HTTPConfig
	Grpc          *GRPCConfig
	Db            *PGDBCfg
	Qdrant        *QdrantCfg
	Redis         *RedisCfg
	Kafka         *KafkaCfg
	Embedding     *EmbeddingCfg
	Search        *SearchCfg
	VectorBackend string // pgvector или qdrant
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Бакет с изображениями товаров
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
	PublicBaseURL     string // Префикс для image_url, по умолчанию http(s)://endpoint/bucket
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type GRPCConfig struct {
	Port           string
	NetworkMode    string
	HealthInterval time.Duration // период обновления статуса health-сервиса
}

type PGDBCfg struct {
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	MigrationsURL string
}

type QdrantCfg struct {
	Port                 int
	Host                 string
	ApiKey               string
	QdrantCollectionName string // имя коллекции в Qdrant
	UseTLS               bool
	VectorSize           uint64
}

type RedisCfg struct {
	Addr              string
	Password          string
	User              string
	DB                int
	MaxRetries        int
	DialTimeout       time.Duration
	Timeout           time.Duration
	ProductTTL        time.Duration
	QueryEmbeddingTTL time.Duration
}

// EmbeddingCfg описывает подключение к провайдеру эмбеддингов (Ollama, OpenAI-совместимый API).
type EmbeddingCfg struct {
	BaseURL         string
	APIKey          string
	Model           string
	Dimension       int
	Timeout         time.Duration
	MaxRetries      int
	AvailabilityTTL time.Duration
}

// SearchCfg - параметры поиска и рекомендаций.
type SearchCfg struct {
	DefaultMinSimilarity float64
	SmallCatalogSize     int
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}

	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	grpc, err := loadGRPCConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	embedding, err := loadEmbeddingCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	qdrant, err := loadQdrantCfg(log, embedding.Dimension)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	search, err := loadSearchCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	backend, err := loadVectorBackend()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Minio:         minio,
		Http:          http,
		Grpc:          grpc,
		Db:            db,
		Qdrant:        qdrant,
		Redis:         redis,
		Kafka:         kafka,
		Embedding:     embedding,
		Search:        search,
		VectorBackend: backend,
	}, nil
}

// DSN возвращает строку подключения к PostgreSQL.
func (c *PGDBCfg) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func loadVectorBackend() (string, error) {
	backend := strings.ToLower(getEnvOrDefault("VECTOR_BACKEND", VectorBackendPgvector))
	switch backend {
	case VectorBackendPgvector, VectorBackendQdrant:
		return backend, nil
	default:
		return "", e.Wrap("VECTOR_BACKEND="+backend, e.ErrIncorrectEnvVariable)
	}
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultTopic             = "catalog.products"
	)

	brokerStr := os.Getenv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}
	brokers := strings.Split(brokerStr, ",")

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL   = false
		defaultEndpoint = "minio:9000"
		defaultBucket   = "product-images"
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	endpoint := getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint)
	bucket := getEnvOrDefault("BUCKET_NAME", defaultBucket)

	scheme := "http"
	if useSSL {
		scheme = "https"
	}

	return &MinIOCfg{
		MinioEndpoint:     endpoint,
		BucketName:        bucket,
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		PublicBaseURL:     getEnvOrDefault("MINIO_PUBLIC_URL", fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket)),
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 40 * time.Second // покрывает таймаут генерации эмбеддинга
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

func loadGRPCConfig(log logger.Logger) (*GRPCConfig, error) {
	const (
		defaultPort           = "8091"
		defaultNetworkMode    = "tcp"
		defaultHealthInterval = 15 * time.Second
	)

	interval, err := parseDurationEnv("GRPC_HEALTH_INTERVAL", defaultHealthInterval)
	if err != nil {
		log.Errorf(err, "invalid GRPC_HEALTH_INTERVAL")
		return nil, err
	}

	return &GRPCConfig{
		Port:           getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode:    getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
		HealthInterval: interval,
	}, nil
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost          = "localhost"
		defaultPort          = "5432"
		defaultSSLMode       = "disable"
		defaultMigrationsURL = "file://db/migrations"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:          getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:          getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:          user,
		Password:      password,
		DBName:        dbName,
		SSLMode:       getEnvOrDefault("SSL_MODE", defaultSSLMode),
		MigrationsURL: getEnvOrDefault("MIGRATIONS_URL", defaultMigrationsURL),
	}, nil
}

func loadQdrantCfg(logger logger.Logger, vectorSize int) (*QdrantCfg, error) {
	const (
		defaultQdrantGRPCPort = "6334"
		defaultUseTLS         = false
		defaultHost           = "localhost"
		defaultCollection     = "products"
	)

	port, err := strconv.Atoi(getEnvOrDefault("QDRANT_GRPC_PORT", defaultQdrantGRPCPort))
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_GRPC_PORT")
		return nil, err
	}

	useTLS, err := strconv.ParseBool(getEnvOrDefault("QDRANT_USE_TLS", strconv.FormatBool(defaultUseTLS)))
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_USE_TLS")
		return nil, err
	}

	return &QdrantCfg{
		Host:                 getEnvOrDefault("QDRANT_HOST", defaultHost),
		Port:                 port,
		ApiKey:               getEnv("QDRANT__SERVICE__API_KEY"),
		QdrantCollectionName: getEnvOrDefault("COLLECTION_NAME", defaultCollection),
		UseTLS:               useTLS,
		VectorSize:           uint64(vectorSize),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr              = "localhost:6379"
		defaultDB                = 0
		defaultMaxRetries        = 3
		defaultDialTimeout       = 5 * time.Second
		defaultReadTimeout       = 3 * time.Second
		defaultWriteTimeout      = 3 * time.Second
		defaultProductTTL        = 3 * time.Minute
		defaultQueryEmbeddingTTL = 24 * time.Hour
	)

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

	productTTL, err := parseDurationEnv("PRODUCT_TTL", defaultProductTTL)
	if err != nil {
		log.Errorf(err, "invalid PRODUCT_TTL")
		return nil, err
	}

	queryTTL, err := parseDurationEnv("QUERY_EMBEDDING_TTL", defaultQueryEmbeddingTTL)
	if err != nil {
		log.Errorf(err, "invalid QUERY_EMBEDDING_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:              getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:          getEnv("REDIS_PASSWORD"),
		User:              getEnv("REDIS_USER"),
		DB:                db,
		MaxRetries:        maxRetries,
		DialTimeout:       dialTimeout,
		Timeout:           timeout,
		ProductTTL:        productTTL,
		QueryEmbeddingTTL: queryTTL,
	}, nil
}

func loadEmbeddingCfg(log logger.Logger) (*EmbeddingCfg, error) {
	const (
		defaultBaseURL         = "http://localhost:11434/v1"
		defaultModel           = "embeddinggemma"
		defaultDimension       = 768
		defaultTimeout         = 30 * time.Second
		defaultMaxRetries      = 2
		defaultAvailabilityTTL = time.Minute
	)

	dimension, err := parseIntEnv("EMBEDDING_DIM", defaultDimension)
	if err != nil || dimension <= 0 {
		if err == nil {
			err = e.ErrIncorrectEnvVariable
		}
		log.Errorf(err, "invalid EMBEDDING_DIM")
		return nil, err
	}

	timeout, err := parseDurationEnv("EMBEDDING_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid EMBEDDING_TIMEOUT")
		return nil, err
	}

	maxRetries, err := parseIntEnv("EMBEDDING_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid EMBEDDING_MAX_RETRIES")
		return nil, err
	}

	availabilityTTL, err := parseDurationEnv("EMBEDDING_AVAILABILITY_TTL", defaultAvailabilityTTL)
	if err != nil {
		log.Errorf(err, "invalid EMBEDDING_AVAILABILITY_TTL")
		return nil, err
	}

	return &EmbeddingCfg{
		BaseURL:         strings.TrimRight(getEnvOrDefault("OLLAMA_HOST", defaultBaseURL), "/"),
		APIKey:          getEnvOrDefault("EMBEDDING_API_KEY", "ollama"),
		Model:           getEnvOrDefault("EMBEDDING_MODEL", defaultModel),
		Dimension:       dimension,
		Timeout:         timeout,
		MaxRetries:      maxRetries,
		AvailabilityTTL: availabilityTTL,
	}, nil
}

func loadSearchCfg(log logger.Logger) (*SearchCfg, error) {
	const (
		defaultMinSimilarity    = 0.3
		defaultSmallCatalogSize = 20
	)

	minSimilarity, err := parseFloatEnv("SEARCH_MIN_SIMILARITY", defaultMinSimilarity)
	if err != nil || minSimilarity < 0 || minSimilarity > 1 {
		if err == nil {
			err = e.ErrIncorrectEnvVariable
		}
		log.Errorf(err, "invalid SEARCH_MIN_SIMILARITY")
		return nil, err
	}

	smallCatalog, err := parseIntEnv("SMALL_CATALOG_SIZE", defaultSmallCatalogSize)
	if err != nil {
		log.Errorf(err, "invalid SMALL_CATALOG_SIZE")
		return nil, err
	}

	return &SearchCfg{
		DefaultMinSimilarity: minSimilarity,
		SmallCatalogSize:     smallCatalog,
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

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	floatValue, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return floatValue, nil
}
