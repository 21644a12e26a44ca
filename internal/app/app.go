package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/catalog-recommender/internal/cfg"
	v1Grpc "github.com/DRSN-tech/catalog-recommender/internal/delivery/v1/grpc"
	v1Http "github.com/DRSN-tech/catalog-recommender/internal/delivery/v1/http"
	"github.com/DRSN-tech/catalog-recommender/internal/infrastructure/embedding"
	"github.com/DRSN-tech/catalog-recommender/internal/infrastructure/kafka"
	minioInfra "github.com/DRSN-tech/catalog-recommender/internal/infrastructure/minio"
	s3Repo "github.com/DRSN-tech/catalog-recommender/internal/repository/minio"
	"github.com/DRSN-tech/catalog-recommender/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/catalog-recommender/internal/repository/pgdb/converter"
	qdrantRepo "github.com/DRSN-tech/catalog-recommender/internal/repository/qdrant"
	"github.com/DRSN-tech/catalog-recommender/internal/repository/redis"
	redisConv "github.com/DRSN-tech/catalog-recommender/internal/repository/redis/converter"
	"github.com/DRSN-tech/catalog-recommender/internal/usecase"
	"github.com/DRSN-tech/catalog-recommender/pkg/closer"
	"github.com/DRSN-tech/catalog-recommender/pkg/clients"
	"github.com/DRSN-tech/catalog-recommender/pkg/e"
	"github.com/DRSN-tech/catalog-recommender/pkg/logger"
	"github.com/DRSN-tech/catalog-recommender/pkg/postgres"
	"github.com/DRSN-tech/catalog-recommender/pkg/tr"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	initTimeout        = 10 * time.Second
	shutdownTimeout    = 10 * time.Second
	cleanupWaitTimeout = 5 * time.Second
	topicTimeout       = 10 * time.Second
)

// App держит собранные зависимости сервиса.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	closer *closer.Closer

	db          *postgres.PgDatabase
	provider    *embedding.Provider
	imagesInfra *minioInfra.MinioInfrastructure
	worker      *kafka.OutboxWorker

	searchUC         *usecase.SearchUseCase
	recommendationUC *usecase.RecommendationUseCase
	productUC        *usecase.ProductUseCase

	// отменяется при остановке, прерывает фоновые задачи
	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp применяет миграции, подключается к хранилищам и собирает usecase-слой.
// Серверы и outbox-воркер стартуют только в Run.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		cfg:    cfg,
		logger: log,
		closer: closer.NewCloser(0),
		ctx:    ctx,
		cancel: cancel,
	}

	if err := a.init(); err != nil {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer closeCancel()
		if cerr := a.closer.Close(closeCtx); cerr != nil {
			log.Warnf("partial init cleanup: %v", cerr)
		}
		cancel()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return a, nil
}

func (a *App) init() error {
	initCtx, initCancel := context.WithTimeout(a.ctx, initTimeout)
	defer initCancel()

	db, err := initPGDB(initCtx, a.logger, a.cfg)
	if err != nil {
		return err
	}
	a.db = db
	a.closer.Add("postgres", func(context.Context) error {
		db.Close()
		return nil
	})

	productConv := pgdbConv.ProductConverterImpl{}
	outboxConv := pgdbConv.OutboxEventConverterImpl{}

	productRepo := pgdb.NewProductRepo(db.Pool, productConv)
	wishlistRepo := pgdb.NewWishlistRepo(db.Pool, productConv)
	orderRepo := pgdb.NewOrderRepo(db.Pool)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, outboxConv)
	txManager := tr.NewManager(db.Pool)

	provider, err := embedding.NewProvider(a.cfg.Embedding, a.logger)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.provider = provider

	index, err := a.initVectorIndex(initCtx, productRepo)
	if err != nil {
		return err
	}

	redisClient := clients.NewRedisClient(a.cfg.Redis)
	if err := redisClient.Ping(initCtx); err != nil {
		_ = redisClient.Close()
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("redis", func(context.Context) error {
		return redisClient.Close()
	})
	cacheRepo := redis.NewCacheRepo(redisClient, redisConv.ProductInfoConverterImpl{}, a.cfg.Redis, a.cfg.Embedding.Model, a.logger)

	minioClient, err := clients.NewMinIOClient(a.cfg.Minio)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if err := clients.EnsureBucket(initCtx, minioClient, a.cfg.Minio.BucketName); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	imageRepo := s3Repo.NewImageRepo(minioClient, a.cfg.Minio.BucketName)
	a.imagesInfra = minioInfra.NewMinioInfrastructure(imageRepo, a.cfg.Minio, a.logger, a.ctx)

	producer, err := kafka.NewProducer(a.logger, a.cfg.Kafka)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	a.closer.Add("kafka producer", func(context.Context) error {
		return producer.Close()
	})
	if err := producer.EnsureTopic(topicTimeout); err != nil {
		a.logger.Warnf("kafka topic check failed, producer will retry on write: %v", err)
	}
	a.worker = kafka.NewOutboxWorker(outboxRepo, a.logger, producer, db.Dsn)

	ranker := usecase.NewSimilarityRanker()
	a.searchUC = usecase.NewSearchUC(provider, index, ranker, cacheRepo, a.logger)
	a.recommendationUC = usecase.NewRecommendationUC(
		wishlistRepo,
		orderRepo,
		productRepo,
		index,
		ranker,
		a.cfg.Search.SmallCatalogSize,
		a.logger,
	)
	a.productUC = usecase.NewProductUC(
		productRepo,
		outboxRepo,
		txManager,
		provider,
		index,
		a.imagesInfra,
		cacheRepo,
		a.logger,
	)

	return nil
}

// initVectorIndex выбирает реализацию индекса по VECTOR_BACKEND.
func (a *App) initVectorIndex(ctx context.Context, productRepo *pgdb.ProductRepo) (usecase.VectorIndex, error) {
	switch a.cfg.VectorBackend {
	case config.VectorBackendQdrant:
		qdrantClient, err := clients.NewQdrantClient(a.cfg.Qdrant)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		a.closer.Add("qdrant", func(context.Context) error {
			return qdrantClient.Client.Close()
		})
		if err := clients.EnsureCollection(ctx, qdrantClient); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		a.logger.Infof("vector backend: qdrant collection %s", a.cfg.Qdrant.QdrantCollectionName)
		return qdrantRepo.NewVectorIndex(qdrantClient.Client, a.cfg.Qdrant, productRepo), nil
	default:
		a.logger.Infof("vector backend: pgvector")
		return pgdb.NewVectorIndex(a.db.Pool, pgdbConv.ProductConverterImpl{}, a.cfg.Embedding.Dimension), nil
	}
}

// Run поднимает HTTP и gRPC серверы, запускает outbox-воркер и ждёт сигнала остановки.
func (a *App) Run() error {
	a.worker.Start(a.ctx)

	grpcSrv := v1Grpc.NewGRPCServer(a.cfg.Grpc, a.logger)
	grpcSrv.RegisterServices(a.ctx, a.provider)

	grpcErrCh := make(chan error, 1)
	go func() {
		a.logger.Infof("gRPC server starting on %s:%s", a.cfg.Grpc.NetworkMode, a.cfg.Grpc.Port)
		if err := grpcSrv.Start(); err != nil {
			grpcErrCh <- err
		}
	}()

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, a.logger)
	router.Init(v1Http.Handlers{
		Search:         a.searchUC,
		Recommendation: a.recommendationUC,
		Product:        a.productUC,
		DB:             a.db,
		Provider:       a.provider,

		DefaultMinSimilarity: a.cfg.Search.DefaultMinSimilarity,
	})

	httpSrv := v1Http.NewServer(r, a.cfg.Http)

	httpErrCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErrCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	var appErr error
	select {
	case appErr = <-httpErrCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case appErr = <-grpcErrCh:
		a.logger.Errorf(appErr, "gRPC server fatal error")
	case <-shutdown:
		a.logger.Infof("received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Stop(shutdownCtx); err != nil {
		a.logger.Errorf(err, "HTTP server shutdown error")
	} else {
		a.logger.Infof("HTTP server stopped")
	}

	if err := grpcSrv.Stop(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			a.logger.Warnf("gRPC server shutdown timeout")
		} else {
			a.logger.Errorf(err, "gRPC server shutdown error")
		}
	}

	a.worker.Stop()
	a.waitForCleanup(shutdownCtx)

	if err := a.Close(shutdownCtx); err != nil {
		a.logger.Warnf("%v", err)
	}

	a.logger.Infof("application shutdown complete")
	return appErr
}

// Reindex дозаполняет эмбеддинги без запуска серверов.
func (a *App) Reindex(ctx context.Context, batchSize int) (*usecase.ReindexRes, error) {
	return a.productUC.ReindexEmbeddings(ctx, batchSize)
}

// Close отменяет фоновые задачи и закрывает ресурсы в обратном порядке.
func (a *App) Close(ctx context.Context) error {
	a.cancel()
	return a.closer.Close(ctx)
}

// waitForCleanup ждёт удаления загруженных объектов MinIO после сбойных загрузок.
func (a *App) waitForCleanup(ctx context.Context) {
	done := make(chan error, 1)
	go func() {
		done <- a.imagesInfra.WaitForCleanup(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			a.logger.Warnf("MinIO cleanup error: %v", err)
		}
	case <-time.After(cleanupWaitTimeout):
		a.logger.Warnf("MinIO cleanup did not finish before shutdown, some objects may remain")
	}
}

func initPGDB(ctx context.Context, logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	if err := postgres.RunMigrations(cfg.Db, logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	db, err := postgres.Connect(ctx, cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
