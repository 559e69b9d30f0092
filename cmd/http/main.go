package main

import (
	"context"
	"farmacia-service/cmd/migration"
	"farmacia-service/internal/app/config"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/app/delivery/http/controllers"
	"farmacia-service/internal/app/delivery/http/middlewares"
	"farmacia-service/internal/app/delivery/http/routers"
	"farmacia-service/internal/app/drivers/database"
	"farmacia-service/internal/app/drivers/logger"
	"farmacia-service/internal/app/drivers/messaging"
	"farmacia-service/internal/app/drivers/storage"
	"farmacia-service/internal/app/services/core/blockeddates"
	"farmacia-service/internal/app/services/core/inventory"
	"farmacia-service/internal/app/services/core/quota"
	"farmacia-service/internal/app/services/core/slot"
	"farmacia-service/internal/app/services/core/transactions"
	"farmacia-service/internal/app/services/core/turnos"
	"farmacia-service/internal/app/services/shared/eventqueue"
	"farmacia-service/internal/app/services/shared/hasher"
	"farmacia-service/internal/app/services/shared/locker"
	"farmacia-service/internal/app/services/shared/memstore"
	"farmacia-service/internal/app/services/shared/redis"
	sharedStorage "farmacia-service/internal/app/services/shared/storage"
	"farmacia-service/internal/pkg/constvars"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Version sets the default build version
var Version = "develop"

// Tag sets the default latest commit tag
var Tag = "0.0.1-rc"

func main() {
	driverConfig := config.NewDriverConfig()
	internalConfig := config.NewInternalConfig()

	log := logger.NewZapLogger(driverConfig, internalConfig)
	log.Info("Starting farmacia service",
		zap.String("version", Version),
		zap.String("tag", Tag),
		zap.String("storage_driver", internalConfig.App.StorageDriver),
	)

	location, err := internalConfig.App.Location()
	if err != nil {
		log.Fatal("Error loading location", zap.Error(err))
	}
	time.Local = location

	bootstrap := &config.Bootstrap{
		Router:         chi.NewRouter(),
		Logger:         log,
		DriverConfig:   driverConfig,
		InternalConfig: internalConfig,
	}

	if err := bootstrapingTheApp(bootstrap, location); err != nil {
		log.Fatal("Failed to bootstrap the app", zap.Error(err))
	}

	server := &http.Server{
		Addr:              internalConfig.App.Port,
		Handler:           bootstrap.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", zap.String("address", internalConfig.App.Port))
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c

	log.Info("Waiting for pending requests that already received by server to be processed..")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(internalConfig.App.ShutdownTimeoutInSeconds),
	)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := bootstrap.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to release resources", zap.Error(err))
	}

	log.Info("Server exiting")
}

// engineDependencies are the storage-specific pieces the turno engine runs on.
type engineDependencies struct {
	transactor      contracts.Transactor
	turnoRepository contracts.TurnoRepository
	documentRepo    contracts.TurnoDocumentRepository
	transitionRepo  contracts.TransitionLogRepository
	slotRepository  contracts.SlotRepository
	catalogRepo     contracts.CatalogStockRepository
	blockedDateRepo contracts.BlockedDateRepository
	lockerService   contracts.LockerService
	eventPublisher  contracts.TurnoEventPublisher
	documentStorage contracts.Storage
}

func bootstrapingTheApp(bootstrap *config.Bootstrap, location *time.Location) error {
	var (
		deps *engineDependencies
		err  error
	)
	switch bootstrap.InternalConfig.App.StorageDriver {
	case constvars.StorageDriverMem:
		deps, err = memoryDependencies(bootstrap)
	default:
		deps, err = postgresDependencies(bootstrap, location)
	}
	if err != nil {
		return err
	}

	internalConfig := bootstrap.InternalConfig
	log := bootstrap.Logger

	schedule, err := slot.NewSchedule(internalConfig.Schedule, location)
	if err != nil {
		return err
	}

	documentHasher, err := hasher.NewDocumentHasher(internalConfig.Document.HashKey)
	if err != nil {
		return err
	}

	lockOptions := locker.Options{
		TTL:           internalConfig.Locker.TTL(),
		Wait:          internalConfig.Locker.Wait(),
		RetryInterval: internalConfig.Locker.RetryInterval(),
	}

	// Blocked dates
	blockedDateUsecase := blockeddates.NewBlockedDateUsecase(deps.blockedDateRepo, deps.lockerService, lockOptions, location, log)

	// Slots
	slotAllocator := slot.NewSlotAllocator(deps.slotRepository, blockedDateUsecase, deps.lockerService, lockOptions, schedule, log)

	// Quota
	quotaEnforcer := quota.NewQuotaEnforcer(deps.turnoRepository, location, internalConfig.Quota.MonthlyLimit, log)

	// Inventory
	inventoryGateway := inventory.NewInventoryGateway(deps.catalogRepo, log)

	// Turnos
	turnoUsecase := turnos.NewTurnoUsecase(
		deps.transactor,
		deps.turnoRepository,
		deps.documentRepo,
		deps.transitionRepo,
		slotAllocator,
		quotaEnforcer,
		inventoryGateway,
		documentHasher,
		deps.eventPublisher,
		deps.documentStorage,
		deps.lockerService,
		lockOptions,
		internalConfig,
		log,
	)

	// Middlewares
	middlewares := middlewares.NewMiddlewares(log, internalConfig)

	// Controllers
	turnoController := controllers.NewTurnoController(log, turnoUsecase, internalConfig.Minio.DocumentMaxUploadSizeInMB)
	availabilityController := controllers.NewAvailabilityController(log, turnoUsecase, slotAllocator, location)
	blockedDateController := controllers.NewBlockedDateController(log, blockedDateUsecase, location)

	routers.SetupRoutes(bootstrap.Router, internalConfig, middlewares, turnoController, availabilityController, blockedDateController)
	return nil
}

func postgresDependencies(bootstrap *config.Bootstrap, location *time.Location) (*engineDependencies, error) {
	log := bootstrap.Logger
	internalConfig := bootstrap.InternalConfig

	bootstrap.PostgresDB = database.NewPostgresDB(bootstrap.DriverConfig)
	migration.Run(bootstrap.PostgresDB)

	bootstrap.MongoDB = database.NewMongoDB(bootstrap.DriverConfig)
	bootstrap.Redis = database.NewRedisClient(bootstrap.DriverConfig)
	bootstrap.RabbitMQ = messaging.NewRabbitMQ(bootstrap.DriverConfig)
	bootstrap.Minio = storage.NewMinio(bootstrap.DriverConfig, internalConfig.Minio.DocumentBucketName)

	// Event queue
	eventQueue, err := eventqueue.NewService(bootstrap.RabbitMQ, log, internalConfig.RabbitMQ)
	if err != nil {
		return nil, err
	}
	bootstrap.PublisherStop = eventQueue.Close

	// Transition log
	transitionRepository := turnos.NewTransitionLogMongoRepository(
		bootstrap.MongoDB,
		internalConfig.MongoDB.DBName,
		internalConfig.MongoDB.TurnoTransitionCollection,
	)
	if indexed, ok := transitionRepository.(*turnos.TransitionLogMongoRepository); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := indexed.EnsureIndexes(ctx); err != nil {
			log.Warn("Failed to ensure turno transition indexes", zap.Error(err))
		}
	}

	// Redis
	redisRepository := redis.NewRedisRepository(bootstrap.Redis)

	return &engineDependencies{
		transactor:      transactions.NewPostgresTransactor(bootstrap.PostgresDB, log),
		turnoRepository: turnos.NewTurnoPostgresRepository(bootstrap.PostgresDB, location, log),
		documentRepo:    turnos.NewTurnoDocumentPostgresRepository(bootstrap.PostgresDB, log),
		transitionRepo:  transitionRepository,
		slotRepository:  slot.NewSlotPostgresRepository(bootstrap.PostgresDB, log),
		catalogRepo:     inventory.NewCatalogPostgresRepository(bootstrap.PostgresDB, log),
		blockedDateRepo: blockeddates.NewBlockedDatePostgresRepository(bootstrap.PostgresDB, location, log),
		lockerService:   locker.NewLockService(redisRepository, log),
		eventPublisher:  eventQueue,
		documentStorage: sharedStorage.NewMinioStorage(bootstrap.Minio, log),
	}, nil
}

// memoryDependencies runs the whole engine in process. Nothing survives a
// restart; it backs local development and demos.
func memoryDependencies(bootstrap *config.Bootstrap) (*engineDependencies, error) {
	log := bootstrap.Logger

	catalog, err := memstore.ParseCatalogSeed(bootstrap.InternalConfig.App.MemoryCatalogSeed)
	if err != nil {
		return nil, err
	}
	store := memstore.New()
	store.SeedCatalog(catalog...)
	log.Info("Seeded in-memory catalog", zap.Int("catalog_item_count", len(catalog)))

	return &engineDependencies{
		transactor:      store,
		turnoRepository: store,
		documentRepo:    store,
		transitionRepo:  store,
		slotRepository:  store,
		catalogRepo:     store,
		blockedDateRepo: store,
		lockerService:   locker.NewMemoryLocker(),
		eventPublisher:  eventqueue.NewLogPublisher(log),
		documentStorage: sharedStorage.NewMemoryStorage(),
	}, nil
}
