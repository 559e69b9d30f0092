package config

import (
	"farmacia-service/internal/pkg/utils"

	"github.com/joho/godotenv"
)

func init() {
	godotenv.Load()
}

func NewDriverConfig() *DriverConfig {
	return &DriverConfig{
		PostgresDB: PostgresDB{
			Host:         utils.GetEnvString("POSTGRES_HOST", "localhost"),
			Port:         utils.GetEnvString("POSTGRES_PORT", "5432"),
			Username:     utils.GetEnvString("POSTGRES_USERNAME", "postgres"),
			Password:     utils.GetEnvString("POSTGRES_PASSWORD", "postgres"),
			DBName:       utils.GetEnvString("POSTGRES_DB_NAME", "farmacia"),
			SSLMode:      utils.GetEnvString("POSTGRES_SSL_MODE", "disable"),
			MaxOpenConns: utils.GetEnvInt("POSTGRES_MAX_OPEN_CONNS", 20),
			MaxIdleConns: utils.GetEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
		},
		MongoDB: MongoDB{
			Port:     utils.GetEnvString("MONGODB_PORT", "27017"),
			Host:     utils.GetEnvString("MONGODB_HOST", "localhost"),
			Username: utils.GetEnvString("MONGODB_USERNAME", "defaultUsername"),
			Password: utils.GetEnvString("MONGODB_PASSWORD", "defaultPassword"),
		},
		Redis: Redis{
			Host:     utils.GetEnvString("REDIS_HOST", "localhost"),
			Port:     utils.GetEnvString("REDIS_PORT", "6379"),
			Password: utils.GetEnvString("REDIS_PASSWORD", ""),
			DB:       utils.GetEnvInt("REDIS_DB", 0),
		},
		Logger: Logger{
			Level:               utils.GetEnvString("LOGGER_LEVEL", "debug"),
			OutputFileName:      utils.GetEnvString("LOGGER_OUTPUT_FILENAME", "logger.log"),
			OutputErrorFileName: utils.GetEnvString("LOGGER_OUTPUT_ERROR_FILENAME", "logger_error.log"),
		},
		RabbitMQ: RabbitMQ{
			Port:     utils.GetEnvString("RABBITMQ_PORT", "5672"),
			Host:     utils.GetEnvString("RABBITMQ_HOST", "localhost"),
			Username: utils.GetEnvString("RABBITMQ_USERNAME", "guest"),
			Password: utils.GetEnvString("RABBITMQ_PASSWORD", "guest"),
		},
		Minio: Minio{
			Port:     utils.GetEnvString("MINIO_PORT", "9000"),
			Host:     utils.GetEnvString("MINIO_HOST", "localhost"),
			Username: utils.GetEnvString("MINIO_USERNAME", "defaultUsername"),
			Password: utils.GetEnvString("MINIO_PASSWORD", "defaultPassword"),
			UseSSL:   utils.GetEnvBool("MINIO_USE_SSL", false),
		},
	}
}

func NewInternalConfig() *InternalConfig {
	return &InternalConfig{
		App: App{
			Env:                        utils.GetEnvString("APP_ENV", "development"),
			Port:                       utils.GetEnvString("APP_PORT", ":8080"),
			Version:                    utils.GetEnvString("APP_VERSION", "v1"),
			Address:                    utils.GetEnvString("APP_ADDRESS", "localhost"),
			Timezone:                   utils.GetEnvString("APP_TIMEZONE", "America/Argentina/Buenos_Aires"),
			EndpointPrefix:             utils.GetEnvString("APP_ENDPOINT_PREFIX", "api"),
			StorageDriver:              utils.GetEnvString("APP_STORAGE_DRIVER", "postgres"),
			MaxRequests:                utils.GetEnvInt("APP_MAX_REQUEST", 10),
			ShutdownTimeoutInSeconds:   utils.GetEnvInt("APP_SHUTDOWN_TIMEOUT", 10),
			RequestTimeoutInSeconds:    utils.GetEnvInt("APP_REQUEST_TIMEOUT_IN_SECONDS", 10),
			RequestBodyLimitInMegabyte: utils.GetEnvInt("APP_REQUEST_BODY_LIMIT_IN_MEGABYTE", 6),
			MemoryCatalogSeed:          utils.GetEnvStringSlice("APP_MEMORY_CATALOG_SEED", nil),
		},
		Schedule: AppSchedule{
			Weekdays:          utils.GetEnvStringSlice("SCHEDULE_WEEKDAYS", []string{"tuesday", "thursday"}),
			WindowStart:       utils.GetEnvString("SCHEDULE_WINDOW_START", "14:00"),
			WindowEnd:         utils.GetEnvString("SCHEDULE_WINDOW_END", "17:00"),
			SlotMinutes:       utils.GetEnvInt("SCHEDULE_SLOT_MINUTES", 6),
			SlotBufferMinutes: utils.GetEnvInt("SCHEDULE_SLOT_BUFFER_MINUTES", 0),
			DailyCapacity:     utils.GetEnvInt("SCHEDULE_DAILY_CAPACITY", 30),
			HorizonDays:       utils.GetEnvInt("SCHEDULE_HORIZON_DAYS", 366),
		},
		Quota: AppQuota{
			MonthlyLimit: utils.GetEnvInt("QUOTA_MONTHLY_LIMIT", 2),
		},
		Locker: AppLocker{
			TTLInSeconds:                utils.GetEnvInt("LOCKER_TTL_IN_SECONDS", 15),
			WaitInMilliseconds:          utils.GetEnvInt("LOCKER_WAIT_IN_MILLISECONDS", 2000),
			RetryIntervalInMilliseconds: utils.GetEnvInt("LOCKER_RETRY_INTERVAL_IN_MILLISECONDS", 25),
		},
		RabbitMQ: AppRabbitMQ{
			TurnoApprovedQueue:      utils.GetEnvString("APP_RABBITMQ_TURNO_APPROVED_QUEUE", "turno_approved_queue"),
			TurnoStatusChangedQueue: utils.GetEnvString("APP_RABBITMQ_TURNO_STATUS_CHANGED_QUEUE", "turno_status_changed_queue"),
			PublishTimeoutInSeconds: utils.GetEnvInt("APP_RABBITMQ_PUBLISH_TIMEOUT_IN_SECONDS", 5),
		},
		Minio: AppMinio{
			DocumentBucketName:              utils.GetEnvString("APP_MINIO_DOCUMENT_BUCKET_NAME", "turno-documents"),
			DocumentMaxUploadSizeInMB:       utils.GetEnvInt("APP_MINIO_DOCUMENT_MAX_UPLOAD_SIZE_IN_MB", 5),
			PreSignedUrlExpiryTimeInMinutes: utils.GetEnvInt("APP_MINIO_PRE_SIGNED_URL_EXPIRY_TIME_IN_MINUTES", 15),
		},
		MongoDB: AppMongoDB{
			DBName:                    utils.GetEnvString("APP_MONGODB_DB_NAME", "farmacia"),
			TurnoTransitionCollection: utils.GetEnvString("APP_MONGODB_TURNO_TRANSITION_COLLECTION", "turno_transitions"),
		},
		JWT: AppJWT{
			Secret: utils.GetEnvString("JWT_SECRET", "anyjwt"),
		},
		Document: AppDocument{
			HashKey: utils.GetEnvString("DOCUMENT_HASH_KEY", "change-me-document-hash-key"),
		},
	}
}
