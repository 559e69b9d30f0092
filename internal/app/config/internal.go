package config

import (
	"fmt"
	"time"
)

type InternalConfig struct {
	App      App
	Schedule AppSchedule
	Quota    AppQuota
	Locker   AppLocker
	RabbitMQ AppRabbitMQ
	Minio    AppMinio
	MongoDB  AppMongoDB
	JWT      AppJWT
	Document AppDocument
}

type App struct {
	Env                        string
	Port                       string
	Version                    string
	Address                    string
	Timezone                   string
	EndpointPrefix             string
	StorageDriver              string
	MaxRequests                int
	ShutdownTimeoutInSeconds   int
	RequestTimeoutInSeconds    int
	RequestBodyLimitInMegabyte int
	// MemoryCatalogSeed lists kind:id:stock entries loaded by the memory driver.
	MemoryCatalogSeed []string
}

// Location loads the configured timezone. Every calendar computation of the
// scheduling core happens in this location.
func (a App) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", a.Timezone, err)
	}
	return loc, nil
}

func (a App) RequestTimeout() time.Duration {
	if a.RequestTimeoutInSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(a.RequestTimeoutInSeconds) * time.Second
}

// AppSchedule describes the weekly pickup window.
type AppSchedule struct {
	Weekdays          []string
	WindowStart       string
	WindowEnd         string
	SlotMinutes       int
	SlotBufferMinutes int
	DailyCapacity     int
	HorizonDays       int
}

type AppQuota struct {
	MonthlyLimit int
}

type AppLocker struct {
	TTLInSeconds                int
	WaitInMilliseconds          int
	RetryIntervalInMilliseconds int
}

func (l AppLocker) TTL() time.Duration {
	return time.Duration(l.TTLInSeconds) * time.Second
}

func (l AppLocker) Wait() time.Duration {
	return time.Duration(l.WaitInMilliseconds) * time.Millisecond
}

func (l AppLocker) RetryInterval() time.Duration {
	return time.Duration(l.RetryIntervalInMilliseconds) * time.Millisecond
}

type AppRabbitMQ struct {
	TurnoApprovedQueue      string
	TurnoStatusChangedQueue string
	PublishTimeoutInSeconds int
}

type AppMinio struct {
	DocumentBucketName              string
	DocumentMaxUploadSizeInMB       int
	PreSignedUrlExpiryTimeInMinutes int
}

type AppMongoDB struct {
	DBName                    string
	TurnoTransitionCollection string
}

type AppJWT struct {
	Secret string
}

type AppDocument struct {
	HashKey string
}
