package database

import (
	"database/sql"
	"farmacia-service/internal/app/config"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

func NewPostgresDB(driverConfig *config.DriverConfig) *sql.DB {
	sslMode := driverConfig.PostgresDB.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connectionString := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		driverConfig.PostgresDB.Host,
		driverConfig.PostgresDB.Port,
		driverConfig.PostgresDB.Username,
		driverConfig.PostgresDB.Password,
		driverConfig.PostgresDB.DBName,
		sslMode)

	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		log.Fatalf("Failed to open postgres database connection: %s", err.Error())
	}

	if driverConfig.PostgresDB.MaxOpenConns > 0 {
		db.SetMaxOpenConns(driverConfig.PostgresDB.MaxOpenConns)
	}
	if driverConfig.PostgresDB.MaxIdleConns > 0 {
		db.SetMaxIdleConns(driverConfig.PostgresDB.MaxIdleConns)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	err = db.Ping()
	if err != nil {
		log.Fatalf("Failed to connect to postgres database: %s", err.Error())
	}

	log.Println("Successfully connected to postgres database")

	return db
}
