package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"

	"agromart-be/internal/config"

	"github.com/lib/pq"
)

// ErrStorageUnavailable marks transient infrastructure failures. Callers
// may retry with backoff; every other repository error is terminal.
var ErrStorageUnavailable = errors.New("storage unavailable")

func buildDSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)
}

func newDatabaseWithDriver(cfg *config.Config, driver string) (*sql.DB, error) {
	db, err := sql.Open(driver, buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return db, nil
}

func NewDatabase(cfg *config.Config) (*sql.DB, error) {
	return newDatabaseWithDriver(cfg, "postgres")
}

func InitDB(cfg *config.Config) *sql.DB {
	db, err := NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize DB: %v", err)
	}

	log.Println("Database connection established")
	return db
}

// Classify wraps driver-level connection failures as ErrStorageUnavailable
// so services can surface a retryable error to the caller. Constraint and
// query errors pass through untouched.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		// 08 connection exception, 53 insufficient resources, 57 operator intervention
		case "08", "53", "57":
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
	}

	return err
}
