package helper

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds the PostgreSQL connection settings
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// Database bundles the connection pool with its logger
type Database struct {
	Name     string
	Logger   *slog.Logger
	Instance *sql.DB
}

// NewDatabaseConfiguration reads the connection settings from the environment.
// A .env file in the working directory is loaded first if present.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	_ = godotenv.Load()

	config := &DatabaseConfiguration{
		Host:     os.Getenv("TECHRAG_DB_HOST"),
		Port:     os.Getenv("TECHRAG_DB_PORT"),
		Database: os.Getenv("TECHRAG_DB_DATABASE"),
		Username: os.Getenv("TECHRAG_DB_USERNAME"),
		Password: os.Getenv("TECHRAG_DB_PASSWORD"),
		Schema:   os.Getenv("TECHRAG_DB_SCHEMA"),
		SSLMode:  os.Getenv("TECHRAG_DB_SSLMODE"),
	}

	if len(config.Host) == 0 || len(config.Port) == 0 || len(config.Database) == 0 || len(config.Username) == 0 || len(config.Password) == 0 {
		return nil, NewError("database configuration", fmt.Errorf("TECHRAG_DB_HOST, TECHRAG_DB_PORT, TECHRAG_DB_DATABASE, TECHRAG_DB_USERNAME and TECHRAG_DB_PASSWORD must be set"))
	}
	if len(config.Schema) == 0 {
		config.Schema = "public"
	}
	if len(config.SSLMode) == 0 {
		config.SSLMode = "require"
	}

	return config, nil
}

// DSN returns the lib/pq connection string.
func (c *DatabaseConfiguration) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=%s search_path=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, c.SSLMode, c.Schema,
	)
}

// NewDatabase opens the connection pool and waits until the database answers.
// It panics if the database is not reachable.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := connectToDatabase(config, logger)
	if err != nil {
		log.Panicf("error connecting to database %s: %v", name, err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host))

	return &Database{
		Name:     name,
		Logger:   logger,
		Instance: db,
	}
}

// NewTestDatabase opens a connection for tests with a debug logger.
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	logger := NewLogger(os.Stdout, slog.LevelDebug)
	return NewDatabase("test", config, logger)
}

func connectToDatabase(config *DatabaseConfiguration, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, NewError("open", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	var pingErr error
	for attempt := 1; attempt <= 10; attempt++ {
		pingErr = db.Ping()
		if pingErr == nil {
			return db, nil
		}
		logger.Warn("Database not ready, retrying", slog.Int("attempt", attempt), slog.Any("error", pingErr))
		time.Sleep(time.Duration(attempt) * 200 * time.Millisecond)
	}

	_ = db.Close()
	return nil, NewError("ping", pingErr)
}

// Close closes the underlying connection pool.
func (d *Database) Close() error {
	if d == nil || d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}
