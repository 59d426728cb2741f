package client

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"rfid-admin-service/internal/config"
	"rfid-admin-service/internal/util"
)

// MySQLClient owns the connection pool against the admin database. The
// repositories only ever issue CALLs to stored procedures and parameterized
// UPDATEs through it.
type MySQLClient struct {
	DB     *sql.DB
	config *config.DatabaseConfig
}

func NewMySQLClient(cfg *config.Config) (*MySQLClient, error) {
	dbConfig := cfg.Database

	db, err := sql.Open("mysql", dbConfig.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql connection: %w", err)
	}

	db.SetMaxOpenConns(dbConfig.MaxOpenConns)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping mysql: %w", err)
	}

	util.Info("MySQL client initialized",
		util.String("host", dbConfig.Host),
		util.Int("port", dbConfig.Port),
		util.String("database", dbConfig.Name),
	)

	return &MySQLClient{
		DB:     db,
		config: &dbConfig,
	}, nil
}

func (c *MySQLClient) HealthCheck(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("mysql health check failed: %w", err)
	}
	return nil
}

func (c *MySQLClient) Close() error {
	if err := c.DB.Close(); err != nil {
		util.Error("Failed to close MySQL client", util.ErrorField(err))
		return err
	}
	util.Info("MySQL client closed")
	return nil
}
