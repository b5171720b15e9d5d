package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/toM7x7/LLM-mindmap/pkg/log"
)

// PostgresDatabase implements the Database interface for PostgreSQL through the pgx stdlib driver
type PostgresDatabase struct {
	BaseDatabase
}

// Open connects to PostgreSQL using a DSN or URL accepted by pgx
func (p *PostgresDatabase) Open(dataSourceName string) error {
	ctx := context.Background()
	p.logger.Info(ctx, "Opening PostgreSQL database", nil)

	db, err := sql.Open("pgx", dataSourceName)
	if err != nil {
		p.logger.Error(ctx, "Failed to open PostgreSQL database", log.Fields{"error": err})
		return fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		p.logger.Error(ctx, "Failed to verify database connection", log.Fields{"error": err})
		return fmt.Errorf("failed to verify database connection: %w", err)
	}

	p.db = db
	p.logger.Info(ctx, "PostgreSQL database opened successfully", nil)
	return nil
}

// Close closes the connection pool
func (p *PostgresDatabase) Close() error {
	p.logger.Info(context.Background(), "Closing PostgreSQL database", nil)
	if err := p.close(); err != nil {
		p.logger.Error(context.Background(), "Failed to close PostgreSQL database", log.Fields{"error": err})
		return fmt.Errorf("failed to close PostgreSQL database: %w", err)
	}
	return nil
}
