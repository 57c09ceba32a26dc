package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/careerkeeper/internal/client/remote"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenRemote connects to the remote PostgreSQL store and applies its schema.
// A failed ping yields ErrUnavailable together with the still open handle;
// the caller owns it and must migrate once the server answers.
func OpenRemote(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return db, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := remote.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return db, nil
}
