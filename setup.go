package crmauth

import (
	"context"
	"database/sql"
	"io/fs"

	"github.com/goliatone/go-errors"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// RegisterModels registers every model with the persistence layer. The
// TeamMember join model must be registered for the m2m relation to load.
func RegisterModels() {
	persistence.RegisterModel((*User)(nil))
	persistence.RegisterModel((*Role)(nil))
	persistence.RegisterModel((*Team)(nil))
	persistence.RegisterModel((*TeamMember)(nil))
}

// SetupPersistence opens a sqlite-backed client, registers the embedded
// migrations, and runs them. The returned client owns the bun.DB handle.
func SetupPersistence(ctx context.Context, cfg persistence.Config, dsn string) (*persistence.Client, error) {
	db, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open database")
	}

	RegisterModels()

	client, err := persistence.New(cfg, db, sqlitedialect.New())
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create persistence client")
	}

	migrations, err := fs.Sub(GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to mount migrations")
	}

	client.RegisterDialectMigrations(
		migrations,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "migration dialect validation failed")
	}

	if err := client.Migrate(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "migrations failed")
	}

	return client, nil
}

// NewRepositoryManagerFromClient builds the repository layer over a
// migrated persistence client.
func NewRepositoryManagerFromClient(client *persistence.Client) RepositoryManager {
	return NewRepositoryManager(client.DB())
}

// RegisterTeamMemberModel registers the join model on a raw bun.DB for
// callers that bypass the persistence client.
func RegisterTeamMemberModel(db *bun.DB) {
	db.RegisterModel((*TeamMember)(nil))
}
