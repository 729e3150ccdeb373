package bundb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	eventdb "github.com/about-last-night/aln-backend/app/modules/event/infrastructure/repositories"
	photodb "github.com/about-last-night/aln-backend/app/modules/photo/infrastructure/repositories"
	votedb "github.com/about-last-night/aln-backend/app/modules/voting/infrastructure/repositories"
	"github.com/about-last-night/aln-backend/config"
)

// DBService bundles the module repositories over one bun.DB connection pool.
type DBService struct {
	EventDB       eventdb.Repository
	ParticipantDB eventdb.ParticipantRepository
	PhotoDB       photodb.Repository
	VoteDB        votedb.Repository
	db            *bun.DB
}

// GetDB returns the underlying database connection pool.
func (s *DBService) GetDB() *bun.DB {
	return s.db
}

// NewBunDBService initializes a new DBService with the provided Postgres configuration.
func NewBunDBService(ctx context.Context, cfg config.PostgresConfig) (*DBService, error) {
	sqldb, err := pgConn(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	db.RegisterModel((*eventdb.Event)(nil))
	db.RegisterModel((*eventdb.Participant)(nil))
	db.RegisterModel((*photodb.Photo)(nil))
	db.RegisterModel((*votedb.Vote)(nil))

	return &DBService{
		EventDB:       eventdb.NewRepository(db),
		ParticipantDB: eventdb.NewParticipantRepository(db),
		PhotoDB:       photodb.NewRepository(db),
		VoteDB:        votedb.NewRepository(db),
		db:            db,
	}, nil
}

func pgConn(dsn string) (*sql.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))

	if err := sqldb.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return sqldb, nil
}
