package photomigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	photodb "github.com/about-last-night/aln-backend/app/modules/photo/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewCreateTable().Model((*photodb.Photo)(nil)).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create photos table: %w", err)
		}

		_, err = db.ExecContext(ctx, `
			CREATE INDEX IF NOT EXISTS photos_event_idx
			ON photos (event_id, taken_at DESC)
		`)
		if err != nil {
			return fmt.Errorf("failed to create photo event index: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDropTable().Model((*photodb.Photo)(nil)).IfExists().Cascade().Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop photos table: %w", err)
		}
		return nil
	})
}
