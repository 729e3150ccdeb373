package eventmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	eventdb "github.com/about-last-night/aln-backend/app/modules/event/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewCreateTable().Model((*eventdb.Event)(nil)).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create events table: %w", err)
		}

		_, err = db.NewCreateTable().Model((*eventdb.Participant)(nil)).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create event_participants table: %w", err)
		}

		// Natural key: rejoining with the same name returns the same row.
		_, err = db.ExecContext(ctx, `
			CREATE UNIQUE INDEX IF NOT EXISTS event_participants_event_user_idx
			ON event_participants (event_id, user_name)
		`)
		if err != nil {
			return fmt.Errorf("failed to create participant natural key index: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDropTable().Model((*eventdb.Participant)(nil)).IfExists().Cascade().Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop event_participants table: %w", err)
		}

		_, err = db.NewDropTable().Model((*eventdb.Event)(nil)).IfExists().Cascade().Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop events table: %w", err)
		}

		return nil
	})
}
