package votemigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	votedb "github.com/about-last-night/aln-backend/app/modules/voting/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewCreateTable().Model((*votedb.Vote)(nil)).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create votes table: %w", err)
		}

		// Single voting is enforced here, not in application code.
		_, err = db.ExecContext(ctx, `
			CREATE UNIQUE INDEX IF NOT EXISTS votes_photo_voter_category_idx
			ON votes (photo_id, voter_participant_id, category)
		`)
		if err != nil {
			return fmt.Errorf("failed to create vote uniqueness index: %w", err)
		}

		_, err = db.ExecContext(ctx, `
			CREATE INDEX IF NOT EXISTS votes_event_idx
			ON votes (event_id, category)
		`)
		if err != nil {
			return fmt.Errorf("failed to create vote event index: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDropTable().Model((*votedb.Vote)(nil)).IfExists().Cascade().Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop votes table: %w", err)
		}
		return nil
	})
}
