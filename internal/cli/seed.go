package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"smart-board-game/internal/app"
	"smart-board-game/internal/config"
	"smart-board-game/internal/infra/postgres"
)

// NewSeedCmd loads the built-in rounds and questions into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample rounds and questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithEnv(*configPath)
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "seed even when questions already exist")
	return cmd
}

func runSeed(ctx context.Context, cfg config.Config, force bool) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewCatalogRepository(pool)
	n, err := repo.CountQuestions(ctx)
	if err != nil {
		return err
	}
	if n > 0 && !force {
		log.Printf("catalog already has %d question(s), skipping seed", n)
		return nil
	}
	return seedCatalog(ctx, repo)
}

func seedCatalog(ctx context.Context, repo app.CatalogRepository) error {
	rounds := app.SampleRounds()
	for _, round := range rounds {
		if _, err := repo.CreateRound(ctx, round); err != nil {
			return fmt.Errorf("seed round %s: %w", round.Name, err)
		}
	}
	questions := app.SampleQuestions()
	for _, q := range questions {
		if _, err := repo.CreateQuestion(ctx, q); err != nil {
			return fmt.Errorf("seed question %s: %w", q.ID, err)
		}
	}
	log.Printf("seeded %d round(s) and %d question(s)", len(rounds), len(questions))
	return nil
}
