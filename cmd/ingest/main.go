// Command ingest is the battle-tracker data ingestion CLI.
//
// Usage:
//
//	royale-ingest players "#TAG1" "#TAG2"
//	royale-ingest profile NICKNAME
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"royale-tracker/internal/api"
	"royale-tracker/internal/config"
	"royale-tracker/internal/database"
	"royale-tracker/internal/logger"
	"royale-tracker/internal/repository"
	"royale-tracker/internal/service"
)

func main() {
	var logLevel string

	root := &cobra.Command{
		Use:   "royale-ingest",
		Short: "Battle tracker data ingestion CLI",
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")

	root.AddCommand(playersCmd(&logLevel))
	root.AddCommand(profileCmd(&logLevel))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func playersCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "players TAG [TAG...]",
		Short: "Fetch and store profiles and battle logs for player tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(*logLevel, func(ctx context.Context, svc *service.PlayerService, log zerolog.Logger) error {
				start := time.Now()
				results, err := svc.SaveAll(ctx, args)
				if err != nil {
					return err
				}
				for _, r := range results {
					log.Info().
						Str("nickname", r.Nickname).
						Int("fetched", r.BattlesFetched).
						Int("inserted", r.BattlesInserted).
						Int("skipped", r.BattlesSkipped).
						Msg("player ingested")
				}
				log.Info().
					Int("requested", len(args)).
					Int("ingested", len(results)).
					Dur("duration", time.Since(start).Round(time.Millisecond)).
					Msg("ingestion finished")
				return nil
			})
		},
	}
}

func profileCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "profile NICKNAME",
		Short: "Print stored profiles matching a nickname",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(*logLevel, func(ctx context.Context, svc *service.PlayerService, log zerolog.Logger) error {
				players, err := svc.Profile(ctx, args[0])
				if err != nil {
					return err
				}
				if len(players) == 0 {
					return fmt.Errorf("no stored player matches %q", args[0])
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(players)
			})
		},
	}
}

// run handles config loading, database setup, and context cancellation.
func run(logLevel string, fn func(ctx context.Context, svc *service.PlayerService, log zerolog.Logger) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	log := logger.WithLevel(logLevel)

	cfg, err := config.Load(log)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.New(cfg, log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	svc := service.NewPlayerService(
		api.NewClashClient(cfg),
		repository.NewPlayerRepository(db, log),
		repository.NewBattleRepository(db, log),
		log,
	)
	return fn(ctx, svc, log)
}
