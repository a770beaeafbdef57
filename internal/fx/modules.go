package fx

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"royale-tracker/internal/api"
	"royale-tracker/internal/config"
	"royale-tracker/internal/database"
	"royale-tracker/internal/logger"
	"royale-tracker/internal/repository"
	"royale-tracker/internal/server"
	"royale-tracker/internal/service"
)

func ProvideBattleStatsService(repo *repository.BattleRepository, log zerolog.Logger) *service.BattleStatsService {
	return service.NewBattleStatsService(repo, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewBattleRepository),
	// api client
	fx.Provide(api.NewClashClient),
	// svc
	fx.Provide(ProvideBattleStatsService),
	fx.Provide(service.NewPlayerService),
	// server
	fx.Provide(server.New),
)
