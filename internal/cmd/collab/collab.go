// Package collab parses collab command flags and starts the collaboration
// service.
package collab

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/crosspromo/internal/platform/cmd"
	server "github.com/louisbranch/crosspromo/internal/services/collab/app"
	"github.com/louisbranch/crosspromo/internal/services/collab/lifecycle"
)

// Config holds collab command configuration.
type Config struct {
	HTTPAddr      string `env:"COLLAB_HTTP_ADDR" envDefault:":8080"`
	HealthAddr    string `env:"COLLAB_HEALTH_ADDR" envDefault:":8081"`
	DBPath        string `env:"COLLAB_DB_PATH" envDefault:"data/collab.db"`
	LoginRoute    string `env:"COLLAB_LOGIN_ROUTE" envDefault:"/login"`
	ApplyRoute    string `env:"COLLAB_APPLY_ROUTE" envDefault:"/collaborations/apply"`
	ReceivedRoute string `env:"COLLAB_RECEIVED_ROUTE" envDefault:"/mypage/received"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The collab HTTP listen address")
	fs.StringVar(&cfg.HealthAddr, "health-addr", cfg.HealthAddr, "The gRPC health listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Path to the collab SQLite database")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) serverConfig() server.Config {
	return server.Config{
		HTTPAddr:   c.HTTPAddr,
		HealthAddr: c.HealthAddr,
		DBPath:     c.DBPath,
		Routes: lifecycle.Routes{
			Login:    c.LoginRoute,
			Apply:    c.ApplyRoute,
			Received: c.ReceivedRoute,
		},
	}
}

// Run starts the collaboration service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceCollab, func(ctx context.Context) error {
		return server.Run(ctx, cfg.serverConfig())
	})
}
