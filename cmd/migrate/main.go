// migrate applies or rolls back the documents schema, or reports its version.
//
//	go run ./cmd/migrate                  # up
//	go run ./cmd/migrate -direction down
//	go run ./cmd/migrate -version
package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog"

	"staffhub/backend/internal/config"
	"staffhub/backend/internal/db/migrate"
	"staffhub/backend/internal/logging"
)

func main() {
	direction := flag.String("direction", "up", "up or down")
	showVersion := flag.Bool("version", false, "print the applied schema version and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		stderrLog := zerolog.New(os.Stderr)
		stderrLog.Fatal().Err(err).Msg("config")
	}
	log := logging.Component(logging.New(os.Stdout, cfg.Env, cfg.LogLevel), "migrate")
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}

	if *showVersion {
		v, dirty, err := migrate.Version(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("read version")
		}
		log.Info().Uint("version", v).Bool("dirty", dirty).Msg("schema version")
		return
	}

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		log.Fatal().Err(err).Str("direction", *direction).Msg("migrate failed")
	}
	log.Info().Str("direction", *direction).Msg("migrations applied")
}
