package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

// Settings holds the server configuration. Values come from the environment
// (optionally via .env) and are overridden by flags that were set explicitly.
type Settings struct {
	Port        int    `env:"PORT" envDefault:"3000"`
	Host        string `env:"HOST" envDefault:"localhost"`
	ConfigDir   string `env:"CONFIG_DIR" envDefault:"configs"`
	ArenaConfig string `env:"ARENA_CONFIG"`
	Debug       bool   `env:"DEBUG"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"console"`

	NgrokEnabled   bool   `env:"NGROK_ENABLED"`
	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`
}

// Addr returns the listen address.
func (s Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// loadDotEnv loads .env from the working directory when present.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Msg("Error loading .env file")
		}
		return
	}
	log.Debug().Msg("Loaded environment variables from .env file")
}

// loadSettings parses the environment and applies any flags set on cmd.
func loadSettings(cmd *cli.Command) (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return s, fmt.Errorf("parse env: %w", err)
	}

	if cmd.IsSet("port") {
		s.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("host") {
		s.Host = cmd.String("host")
	}
	if cmd.IsSet("config-dir") {
		s.ConfigDir = cmd.String("config-dir")
	}
	if cmd.IsSet("arena") {
		s.ArenaConfig = cmd.String("arena")
	}
	if cmd.IsSet("debug") {
		s.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("log-format") {
		s.LogFormat = cmd.String("log-format")
	}
	if cmd.IsSet("ngrok") {
		s.NgrokEnabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		s.NgrokAuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		s.NgrokDomain = cmd.String("ngrok-domain")
	}

	if s.Port <= 0 || s.Port > 65535 {
		return s, fmt.Errorf("invalid port %d", s.Port)
	}
	switch strings.ToLower(s.LogFormat) {
	case "console", "json":
	default:
		return s, fmt.Errorf("invalid log format %q (use console or json)", s.LogFormat)
	}
	return s, nil
}

// setupLogging configures the global zerolog logger. The stdio MCP mode
// passes stderr so stdout stays reserved for the protocol.
func setupLogging(s Settings, out io.Writer) {
	level := zerolog.InfoLevel
	if s.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if strings.EqualFold(s.LogFormat, "json") {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
}
