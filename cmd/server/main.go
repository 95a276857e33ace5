package main

import (
	"flag"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"cloudstash/internal/config"
	"cloudstash/internal/http/router"
	"cloudstash/internal/security"
	"cloudstash/internal/shares"
	"cloudstash/internal/storage"
	"cloudstash/internal/store"
)

func main() {
	configPath := flag.String("config", "config/app.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration:", err)
		os.Exit(1)
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging:", err)
		os.Exit(1)
	}
	defer closeLog()

	if cfg.GeneratedSecret() {
		logger.Warn().Msg("SECRET_KEY not set, using a generated key; sessions will not survive a restart")
	}

	records, err := store.Open(cfg.DatabaseFile, cfg.MaxUsers,
		logger.With().Str("component", "store").Logger())
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DatabaseFile).Msg("open record store")
	}

	blobs, err := storage.New(cfg.UploadRoot, cfg.SharedRoot)
	if err != nil {
		logger.Fatal().Err(err).Msg("prepare storage roots")
	}

	folders := shares.NewService(records, blobs)
	sessions := security.NewSessionManager([]byte(cfg.SecretKey), cfg.SessionLifetime(), cfg.Production())

	templates, err := template.ParseGlob(filepath.Join(cfg.TemplatesDir, "*.html"))
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.TemplatesDir).Msg("parse templates")
	}

	r := router.Setup(cfg, logger, records, blobs, folders, sessions, templates)

	logger.Info().
		Str("addr", cfg.Addr()).
		Str("environment", cfg.Environment).
		Int("max_users", cfg.MaxUsers).
		Str("storage_limit", humanize.IBytes(uint64(cfg.StorageLimitBytes()))).
		Msg("cloudstash listening")
	if err := http.ListenAndServe(cfg.Addr(), r); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

// newLogger picks the log sink: a file when configured, plain JSON on
// stderr in production, and a console writer for development.
func newLogger(cfg *config.Config) (zerolog.Logger, func(), error) {
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), func() {}, err
		}
		return zerolog.New(f).With().Timestamp().Logger(), func() { f.Close() }, nil
	}
	if cfg.Production() {
		return zerolog.New(os.Stderr).With().Timestamp().Logger(), func() {}, nil
	}
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(console).With().Timestamp().Logger(), func() {}, nil
}
