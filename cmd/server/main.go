// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/fitbox/internal/api/connect"
	"github.com/osa030/fitbox/internal/app/filter"
	"github.com/osa030/fitbox/internal/app/generator"
	"github.com/osa030/fitbox/internal/app/source"
	"github.com/osa030/fitbox/internal/infra/config"
	"github.com/osa030/fitbox/internal/infra/logger"
	"github.com/osa030/fitbox/internal/infra/spotify"
)

var (
	app        = kingpin.New("fitbox-server", "fitbox playlist generation server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
)

func init() {
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %+v", err)
		os.Exit(1)
	}
}

// run wires the server and blocks until a shutdown signal or a server error.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	filters, err := filter.NewChainFromConfig(cfg)
	if err != nil {
		return errors.Wrap(err, "invalid filter config")
	}

	spotifyClient, err := spotify.New(ctx, spotify.Config{
		ClientID:          cfg.Spotify.ClientID,
		ClientSecret:      cfg.Spotify.ClientSecret,
		RefreshToken:      cfg.Spotify.RefreshToken,
		Market:            cfg.Spotify.Market,
		RequestsPerSecond: cfg.Spotify.RequestsPerSecond,
		PublicPlaylists:   cfg.Generation.Public,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create Spotify client")
	}

	sources, err := source.NewChainFromConfig(cfg, spotifyClient)
	if err != nil {
		return errors.Wrap(err, "invalid source config")
	}

	if err := validatePlaylists(ctx, sources.ConfiguredPlaylists(), spotifyClient); err != nil {
		return err
	}

	genCfg := generator.ConfigFrom(cfg)
	genCfg.Limits.PlaylistFallback = len(sources.ConfiguredPlaylists()) > 0
	gen := generator.New(genCfg, sources, filters, spotifyClient)

	mux := http.NewServeMux()
	path, handler := apiconnect.NewPlaylistServiceHandler(
		apiconnect.NewPlaylistService(gen, cfg),
		connect.WithInterceptors(apiconnect.NewTokenInterceptor(cfg)),
	)
	mux.Handle(path, handler)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s filters=%d", cfg.Server.Addr, len(filters.Filters()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Give the listener a moment before running hooks
	time.Sleep(100 * time.Millisecond)
	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	select {
	case <-ctx.Done():
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msgf("Server stopped: generations=%d", gen.Registry().Count())

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	registry := filter.GetRegistered()
	for _, name := range filter.RegisteredNames() {
		f := registry[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// validatePlaylists checks that the configured fallback playlists exist on
// Spotify. Transient errors are retried by the client.
func validatePlaylists(ctx context.Context, urls []string, spotifyClient *spotify.Client) error {
	if len(urls) == 0 {
		zlog.Info().Msg("No fallback playlist configured, playlist requests must carry a URL")
		return nil
	}

	var errs []string
	for _, url := range urls {
		zlog.Info().Msgf("Validating playlist: url=%s", url)
		if err := spotifyClient.CheckPlaylistExists(ctx, url); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", url, err))
			continue
		}
		zlog.Info().Msgf("Playlist validated: url=%s", url)
	}

	if len(errs) > 0 {
		return errors.Newf("playlist validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// sh -c allows redirection and pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
