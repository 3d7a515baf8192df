// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/boombox/internal/api/connect"
	"github.com/osa030/boombox/internal/app/catalog"
	"github.com/osa030/boombox/internal/app/filter"
	"github.com/osa030/boombox/internal/app/notification"
	"github.com/osa030/boombox/internal/app/playback"
	"github.com/osa030/boombox/internal/domain/song"
	"github.com/osa030/boombox/internal/infra/config"
	"github.com/osa030/boombox/internal/infra/engine"
	"github.com/osa030/boombox/internal/infra/logger"
	"github.com/osa030/boombox/internal/infra/spotify"
)

var (
	app        = kingpin.New("boombox-server", "boombox music player server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-songs command
	listSongsCmd = app.Command("list-songs", "Print the song catalog and exit")

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available catalog filters and exit")
)

func init() {
	// start command (default)
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

	if command == listSongsCmd.FullCommand() {
		songs, err := loadCatalog(context.Background(), cfg)
		if err != nil {
			zlog.Fatal().Msgf("Failed to load catalog: %v", err)
		}
		printSongs(songs)
		return
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	songs, err := loadCatalog(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	if len(songs) == 0 {
		zlog.Warn().Msg("Catalog is empty, nothing can be played")
	}

	durations := lo.SliceToMap(songs, func(s song.Song) (string, time.Duration) {
		return s.Source, s.Duration
	})
	audioEngine, err := engine.New(cfg.Engine, durations)
	if err != nil {
		return fmt.Errorf("failed to create audio engine: %w", err)
	}

	controller := playback.NewController(audioEngine, songs, playback.Config{
		DefaultPlaylistName: cfg.Player.DefaultPlaylistName,
		InitialVolume:       cfg.Player.Volume(),
		RestartThreshold:    cfg.Player.RestartThreshold(),
		AutoAdvance:         cfg.Player.AutoAdvance,
		EventBufferSize:     cfg.Player.EventBuffer,
	})

	notifications := notification.NewManager()
	pumpCtx, stopPump := context.WithCancel(ctx)
	defer stopPump()
	go notifications.Run(pumpCtx, controller.Events())

	controller.Preload(ctx)

	playerService := apiconnect.NewPlayerService(controller, notifications)

	mux := http.NewServeMux()
	playerPath, playerHandler := apiconnect.NewPlayerServiceHandler(
		playerService,
		connect.WithInterceptors(apiconnect.NewControlTokenInterceptor(cfg.Server.ControlToken)),
	)
	mux.Handle(playerPath, playerHandler)
	if cfg.Server.ControlToken == "" {
		zlog.Warn().Msg("No control token configured, remote control is open to anyone")
	}

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		controller.Close(ctx)
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// End subscriptions first so Shutdown does not wait on open streams
	playerService.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	// Releases the engine resource and closes the event channel
	controller.Close(shutdownCtx)
	notifications.Close()

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// loadCatalog assembles the song catalog from the configured providers.
func loadCatalog(ctx context.Context, cfg *config.Config) ([]song.Song, error) {
	// Keep the interface nil unless a source needs it
	var spotifyClient catalog.SpotifyClient
	if cfg.UsesSpotify() {
		client, err := spotify.New(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			RefreshToken: cfg.Spotify.RefreshToken,
			Market:       cfg.Spotify.Market,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Spotify client: %w", err)
		}
		spotifyClient = client
	}

	chain, err := catalog.NewChainFromConfig(cfg, spotifyClient)
	if err != nil {
		return nil, err
	}

	filters, err := filter.NewChainFromConfig(cfg.Catalog.Filters)
	if err != nil {
		return nil, fmt.Errorf("invalid filter config: %w", err)
	}

	songs, err := chain.Songs(ctx)
	if err != nil {
		return nil, err
	}
	songs = filters.Apply(ctx, songs)

	zlog.Info().Msgf("Catalog loaded: songs=%d providers=%s", len(songs), chain.Name())
	return songs, nil
}

// printFilters prints available filters.
func printFilters() {
	registry := filter.GetRegistered()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)

	fmt.Println("Available Filters:")
	for _, name := range names {
		f := registry[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-24s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// printSongs prints the catalog.
func printSongs(songs []song.Song) {
	fmt.Printf("Catalog (%d songs):\n", len(songs))
	for _, s := range songs {
		fmt.Printf("  %s %-24s %5s  %s\n", s.Glyph, s.ID, song.FormatClock(s.Duration), s.Label())
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
