package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/docsorter/backend/internal/api"
	"github.com/docsorter/backend/internal/session"
	"github.com/docsorter/backend/internal/upload"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		return a.serve(cmd.Context())
	},
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	store, err := a.newStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	runs := session.NewManager(session.ManagerConfig{
		Taxonomy:     a.taxonomy,
		Codes:        a.codes,
		NewRemote:    func(apiKey string) upload.Remote { return a.newRemote(apiKey) },
		DocumentKind: cfg.Remote.DocumentKind,
		MaxRuns:      cfg.Session.MaxRuns,
		Logger:       a.log,
	})

	// Start background run cleanup
	runs.StartCleanup(ctx,
		time.Duration(cfg.Session.CleanupIntervalMinutes)*time.Minute,
		time.Duration(cfg.Session.RunTimeoutMinutes)*time.Minute)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	origins := strings.Split(cfg.Server.AllowOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	if len(origins) == 1 && origins[0] == "" {
		origins = nil
	}

	api.SetupMiddleware(e, api.MiddlewareConfig{
		Logger:         a.log,
		RequestLogging: cfg.Advanced.EnableRequestLogging,
		BodyLimit:      cfg.Server.BodyLimit,
		EnableCORS:     cfg.Server.EnableCORS,
		AllowOrigins:   origins,
	})
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Runs:     runs,
		Archives: store,
		Projects: func(apiKey string) api.ProjectLister { return a.newRemote(apiKey) },
		Version:  Version,
		Logger:   a.log,
	}))

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           DocSorter Server                                ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Storage:    %-45s║\n", cfg.Storage.Backend)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", a.configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.StartServer(s)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
