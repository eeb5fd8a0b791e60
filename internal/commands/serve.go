package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/justestif/skate-sessions/internal/auth"
	"github.com/justestif/skate-sessions/internal/config"
	"github.com/justestif/skate-sessions/internal/sessions"
	"github.com/justestif/skate-sessions/internal/web"
	assets "github.com/justestif/skate-sessions/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web application",
	Long: `Run the web application. The schema is migrated on startup and expired
login sessions are swept in the background until the server stops.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		setupLogging(cfg)

		ctx := cmd.Context()
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}

		authClient := auth.NewClient(auth.Config{
			URL:            cfg.SupabaseURL,
			AnonKey:        cfg.SupabaseAnonKey,
			ServiceRoleKey: cfg.SupabaseServiceRoleKey,
		})

		var logins web.SessionManager
		switch cfg.SessionBackend {
		case config.SessionBackendMemory:
			logins = web.NewSessionStore(cfg.SecureCookies())
		default:
			logins = web.NewDBSessionStore(store.UserSessions(), cfg.SecureCookies())
		}

		templates, err := assets.Templates()
		if err != nil {
			return err
		}
		static, err := assets.Static()
		if err != nil {
			return err
		}

		server, err := web.NewServer(web.ServerConfig{
			Addr:           cfg.Addr,
			BaseURL:        cfg.BaseURL,
			SecureCookies:  cfg.SecureCookies(),
			MetricsEnabled: cfg.MetricsEnabled,
			TemplatesFS:    templates,
			StaticFS:       static,
			Auth:           authClient,
			Logins:         logins,
			Service:        sessions.New(store, sessions.WithCatalogTTL(sessions.DefaultCatalogTTL)),
			Store:          store,
		})
		if err != nil {
			return fmt.Errorf("creating server: %w", err)
		}

		slog.Info("configured",
			"store", cfg.StoreDriver,
			"session_backend", cfg.SessionBackend,
			"metrics", cfg.MetricsEnabled,
			"version", version,
		)
		return server.Run(ctx)
	},
}
