package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/offsuit/analyzer/internal/adapters/http/api"
	"github.com/offsuit/analyzer/internal/adapters/mail"
	"github.com/offsuit/analyzer/internal/adapters/repository"
	app "github.com/offsuit/analyzer/internal/app"
	"github.com/offsuit/analyzer/internal/config"
	"github.com/offsuit/analyzer/internal/domain/identity"
	"github.com/offsuit/analyzer/internal/seed"
	"github.com/offsuit/analyzer/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	logger.Init()

	cliApp := &cli.App{
		Name:  "offsuit-analyzer",
		Usage: "bar poker league analytics service",
		Commands: []*cli.Command{
			serveCommand(),
			refreshCommand(),
			resolveNamesCommand(),
			seedCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := cliApp.Run(os.Args); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// loadConfig loads configuration and applies the configured log level.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// newNotifier picks SMTP when the config can deliver mail, the silent
// notifier otherwise.
func newNotifier(ctx context.Context, cfg *config.Config) identity.Notifier {
	if cfg.SMTP.Host == "" {
		return mail.Noop{}
	}
	n, err := mail.NewSMTP(cfg.SMTP, cfg.ClashRecipients)
	if err != nil {
		logger.Get().Warn(ctx, "mail disabled", logger.Error(err))
		return mail.Noop{}
	}
	return n
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API with scheduled refresh jobs",
		Action: func(c *cli.Context) error {
			// Root context with cancel on SIGINT/SIGTERM.
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logger.Get()

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			svc := app.New(cfg,
				app.WithLogger(log),
				app.WithNotifier(newNotifier(ctx, cfg)),
			)
			if err := svc.Start(ctx); err != nil {
				return fmt.Errorf("start service: %w", err)
			}
			defer svc.Stop()

			// First readers should not pay the build cost.
			svc.WarmCache(ctx)

			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           api.NewServer(svc).Router(),
				ReadTimeout:       readTimeout,
				WriteTimeout:      writeTimeout,
				IdleTimeout:       idleTimeout,
				ReadHeaderTimeout: readHeaderTimeout,
			}

			go func() {
				log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error(ctx, "HTTP server failed", logger.Error(err))
					stop()
				}
			}()

			<-ctx.Done()
			log.Info(ctx, "shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error(ctx, "server shutdown failed", logger.Error(err))
			}

			log.Info(ctx, "server stopped")
			return nil
		},
	}
}

// oneShotService builds a started service without background jobs, for
// commands that run a single operation and exit.
func oneShotService(ctx context.Context, cfg *config.Config) (*app.Service, error) {
	cfg.RefreshIntervalMinutes = 0
	cfg.ResolverIntervalMinutes = 0

	svc := app.New(cfg,
		app.WithLogger(logger.Get()),
		app.WithNotifier(newNotifier(ctx, cfg)),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, fmt.Errorf("start service: %w", err)
	}
	return svc, nil
}

func refreshCommand() *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "fetch all configured boards once and update the store",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c.Context)
			if err != nil {
				return err
			}
			svc, err := oneShotService(c.Context, cfg)
			if err != nil {
				return err
			}
			defer svc.Stop()

			return svc.Refresh(c.Context)
		},
	}
}

func resolveNamesCommand() *cli.Command {
	return &cli.Command{
		Name:  "resolve-names",
		Usage: "run one adaptive name clash pass and print the outcome",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c.Context)
			if err != nil {
				return err
			}
			svc, err := oneShotService(c.Context, cfg)
			if err != nil {
				return err
			}
			defer svc.Stop()

			res, err := svc.ResolveNames(c.Context)
			if err != nil {
				return err
			}

			fmt.Printf("detected %d, retracted %d\n", len(res.Detected), len(res.Retracted))
			if len(res.Detected) > 0 {
				fmt.Println(identity.Format(res.Detected))
			}
			return nil
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "fill the store with a generated league history",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "bars", Value: 3, Usage: "bars in the league"},
			&cli.IntFlag{Name: "weeks", Value: 20, Usage: "league nights per bar"},
			&cli.IntFlag{Name: "players", Value: 12, Usage: "roster size per bar"},
			&cli.Uint64Flag{Name: "seed", Value: 0, Usage: "random seed; 0 uses the clock"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c.Context)
			if err != nil {
				return err
			}
			if cfg.PostgresDSN == "" {
				return errors.New("seed needs postgres_dsn; an in-memory store forgets on exit")
			}

			store, err := repository.NewPostgresStore(c.Context, cfg.PostgresDSN)
			if err != nil {
				return err
			}
			defer store.Close()

			var opts []seed.Option
			if s := c.Uint64("seed"); s != 0 {
				opts = append(opts, seed.WithSeed(s))
			}
			rounds := seed.New(opts...).Rounds(seed.League{
				Bars:    c.Int("bars"),
				Weeks:   c.Int("weeks"),
				Players: c.Int("players"),
			})
			if err := store.Rounds().Upsert(c.Context, rounds); err != nil {
				return err
			}

			fmt.Printf("seeded %d rounds\n", len(rounds))
			return nil
		},
	}
}
