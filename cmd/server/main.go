// Command buildwise runs the project workflow service: the REST API with MCP
// mounted at /mcp, an MCP server over stdio, and admin tasks.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/wardadevcode/buildwise-backend/internal/app"
	"github.com/wardadevcode/buildwise-backend/internal/auth"
	"github.com/wardadevcode/buildwise-backend/internal/config"
	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
	"github.com/wardadevcode/buildwise-backend/internal/logging"
	"github.com/wardadevcode/buildwise-backend/internal/mcp"
	"github.com/wardadevcode/buildwise-backend/internal/telemetry"
	"github.com/wardadevcode/buildwise-backend/internal/transport"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// state is shared by subcommands once config is loaded.
type state struct {
	cfg     config.Config
	logger  *slog.Logger
	closers []io.Closer
}

func (rt *state) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		_ = rt.closers[i].Close()
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rt := &state{}

	root := &cobra.Command{
		Use:           "buildwise",
		Short:         "Restoration project workflow service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	// setup loads configuration and builds the logger. Only serve logs to
	// stdout; stdio mode needs it for JSON-RPC and the admin commands print
	// tokens there.
	setup := func(logTo io.Writer) func(*cobra.Command, []string) error {
		return func(*cobra.Command, []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			rt.cfg = cfg

			w := logTo
			if cfg.Log.Path != "" {
				f, err := openLogFile(cfg.Log.Path)
				if err != nil {
					return fmt.Errorf("log file: %w", err)
				}
				rt.closers = append(rt.closers, f)
				w = f
			}
			rt.logger, err = logging.New(w, cfg.Log)
			return err
		}
	}
	done := func(*cobra.Command, []string) { rt.close() }

	serve := &cobra.Command{
		Use:               "serve",
		Short:             "Serve the REST API and MCP over HTTP",
		PersistentPreRunE: setup(stdout),
		PersistentPostRun: done,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), rt)
		},
	}

	stdio := &cobra.Command{
		Use:               "mcp",
		Short:             "Serve MCP over stdio as the local admin",
		PersistentPreRunE: setup(stderr),
		PersistentPostRun: done,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStdio(cmd.Context(), rt)
		},
	}

	migrate := &cobra.Command{
		Use:               "migrate",
		Short:             "Apply database migrations and exit",
		PersistentPreRunE: setup(stderr),
		PersistentPostRun: done,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := app.OpenStore(cmd.Context(), rt.cfg.DB, rt.logger)
			if err != nil {
				return err
			}
			defer store.Close()
			rt.logger.Info("migrations applied", "driver", rt.cfg.DB.Driver)
			return nil
		},
	}

	root.AddCommand(serve, stdio, migrate,
		newAPIKeyCmd(rt, setup(stderr), done),
		newTokenCmd(rt, setup(stderr), done),
	)
	return root
}

func runServe(ctx context.Context, rt *state) error {
	shutdownTracing, err := telemetry.Setup(ctx, rt.cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			rt.logger.Warn("flushing traces failed", "error", err)
		}
	}()

	store, err := app.OpenStore(ctx, rt.cfg.DB, rt.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	a, err := app.New(&rt.cfg, store, rt.logger, app.Options{})
	if err != nil {
		return err
	}

	mcpServer := newMCPServer(a, a.Resolver, rt.logger)
	router := transport.NewServer(transport.Deps{
		Engine:    a.Engine,
		Projects:  a.Projects,
		Estimates: a.Estimates,
		Invoices:  a.Invoices,
		Timeline:  a.Timeline,
		Resolver:  a.Resolver,
		Logger:    rt.logger,
		MCP:       mcp.NewHTTPHandler(mcpServer),
	})

	srv := &http.Server{
		Addr:              rt.cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rt.logger.Info("server listening", "addr", srv.Addr, "auth", rt.cfg.Auth.Enabled, "db", rt.cfg.DB.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		rt.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runStdio(ctx context.Context, rt *state) error {
	store, err := app.OpenStore(ctx, rt.cfg.DB, rt.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	a, err := app.New(&rt.cfg, store, rt.logger, app.Options{})
	if err != nil {
		return err
	}

	// A stdio client is the local operator; there is no header to carry a token.
	rt.logger.Info("starting stdio transport", "actor", app.LocalActor.ID)
	server := newMCPServer(a, auth.StaticResolver{Actor: app.LocalActor}, rt.logger)
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

func newMCPServer(a *app.App, resolver auth.Resolver, logger *slog.Logger) *sdkmcp.Server {
	return mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Engine:    a.Engine,
			Projects:  a.Projects,
			Estimates: a.Estimates,
			Invoices:  a.Invoices,
			Timeline:  a.Timeline,
		},
		Resolver: resolver,
		Version:  version,
		Logger:   logger,
	})
}

type actorFlags struct {
	id   string
	name string
	role string
}

func (f *actorFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.id, "id", "", "actor id (required)")
	cmd.Flags().StringVar(&f.name, "name", "", "display name")
	cmd.Flags().StringVar(&f.role, "role", "", "admin, staff, estimator, customer or adjuster (required)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("role")
}

func (f *actorFlags) actor() (actor.Actor, error) {
	role, ok := actor.ParseRole(f.role)
	if !ok {
		return actor.Actor{}, fmt.Errorf("unknown role %q", f.role)
	}
	return actor.Actor{ID: f.id, Name: f.name, Role: role}, nil
}

func newAPIKeyCmd(rt *state, setup func(*cobra.Command, []string) error, done func(*cobra.Command, []string)) *cobra.Command {
	parent := &cobra.Command{
		Use:               "apikey",
		Short:             "Manage API keys",
		PersistentPreRunE: setup,
		PersistentPostRun: done,
	}

	var flags actorFlags
	var description string
	create := &cobra.Command{
		Use:   "create",
		Short: "Issue an API key and print it once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.actor()
			if err != nil {
				return err
			}
			store, err := app.OpenStore(cmd.Context(), rt.cfg.DB, rt.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			token, err := auth.IssueAPIKey(cmd.Context(), store.APIKeys, a, description)
			if err != nil {
				return err
			}
			rt.logger.Info("api key issued", "actor_id", a.ID, "role", a.Role)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	flags.bind(create)
	create.Flags().StringVar(&description, "description", "", "what the key is for")

	parent.AddCommand(create)
	return parent
}

func newTokenCmd(rt *state, setup func(*cobra.Command, []string) error, done func(*cobra.Command, []string)) *cobra.Command {
	parent := &cobra.Command{
		Use:               "token",
		Short:             "Manage signed bearer tokens",
		PersistentPreRunE: setup,
		PersistentPostRun: done,
	}

	var flags actorFlags
	var ttl time.Duration
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Print a JWT for an actor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.actor()
			if err != nil {
				return err
			}
			jwt, err := auth.NewJWTResolver(rt.cfg.Auth.JWTSecret, rt.cfg.Auth.JWTIssuer)
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = rt.cfg.Auth.TokenTTL
			}
			token, err := jwt.Issue(a, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	flags.bind(issue)
	issue.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime; defaults to auth.token_ttl")

	parent.AddCommand(issue)
	return parent
}
