package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/danmuck/actionwire/internal/actions"
	"github.com/danmuck/actionwire/internal/actions/demo"
	"github.com/danmuck/actionwire/internal/auth"
	"github.com/danmuck/actionwire/internal/config"
	"github.com/danmuck/actionwire/internal/dispatch"
	"github.com/danmuck/actionwire/internal/gateway"
	"github.com/danmuck/actionwire/internal/protocol/schema"
	"github.com/danmuck/actionwire/internal/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const telemetryShutdownTimeout = 5 * time.Second

func buildServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the action gateway",
		Example: `  actiond serve
  actiond serve --config /etc/actiond.toml --addr 127.0.0.1:9090`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveServerConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML server config (defaults when empty)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address override")
	return cmd
}

func buildActionsCmd() *cobra.Command {
	var schemas bool
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List the actions this build registers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := buildCatalog()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, info := range catalog.List() {
				if !schemas {
					fmt.Fprintf(out, "%-12s %s\n", info.ID, info.Description)
					continue
				}
				doc, err := json.Marshal(map[string]any{
					"id":     info.ID,
					"args":   schema.JSONSchema(info.Args),
					"result": schema.JSONSchema(info.Result),
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(doc))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&schemas, "schemas", false, "print JSON Schemas, one action per line")
	return cmd
}

func buildInitConfigCmd() *cobra.Command {
	var (
		kind  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "init-config <path>",
		Short: "Write a starter config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(args[0], kind, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s config to %s\n", kind, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "server", "template kind: server or client")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func resolveServerConfig(path string) (config.ServerConfig, error) {
	if path == "" {
		return config.DefaultServerConfig(), nil
	}
	cfg, err := config.LoadServerConfig(path)
	if err != nil {
		return config.ServerConfig{}, err
	}
	log.Info().Str("path", path).Msg("loaded server config")
	return cfg, nil
}

// buildCatalog registers every action and seals the set.
func buildCatalog() (*actions.Catalog, error) {
	reg := actions.NewRegistry()
	if err := demo.RegisterAll(reg); err != nil {
		return nil, fmt.Errorf("register actions: %w", err)
	}
	return reg.Seal(), nil
}

func runServe(ctx context.Context, cfg config.ServerConfig) error {
	gin.SetMode(gin.ReleaseMode)

	catalog, err := buildCatalog()
	if err != nil {
		return err
	}
	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry.Endpoint, cfg.Name, version, cfg.Telemetry.Insecure)
	if err != nil {
		return err
	}

	d := dispatch.New(catalog,
		dispatch.WithLimits(cfg.Limits()),
		dispatch.WithHandlerTimeout(cfg.HandlerTimeout.Duration),
		dispatch.WithLogger(log.Logger),
	)
	gwCfg := gateway.Config{Name: cfg.Name, CorsOrigins: cfg.CorsOrigins, TrustedProxies: cfg.TrustedProxies}
	if cfg.AuthToken != "" {
		gwCfg.Validator = auth.StaticToken{Token: cfg.AuthToken}
	}
	srv, err := gateway.New(d, gwCfg)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	log.Info().
		Str("name", cfg.Name).
		Str("addr", ln.Addr().String()).
		Int("actions", catalog.Len()).
		Msg("actiond started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx, ln, cfg.TLSCertFile, cfg.TLSKeyFile)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		return shutdownTelemetry(shutdownCtx)
	})
	err = g.Wait()
	log.Info().Err(err).Msg("actiond stopped")
	return err
}
