// Command actionctl invokes actions on a remote actiond gateway.
//
//	actionctl list
//	actionctl call echo '{"msg":"hi"}'
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/actionwire/internal/client"
	"github.com/danmuck/actionwire/internal/logging"
	"github.com/danmuck/actionwire/internal/protocol/envelope"
	"github.com/danmuck/actionwire/internal/protocol/tlv"
	"github.com/danmuck/actionwire/internal/protocol/value"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

type rootOptions struct {
	configPath string
	endpoint   string
	token      string
}

func main() {
	logging.ConfigureRuntime()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		var remote *envelope.RemoteError
		if errors.As(err, &remote) {
			fmt.Fprintf(os.Stderr, "remote %s: %s\n", remote.Kind, remote.Message)
		} else {
			log.Error().Err(err).Msg("actionctl failed")
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "actionctl",
		Short:         "Call actions on an actiond gateway",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to TOML client config")
	root.PersistentFlags().StringVar(&opts.endpoint, "endpoint", "", "gateway base URL override")
	root.PersistentFlags().StringVar(&opts.token, "token", "", "bearer token override")
	root.AddCommand(buildCallCmd(opts), buildListCmd(opts))
	return root
}

func buildCallCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "call <action> [json-args]",
		Short: "Invoke one action and print its result as JSON",
		Example: `  actionctl call echo '{"msg":"hi"}'
  actionctl call math.add '[2, 3]'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cfg, err := opts.client()
			if err != nil {
				return err
			}
			raw := "{}"
			if len(args) == 2 {
				raw = args[1]
			}
			callArgs, err := value.ParseJSON([]byte(raw), tlv.DefaultLimits().MaxDepth)
			if err != nil {
				return fmt.Errorf("parse args: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()
			result, err := c.Call(ctx, args[0], callArgs)
			if err != nil {
				return err
			}
			out, err := result.MarshalJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func buildListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the actions the gateway serves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, cfg, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()
			infos, err := c.List(ctx)
			if err != nil {
				return err
			}
			for _, info := range infos {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", info.ID, info.Description)
			}
			return nil
		},
	}
}

func (o *rootOptions) resolveConfig() (clientConfig, error) {
	cfg := defaultClientConfig()
	if o.configPath != "" {
		loaded, err := loadClientConfig(o.configPath)
		if err != nil {
			return clientConfig{}, err
		}
		cfg = loaded
	}
	if v := strings.TrimSpace(o.endpoint); v != "" {
		cfg.Endpoint = v
	}
	if v := strings.TrimSpace(o.token); v != "" {
		cfg.AuthToken = v
	}
	return cfg, nil
}

func (o *rootOptions) client() (*client.Client, clientConfig, error) {
	cfg, err := o.resolveConfig()
	if err != nil {
		return nil, clientConfig{}, err
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.CAFile != "" {
		tlsCfg, err := loadCA(cfg.CAFile)
		if err != nil {
			return nil, clientConfig{}, err
		}
		httpClient.Transport = &http.Transport{TLSClientConfig: tlsCfg}
	}
	c, err := client.New(cfg.Endpoint, client.WithToken(cfg.AuthToken), client.WithHTTPClient(httpClient))
	if err != nil {
		return nil, clientConfig{}, err
	}
	return c, cfg, nil
}

func loadCA(path string) (*tls.Config, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ca file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("ca file %s holds no certificates", path)
	}
	return &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}
