// Command coingecko-mcp serves the CoinGecko REST API as MCP tools generated
// from its OpenAPI document.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/specx2/coingecko-mcp/cmd/coingecko-mcp/config"
	"github.com/specx2/coingecko-mcp/cmd/coingecko-mcp/server"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	transportStdio = "stdio"
	transportHTTP  = "http"
)

type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	lookup func(string) (string, bool)
}

type rootFlags struct {
	configPath string
	transport  string
	addr       string
	log        logOptions
}

func main() {
	os.Exit(run(os.Args[1:], env{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		lookup: os.LookupEnv,
	}))
}

// run returns the process exit code: 0 after a clean shutdown, 1 on any error.
func run(args []string, e env) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, args, e)
}

// execute runs the command tree until ctx is cancelled; cancellation is a
// clean shutdown.
func execute(ctx context.Context, args []string, e env) int {
	cmd := newRootCommand(e)
	cmd.SetArgs(args)
	cmd.SetIn(e.stdin)
	cmd.SetOut(e.stdout)
	cmd.SetErr(e.stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(e.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCommand(e env) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "coingecko-mcp",
		Short: "Serve the CoinGecko API as MCP tools",
		Long: `coingecko-mcp reads a config file naming an OpenAPI document, turns every
operation into an MCP tool and proxies tool calls to the upstream API.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), flags, e)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to the config file (default $"+config.PathEnv+" or "+config.DefaultPath+")")
	pf.StringVar(&flags.log.Level, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&flags.log.Format, "log-format", "json", "log format: json or console")
	pf.StringVar(&flags.log.Output, "log-output", "stderr", "log destination: stderr or a file path")
	pf.BoolVar(&flags.log.Tee, "log-tee-console", false, "also write file logs to stderr")

	root.Flags().StringVarP(&flags.transport, "transport", "t", transportStdio, "transport: stdio or http")
	root.Flags().StringVar(&flags.addr, "addr", ":8080", "listen address for the http transport")

	root.AddCommand(newEndpointsCommand(flags, e), newVersionCommand(e))
	return root
}

func newEndpointsCommand(flags *rootFlags, e env) *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints",
		Short: "Print the number of endpoints and generated tools, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, cleanup, err := newLogger(flags.log, e.stderr)
			if err != nil {
				return err
			}
			defer cleanup()

			srv, err := build(cmd.Context(), flags, e, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.stdout, "endpoints: %d\n", srv.Endpoints())
			for _, name := range srv.ToolNames() {
				fmt.Fprintf(e.stdout, "  %s\n", name)
			}
			return nil
		},
	}
}

func newVersionCommand(e env) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(e.stdout, "coingecko-mcp %s\n", version)
		},
	}
}

func build(ctx context.Context, flags *rootFlags, e env, logger *zap.Logger) (*server.Server, error) {
	path := flags.configPath
	if path == "" {
		path = config.DefaultConfigPath(e.lookup)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	return server.New(ctx, server.Options{
		Config:    cfg,
		Logger:    logger.With(zap.String("server", cfg.Name)),
		LookupEnv: e.lookup,
	})
}

func serve(ctx context.Context, flags *rootFlags, e env) error {
	if flags.transport != transportStdio && flags.transport != transportHTTP {
		return fmt.Errorf("unknown transport %q (want %s or %s)", flags.transport, transportStdio, transportHTTP)
	}

	logger, cleanup, err := newLogger(flags.log, e.stderr)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := build(ctx, flags, e, logger)
	if err != nil {
		return err
	}

	if flags.transport == transportHTTP {
		err = srv.ServeHTTP(ctx, flags.addr)
	} else {
		err = srv.ServeStdio(ctx, e.stdin, e.stdout)
	}
	if err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}
