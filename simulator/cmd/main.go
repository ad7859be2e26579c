package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/config"
	"github.com/Cogwheel-Validator/spectra-xcm/simulator/models"
	"github.com/Cogwheel-Validator/spectra-xcm/simulator/rpc"
	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "cmd").Logger()

	// Share the logger with the RPC package
	rpc.SetLogger(log)
}

func main() {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "spectra-xcm",
		Short: "Dry run XCM transfers and reconcile their fees across every hop",
		Long: `spectra-xcm simulates cross-chain XCM transfers without submitting them:
  1. Per-leg fee breakdown with dry runs where the runtime supports them
  2. Sender and recipient balances before and after the transfer
  3. Existential deposit and keep-alive safety checks`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "trace, debug, info, warn or error")

	rootCmd.AddCommand(
		serveCmd(),
		transferInfoCmd(),
		originFeeCmd(),
		verifyEdCmd(),
		keepAliveCmd(),
		chainsCmd(),
		registryCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulator over HTTP",
		Long:  `Serve the simulator procedures. Without --config the settings come from SPECTRA_XCM_* environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && !cmd.Flags().Changed("log-level") {
				zerolog.SetGlobalLevel(level)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			a, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			server, err := rpc.NewServer(ctx, buildServerConfig(cfg), a.simulator, a.registry)
			if err != nil {
				return fmt.Errorf("failed to create RPC server: %w", err)
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			go func() {
				if err := server.Start(); err != nil {
					log.Error().Err(err).Msg("Server error")
					sigCh <- syscall.SIGTERM
				}
			}()

			sig := <-sigCh
			log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Server config toml, environment variables when empty")
	return cmd
}

// requestFlags are shared by every one-shot simulation command
type requestFlags struct {
	configFile  string
	requestFile string
	timeout     time.Duration
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Server config toml, environment variables when empty")
	cmd.Flags().StringVarP(&f.requestFile, "request", "r", "-", "Transfer request JSON file, - for stdin")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 60*time.Second, "Simulation timeout")
}

// run loads the request and the wired simulator, then hands both to fn
func (f *requestFlags) run(cmd *cobra.Command, req any, fn func(ctx context.Context, a *app) (any, error)) error {
	if err := readRequest(cmd.InOrStdin(), f.requestFile, req); err != nil {
		return err
	}
	if v, ok := req.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}

	cfg, err := loadConfig(f.configFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
	defer cancel()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := fn(ctx, a)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func transferInfoCmd() *cobra.Command {
	var flags requestFlags
	cmd := &cobra.Command{
		Use:   "transfer-info",
		Short: "Report balances and fees of every leg of a transfer",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req models.TransferRequest
			return flags.run(cmd, &req, func(ctx context.Context, a *app) (any, error) {
				return a.simulator.GetTransferInfo(ctx, req.ToIntent())
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func originFeeCmd() *cobra.Command {
	var flags requestFlags
	var margin int64
	cmd := &cobra.Command{
		Use:   "origin-fee",
		Short: "Check the sender can pay the origin fee plus a margin",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req models.TransferRequest
			return flags.run(cmd, &req, func(ctx context.Context, a *app) (any, error) {
				return a.simulator.GetOriginFeeDetails(ctx, req.ToIntent(), margin)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().Int64Var(&margin, "margin", xcm.DefaultFeeMarginPercentage, "Fee margin percentage")
	return cmd
}

func verifyEdCmd() *cobra.Command {
	var flags requestFlags
	cmd := &cobra.Command{
		Use:   "verify-ed",
		Short: "Check the recipient ends above the existential deposit",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req models.TransferRequest
			return flags.run(cmd, &req, func(ctx context.Context, a *app) (any, error) {
				ok, err := a.simulator.VerifyEdOnDestination(ctx, req.ToIntent())
				if err != nil {
					return nil, err
				}
				return models.VerifyEdResponse{Sufficient: ok}, nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func keepAliveCmd() *cobra.Command {
	var flags requestFlags
	cmd := &cobra.Command{
		Use:   "keep-alive",
		Short: "Check neither account is reaped by the transfer",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req models.TransferRequest
			return flags.run(cmd, &req, func(ctx context.Context, a *app) (any, error) {
				if err := a.simulator.CheckKeepAlive(ctx, req.ToIntent()); err != nil {
					return nil, err
				}
				return models.KeepAliveResponse{Ok: true}, nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func chainsCmd() *cobra.Command {
	var registryPath string
	cmd := &cobra.Command{
		Use:   "chains",
		Short: "List the chains of a registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, _, err := config.NewChainConfigLoader().InitializeRegistry(registryPath)
			if err != nil {
				return err
			}
			out := models.ChainsResponse{}
			for _, c := range reg.Chains() {
				out.Chains = append(out.Chains, models.ChainSummary{
					ID:             c.ID,
					Family:         c.Family,
					Role:           string(c.Role),
					NativeSymbol:   c.NativeSymbol,
					NativeDecimals: c.NativeDecimals,
					EVM:            c.EVM,
					DryRun:         c.DryRun,
				})
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&registryPath, "registry", "./registry", "Registry file or directory")
	return cmd
}

func registryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage the chain registry",
	}

	var src, dst string
	fetch := &cobra.Command{
		Use:   "fetch",
		Short: "Download a registry directory from git or http",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.FetchRegistry(cmd.Context(), src, dst); err != nil {
				return err
			}
			reg, _, err := config.NewChainConfigLoader().InitializeRegistry(dst)
			if err != nil {
				return fmt.Errorf("downloaded registry is invalid: %w", err)
			}
			log.Info().Int("chains", len(reg.Chains())).Str("dst", dst).Msg("Registry ready")
			return nil
		},
	}
	fetch.Flags().StringVar(&src, "src", "", "go-getter source, e.g. github.com/org/repo//registry (required)")
	fetch.Flags().StringVar(&dst, "dst", "./registry", "Destination directory")
	_ = fetch.MarkFlagRequired("src")

	cmd.AddCommand(fetch)
	return cmd
}

func readRequest(stdin io.Reader, path string, out any) error {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse request: %w", err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
