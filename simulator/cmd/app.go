package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/config"
	"github.com/Cogwheel-Validator/spectra-xcm/simulator/evm"
	"github.com/Cogwheel-Validator/spectra-xcm/simulator/fees"
	"github.com/Cogwheel-Validator/spectra-xcm/simulator/registry"
	"github.com/Cogwheel-Validator/spectra-xcm/simulator/rpc"
	"github.com/Cogwheel-Validator/spectra-xcm/simulator/sidecar"
	"github.com/Cogwheel-Validator/spectra-xcm/simulator/txbuilder"
	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
	"github.com/ethereum/go-ethereum/ethclient"
)

// app holds the wired simulator and what must be closed with it
type app struct {
	simulator *xcm.Simulator
	registry  *registry.Registry
	pool      *sidecar.Pool
	ethClient *ethclient.Client
}

func buildApp(ctx context.Context, cfg *config.ServerConfig) (*app, error) {
	loader := config.NewChainConfigLoader()
	reg, entries, err := loader.InitializeRegistry(cfg.RegistryPath)
	if err != nil {
		return nil, err
	}
	log.Info().Int("count", len(entries)).Str("path", cfg.RegistryPath).Msg("Loaded chain registry")

	pool := sidecar.NewPool(loader.Endpoints(entries), sidecar.FailoverConfig{
		MaxRetries:          cfg.MaxRetries,
		RetryDelay:          time.Duration(cfg.RetryDelayMillis) * time.Millisecond,
		HealthCheckInterval: time.Duration(cfg.HealthCheckIntervalSeconds) * time.Second,
		Timeout:             time.Duration(cfg.GatewayTimeoutSeconds) * time.Second,
	})
	builder := txbuilder.NewClient(cfg.BuilderURL, time.Duration(cfg.GatewayTimeoutSeconds)*time.Second)
	estimator := fees.NewEstimator(reg, builder)

	out := &app{registry: reg, pool: pool}

	var tokens xcm.TokenBalanceReader
	if rpcURL := ethereumRPC(cfg, entries); rpcURL != "" {
		reader, client, err := evm.Dial(ctx, rpcURL)
		if err != nil {
			pool.Close()
			return nil, err
		}
		tokens = reader
		out.ethClient = client
		log.Info().Msg("Ethereum balance reader enabled")
	}

	out.simulator = xcm.NewSimulator(pool, reg, builder, estimator, tokens)
	return out, nil
}

// ethereumRPC prefers the server setting over the registry entry
func ethereumRPC(cfg *config.ServerConfig, entries []config.ChainEntry) string {
	if cfg.EthereumRPC != "" {
		return cfg.EthereumRPC
	}
	for _, e := range entries {
		if e.EthereumRPC != "" {
			return e.EthereumRPC
		}
	}
	return ""
}

func (a *app) Close() {
	a.pool.Close()
	if a.ethClient != nil {
		a.ethClient.Close()
	}
}

// buildServerConfig converts the loaded ServerConfig to rpc.ServerConfig
func buildServerConfig(cfg *config.ServerConfig) *rpc.ServerConfig {
	serverConfig := &rpc.ServerConfig{
		Address:             cfg.Host + ":" + strconv.Itoa(cfg.Port),
		AllowedOrigins:      cfg.AllowedOrigins,
		EnableMetrics:       cfg.UsePrometheus,
		RatePerMinute:       &cfg.RatePerMinute,
		RequestTimeout:      time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		FeeMarginPercentage: cfg.FeeMarginPercentage,
	}
	if cfg.MaxConcurrentRequests > 0 {
		serverConfig.MaxConcurrentRequests = &cfg.MaxConcurrentRequests
	}

	if cfg.EnableTracing || cfg.EnableMetrics || cfg.EnableLogs || cfg.UsePrometheus {
		serverConfig.OTelConfig = &rpc.OTelConfig{
			ServiceName:     cfg.ServiceName,
			ServiceVersion:  defaultString(cfg.ServiceVersion, "1.0.0"),
			Environment:     defaultString(cfg.Environment, "development"),
			EnableTracing:   cfg.EnableTracing,
			UseOTLPTraces:   cfg.UseOTLPTraces,
			OTLPTracesURL:   cfg.OTLPTracesURL,
			EnableMetrics:   cfg.EnableMetrics,
			UsePrometheus:   cfg.UsePrometheus,
			UseOTLPMetrics:  cfg.UseOTLPMetrics,
			OTLPMetricsURL:  cfg.OTLPMetricsURL,
			EnableLogs:      cfg.EnableLogs,
			UseOTLPLogs:     cfg.UseOTLPLogs,
			OTLPLogsURL:     cfg.OTLPLogsURL,
			InsecureOTLP:    cfg.InsecureOTLP,
			DevelopmentMode: cfg.DevelopmentMode,
		}
	}
	return serverConfig
}

// defaultString returns the default value if s is empty
func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func loadConfig(path string) (*config.ServerConfig, error) {
	var cfg *config.ServerConfig
	var err error
	if path == "" {
		cfg, err = config.LoadServerConfig(nil)
	} else {
		cfg, err = config.LoadServerConfig(&path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
