package config

// ServerConfig is the configuration of the simulator HTTP server
type ServerConfig struct {
	// rpc configs
	Port int    `toml:"port" mapstructure:"port"`
	Host string `toml:"host" mapstructure:"host"`

	// CORS configs
	AllowedOrigins []string `toml:"allowed_origins" mapstructure:"allowed_origins"`

	// rate limiting configs
	RatePerMinute         int `toml:"rate_per_minute" mapstructure:"rate_per_minute"`
	MaxConcurrentRequests int `toml:"max_concurrent_requests" mapstructure:"max_concurrent_requests"`
	// RequestTimeoutSeconds bounds one simulation including every chain query
	RequestTimeoutSeconds int `toml:"request_timeout_seconds" mapstructure:"request_timeout_seconds"`

	// simulation configs
	RegistryPath        string `toml:"registry_path" mapstructure:"registry_path"`
	BuilderURL          string `toml:"builder_url" mapstructure:"builder_url"`
	EthereumRPC         string `toml:"ethereum_rpc" mapstructure:"ethereum_rpc"`
	FeeMarginPercentage int64  `toml:"fee_margin_percentage" mapstructure:"fee_margin_percentage"`

	// gateway failover configs
	MaxRetries                 int `toml:"max_retries" mapstructure:"max_retries"`
	RetryDelayMillis           int `toml:"retry_delay_ms" mapstructure:"retry_delay_ms"`
	HealthCheckIntervalSeconds int `toml:"health_check_interval_seconds" mapstructure:"health_check_interval_seconds"`
	GatewayTimeoutSeconds      int `toml:"gateway_timeout_seconds" mapstructure:"gateway_timeout_seconds"`

	LogLevel string `toml:"log_level" mapstructure:"log_level"`

	// OpenTelemetry configs
	ServiceName    string `toml:"service_name" mapstructure:"service_name"`
	ServiceVersion string `toml:"service_version" mapstructure:"service_version"`
	Environment    string `toml:"environment" mapstructure:"environment"` // PROD, DEV, TEST, LOCAL
	EnableTracing  bool   `toml:"enable_tracing" mapstructure:"enable_tracing"`
	UseOTLPTraces  bool   `toml:"use_otlp_traces" mapstructure:"use_otlp_traces"`
	OTLPTracesURL  string `toml:"otlp_traces_url" mapstructure:"otlp_traces_url"`
	EnableMetrics  bool   `toml:"enable_metrics" mapstructure:"enable_metrics"`
	UsePrometheus  bool   `toml:"use_prometheus" mapstructure:"use_prometheus"`
	UseOTLPMetrics bool   `toml:"use_otlp_metrics" mapstructure:"use_otlp_metrics"`
	OTLPMetricsURL string `toml:"otlp_metrics_url" mapstructure:"otlp_metrics_url"`
	EnableLogs     bool   `toml:"enable_logs" mapstructure:"enable_logs"`
	UseOTLPLogs    bool   `toml:"use_otlp_logs" mapstructure:"use_otlp_logs"`
	OTLPLogsURL    string `toml:"otlp_logs_url" mapstructure:"otlp_logs_url"`

	InsecureOTLP bool `toml:"insecure_otlp" mapstructure:"insecure_otlp"`

	// Development mode uses stdout exporters
	DevelopmentMode bool `toml:"development_mode" mapstructure:"development_mode"`
}

// RegistryFile is one TOML file of the chain registry. A registry directory
// may split chains across several files.
type RegistryFile struct {
	Chains []ChainEntry `toml:"chain"`
}

// ChainEntry is the human written description of one chain
type ChainEntry struct {
	// Required: registry id used in requests (e.g. "AssetHubPolkadot", "Hydration")
	ID string `toml:"id"`

	// Required: relay family (e.g. "polkadot", "kusama", "ethereum")
	Family string `toml:"family"`

	// Optional: relay, asset-hub, bridge-hub, parachain, ethereum. Derived from the id when empty.
	Role string `toml:"role,omitempty"`

	// Required: native token
	NativeSymbol   string `toml:"native_symbol"`
	NativeDecimals uint8  `toml:"native_decimals"`
	// Optional: native existential deposit in the smallest unit
	NativeED string `toml:"native_ed,omitempty"`

	// Optional: location of the native token as seen from the relay
	NativeLocation *LocationEntry `toml:"native_location,omitempty"`

	EVM        bool    `toml:"evm,omitempty"`
	DryRun     bool    `toml:"dry_run,omitempty"`
	SS58Prefix *uint16 `toml:"ss58_prefix,omitempty"`

	// Sidecar gateway endpoints, primary first
	Sidecars []Endpoint `toml:"sidecars"`

	// Optional: Ethereum JSON-RPC used for balances on this chain
	EthereumRPC string `toml:"ethereum_rpc,omitempty"`

	// XCM pallets of the runtime, used to resolve module errors
	Pallets []PalletEntry `toml:"pallet"`

	Assets []AssetEntry `toml:"asset"`
}

// Endpoint represents a gateway endpoint
type Endpoint struct {
	// Required: Full URL of the endpoint
	URL string `toml:"url"`

	// Optional: Provider name
	Provider string `toml:"provider,omitempty"`
}

// PalletEntry maps a runtime pallet index to its name
type PalletEntry struct {
	Index uint8  `toml:"index"`
	Name  string `toml:"name"`
}

// AssetEntry is one non native asset of a chain
type AssetEntry struct {
	Symbol   string         `toml:"symbol"`
	Decimals uint8          `toml:"decimals"`
	AssetID  string         `toml:"asset_id,omitempty"`
	Location *LocationEntry `toml:"location,omitempty"`
	// Optional: existential deposit in the smallest unit
	ED string `toml:"ed,omitempty"`
}

// LocationEntry is an XCM location in TOML form
type LocationEntry struct {
	Parents  uint8           `toml:"parents"`
	Interior []JunctionEntry `toml:"interior"`
}

// JunctionEntry holds exactly one junction kind
type JunctionEntry struct {
	Parachain       *uint32 `toml:"parachain,omitempty"`
	PalletInstance  *uint8  `toml:"pallet_instance,omitempty"`
	GeneralIndex    *string `toml:"general_index,omitempty"`
	GeneralKey      *string `toml:"general_key,omitempty"`
	AccountKey20    *string `toml:"account_key20,omitempty"`
	GlobalConsensus *string `toml:"global_consensus,omitempty"`
}
