// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fd1az/sothis/internal/apperror"
)

// Mode selects which session a process runs.
type Mode string

const (
	ModeHistoric  Mode = "historic"
	ModeLive      Mode = "live"
	ModeTrack     Mode = "track"
	ModeFastTrack Mode = "fast-track"
	ModeCallTrack Mode = "call-track"
)

// IsReplay reports whether the mode drives a destination node.
func (m Mode) IsReplay() bool {
	return m == ModeHistoric || m == ModeLive
}

// Submission modes.
const (
	SubmissionRaw            = "raw"
	SubmissionUnsignedUnsafe = "unsigned-unsafe"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Source    NodeConfig      `mapstructure:"source"`
	Replay    NodeConfig      `mapstructure:"replay"`
	Session   SessionConfig   `mapstructure:"session"`
	Tracker   TrackerConfig   `mapstructure:"tracker"`
	Output    OutputConfig    `mapstructure:"output"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"` // json or text
	TUI         bool   `mapstructure:"tui"`
}

// NodeConfig describes one JSON-RPC endpoint.
type NodeConfig struct {
	URL               string        `mapstructure:"url"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"` // 0 = unlimited
	Timeout           time.Duration `mapstructure:"timeout"`
}

// SessionConfig holds replay policy.
type SessionConfig struct {
	EntropyThreshold    float64       `mapstructure:"entropy_threshold"`
	ExitOnTxFail        bool          `mapstructure:"exit_on_tx_fail"`
	SubmissionMode      string        `mapstructure:"submission_mode"`
	ReplayDelay         time.Duration `mapstructure:"replay_delay"`
	BlockListenInterval time.Duration `mapstructure:"block_listen_interval"`
	SkipSetup           bool          `mapstructure:"skip_setup"`
	Until               string        `mapstructure:"until"`
}

// EntropyThresholdDecimal returns the threshold as decimal.Decimal.
func (c *SessionConfig) EntropyThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.EntropyThreshold)
}

// UntilBlock parses the historic terminal block.
func (c *SessionConfig) UntilBlock() (uint64, error) {
	return ParseBlockNumber(c.Until)
}

// TrackerConfig holds tracking session settings.
type TrackerConfig struct {
	ContractAddress string `mapstructure:"contract_address"`
	StorageSlot     string `mapstructure:"storage_slot"`
	Calldata        string `mapstructure:"calldata"`
	OriginBlock     string `mapstructure:"origin_block"`
	TerminalBlock   string `mapstructure:"terminal_block"`
	QueryInterval   uint64 `mapstructure:"query_interval"` // 0 = every block
}

// Slot parses the storage slot.
func (c *TrackerConfig) Slot() (*uint256.Int, error) {
	return ParseSlot(c.StorageSlot)
}

// Origin parses the origin block.
func (c *TrackerConfig) Origin() (uint64, error) {
	return ParseBlockNumber(c.OriginBlock)
}

// Terminal parses the terminal block; ok is false when unset.
func (c *TrackerConfig) Terminal() (n uint64, ok bool, err error) {
	if strings.TrimSpace(c.TerminalBlock) == "" {
		return 0, false, nil
	}
	n, err = ParseBlockNumber(c.TerminalBlock)
	return n, err == nil, err
}

// CalldataHex returns the calldata with exactly one 0x prefix.
func (c *TrackerConfig) CalldataHex() (string, error) {
	return hexDecodable(c.Calldata)
}

// Address returns the contract address as common.Address.
func (c *TrackerConfig) Address() common.Address {
	return common.HexToAddress(c.ContractAddress)
}

// OutputConfig controls where change lists are written.
type OutputConfig struct {
	Path     string `mapstructure:"path"`
	Filename string `mapstructure:"filename"`
	Decimal  bool   `mapstructure:"decimal"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"` // zipkin, console, otlp-grpc, otlp-http, none
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"log-level":         "app.log_level",
	"log-format":        "app.log_format",
	"tui":               "app.tui",
	"source-rpc":        "source.url",
	"source-rpm":        "source.requests_per_minute",
	"replay-rpc":        "replay.url",
	"entropy-threshold": "session.entropy_threshold",
	"exit-on-tx-fail":   "session.exit_on_tx_fail",
	"submission-mode":   "session.submission_mode",
	"replay-delay":      "session.replay_delay",
	"block-listen-time": "session.block_listen_interval",
	"no-setup":          "session.skip_setup",
	"terminal-block":    "session.until",
	"contract-address":  "tracker.contract_address",
	"storage-slot":      "tracker.storage_slot",
	"calldata":          "tracker.calldata",
	"origin-block":      "tracker.origin_block",
	"query-interval":    "tracker.query_interval",
	"path":              "output.path",
	"filename":          "output.filename",
	"decimal":           "output.decimal",
	"telemetry":         "telemetry.enabled",
	"health":            "health.enabled",
}

// Load loads configuration from file, environment variables and flags.
// flags may be nil.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("sothis")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("SOTHIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := bindFlags(v, flags); err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithCause(err), apperror.WithContext("bind flags"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// terminal-block is shared by replay and tracking commands
	if cfg.Tracker.TerminalBlock == "" {
		cfg.Tracker.TerminalBlock = cfg.Session.Until
	}

	return &cfg, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "SOTHIS_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "SOTHIS_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "SOTHIS_LOG_LEVEL", "LOG_LEVEL")

	// Nodes
	v.BindEnv("source.url", "SOTHIS_SOURCE_RPC", "SOURCE_RPC")
	v.BindEnv("replay.url", "SOTHIS_REPLAY_RPC", "REPLAY_RPC")

	// Telemetry
	v.BindEnv("telemetry.enabled", "SOTHIS_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "SOTHIS_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "SOTHIS_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "SOTHIS_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sothis")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "text")
	v.SetDefault("app.tui", false)

	v.SetDefault("source.requests_per_minute", 0)
	v.SetDefault("source.timeout", "30s")
	v.SetDefault("replay.timeout", "30s")

	v.SetDefault("session.entropy_threshold", 0.07)
	v.SetDefault("session.exit_on_tx_fail", false)
	v.SetDefault("session.submission_mode", SubmissionRaw)
	v.SetDefault("session.replay_delay", "0s")
	v.SetDefault("session.block_listen_interval", "500ms")
	v.SetDefault("session.skip_setup", false)

	v.SetDefault("tracker.query_interval", 0)

	v.SetDefault("output.path", ".")
	v.SetDefault("output.filename", "")
	v.SetDefault("output.decimal", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "sothis")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)

	v.SetDefault("health.enabled", false)
	v.SetDefault("health.port", 8081)
}

// Validate validates the configuration for the given mode.
func (c *Config) Validate(mode Mode) error {
	if c.Source.URL == "" {
		return apperror.Validation(apperror.CodeRequiredField, "source.url is required")
	}

	switch mode {
	case ModeHistoric, ModeLive:
		return c.validateReplay(mode)
	case ModeTrack, ModeFastTrack, ModeCallTrack:
		return c.validateTracker(mode)
	default:
		return apperror.Validation(apperror.CodeInvalidInput, fmt.Sprintf("unknown mode %q", mode))
	}
}

func (c *Config) validateReplay(mode Mode) error {
	if c.Replay.URL == "" {
		return apperror.Validation(apperror.CodeRequiredField, "replay.url is required")
	}
	if c.Session.EntropyThreshold < 0 || c.Session.EntropyThreshold > 1 {
		return apperror.Validation(apperror.CodeInvalidInput,
			fmt.Sprintf("session.entropy_threshold must be within [0,1], got %v", c.Session.EntropyThreshold))
	}
	switch c.Session.SubmissionMode {
	case SubmissionRaw, SubmissionUnsignedUnsafe:
	default:
		return apperror.Validation(apperror.CodeInvalidInput,
			fmt.Sprintf("session.submission_mode must be %q or %q, got %q",
				SubmissionRaw, SubmissionUnsignedUnsafe, c.Session.SubmissionMode))
	}
	if mode == ModeHistoric {
		if _, err := c.Session.UntilBlock(); err != nil {
			return apperror.Validation(apperror.CodeRequiredField, "terminal block is required in historic mode: "+err.Error())
		}
	}
	return nil
}

func (c *Config) validateTracker(mode Mode) error {
	if !common.IsHexAddress(c.Tracker.ContractAddress) {
		return apperror.Validation(apperror.CodeInvalidInput,
			fmt.Sprintf("invalid tracker.contract_address: %q", c.Tracker.ContractAddress))
	}
	if _, _, err := c.Tracker.Terminal(); err != nil {
		return err
	}

	if mode == ModeCallTrack {
		if _, err := hexDecodable(c.Tracker.Calldata); err != nil {
			return err
		}
	} else if _, err := c.Tracker.Slot(); err != nil {
		return err
	}

	if mode != ModeTrack {
		if _, err := c.Tracker.Origin(); err != nil {
			return apperror.Validation(apperror.CodeRequiredField, "origin block is required: "+err.Error())
		}
	}
	return nil
}

// ParseBlockNumber accepts decimal or 0x-prefixed hex.
func ParseBlockNumber(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, apperror.Validation(apperror.CodeInvalidBlockNumber, "empty block number")
	}

	var (
		n   uint64
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err = strconv.ParseUint(s[2:], 16, 64)
	} else {
		n, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, apperror.New(apperror.CodeInvalidBlockNumber, apperror.WithCause(err), apperror.WithContext(s))
	}
	return n, nil
}

// ParseSlot accepts a decimal or 0x-prefixed hex storage slot.
func ParseSlot(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, apperror.Validation(apperror.CodeRequiredField, "storage slot is required")
	}

	base := 10
	digits := s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		digits = s[2:]
	}

	b, ok := new(big.Int).SetString(digits, base)
	if !ok || b.Sign() < 0 {
		return nil, apperror.Validation(apperror.CodeInvalidInput, fmt.Sprintf("invalid storage slot %q", s))
	}
	slot, overflow := uint256.FromBig(b)
	if overflow {
		return nil, apperror.Validation(apperror.CodeInvalidInput, fmt.Sprintf("storage slot %q exceeds 256 bits", s))
	}
	return slot, nil
}

func hexDecodable(s string) (string, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if trimmed == "" {
		return "", apperror.Validation(apperror.CodeRequiredField, "tracker.calldata is required")
	}
	if _, err := hexutil.Decode("0x" + trimmed); err != nil {
		return "", apperror.New(apperror.CodeInvalidInput, apperror.WithCause(err), apperror.WithContext("tracker.calldata"))
	}
	return "0x" + trimmed, nil
}
