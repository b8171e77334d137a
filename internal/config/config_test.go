package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/sothis/internal/apperror"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "sothis", cfg.App.Name)
	assert.InDelta(t, 0.07, cfg.Session.EntropyThreshold, 1e-9)
	assert.Equal(t, SubmissionRaw, cfg.Session.SubmissionMode)
	assert.Equal(t, 500*time.Millisecond, cfg.Session.BlockListenInterval)
	assert.Equal(t, ".", cfg.Output.Path)
	assert.Empty(t, cfg.Output.Filename)
}

func TestLoad_FlagsOverrideDefaults(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("source-rpc", "", "")
	flags.String("replay-rpc", "", "")
	flags.String("terminal-block", "", "")
	flags.Float64("entropy-threshold", 0.07, "")
	flags.Bool("exit-on-tx-fail", false, "")
	require.NoError(t, flags.Parse([]string{
		"--source-rpc", "http://source:8545",
		"--replay-rpc", "http://fork:8545",
		"--terminal-block", "0x10",
		"--entropy-threshold", "0.2",
		"--exit-on-tx-fail",
	}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "http://source:8545", cfg.Source.URL)
	assert.Equal(t, "http://fork:8545", cfg.Replay.URL)
	assert.True(t, cfg.Session.ExitOnTxFail)
	assert.InDelta(t, 0.2, cfg.Session.EntropyThreshold, 1e-9)

	until, err := cfg.Session.UntilBlock()
	require.NoError(t, err)
	assert.EqualValues(t, 16, until)
	assert.Equal(t, "0x10", cfg.Tracker.TerminalBlock)
	require.NoError(t, cfg.Validate(ModeHistoric))
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sothis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source:
  url: http://source:8545
tracker:
  contract_address: "0x5a52e96bacdabb82fd05763e25335261b270efcb"
  storage_slot: "2"
  origin_block: "100"
output:
  filename: slot.csv
`), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate(ModeFastTrack))

	slot, err := cfg.Tracker.Slot()
	require.NoError(t, err)
	assert.EqualValues(t, 2, slot.Uint64())
	assert.Equal(t, "slot.csv", cfg.Output.Filename)

	_, ok, err := cfg.Tracker.Terminal()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Source:  NodeConfig{URL: "http://source"},
			Replay:  NodeConfig{URL: "http://fork"},
			Session: SessionConfig{EntropyThreshold: 0.07, SubmissionMode: SubmissionRaw, Until: "10"},
			Tracker: TrackerConfig{
				ContractAddress: "0x5a52e96bacdabb82fd05763e25335261b270efcb",
				StorageSlot:     "0",
				Calldata:        "0x06fdde03",
				OriginBlock:     "1",
			},
		}
	}

	tests := []struct {
		name     string
		mode     Mode
		mutate   func(*Config)
		wantCode apperror.Code
	}{
		{name: "historic_ok", mode: ModeHistoric},
		{name: "live_ok_without_until", mode: ModeLive, mutate: func(c *Config) { c.Session.Until = "" }},
		{name: "missing_source", mode: ModeLive, mutate: func(c *Config) { c.Source.URL = "" }, wantCode: apperror.CodeRequiredField},
		{name: "missing_replay", mode: ModeHistoric, mutate: func(c *Config) { c.Replay.URL = "" }, wantCode: apperror.CodeRequiredField},
		{name: "historic_needs_until", mode: ModeHistoric, mutate: func(c *Config) { c.Session.Until = "" }, wantCode: apperror.CodeRequiredField},
		{name: "bad_submission_mode", mode: ModeLive, mutate: func(c *Config) { c.Session.SubmissionMode = "unsigned" }, wantCode: apperror.CodeInvalidInput},
		{name: "bad_threshold", mode: ModeLive, mutate: func(c *Config) { c.Session.EntropyThreshold = 1.5 }, wantCode: apperror.CodeInvalidInput},
		{name: "track_ok", mode: ModeTrack},
		{name: "bad_address", mode: ModeTrack, mutate: func(c *Config) { c.Tracker.ContractAddress = "0x1234" }, wantCode: apperror.CodeInvalidInput},
		{name: "call_track_bad_calldata", mode: ModeCallTrack, mutate: func(c *Config) { c.Tracker.Calldata = "0xzz" }, wantCode: apperror.CodeInvalidInput},
		{name: "fast_track_needs_origin", mode: ModeFastTrack, mutate: func(c *Config) { c.Tracker.OriginBlock = "" }, wantCode: apperror.CodeRequiredField},
		{name: "unknown_mode", mode: Mode("plot"), wantCode: apperror.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			err := cfg.Validate(tt.mode)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperror.GetCode(err))
		})
	}
}

func TestParseBlockNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{in: "42", want: 42},
		{in: "0x2a", want: 42},
		{in: " 0X2A ", want: 42},
		{in: "", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "0xzz", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseBlockNumber(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseSlot(t *testing.T) {
	slot, err := ParseSlot("0x10")
	require.NoError(t, err)
	assert.EqualValues(t, 16, slot.Uint64())

	slot, err = ParseSlot("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	require.NoError(t, err)
	assert.Equal(t, "0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff", slot.Hex())

	_, err = ParseSlot("115792089237316195423570985008687907853269984665640564039457584007913129639936")
	assert.Error(t, err)
}
