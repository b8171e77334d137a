package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fd1az/sothis/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sothis",
		Short:         "Replay chain history onto a sandbox node and track contract state over blocks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Path to configuration file")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "text", "Log format: text or json")
	pf.Bool("tui", false, "Show the interactive dashboard instead of log lines")
	pf.String("source-rpc", "", "JSON-RPC URL of the source node (http, https, ws or wss)")
	pf.Int("source-rpm", 0, "Maximum requests per minute against the source node, 0 for unlimited")
	pf.Bool("telemetry", false, "Enable tracing and Prometheus metrics")
	pf.Bool("health", false, "Serve /health, /ready and /live")

	root.AddCommand(
		modeCmd(config.ModeHistoric, "Replay historic blocks onto the replay node up to a terminal block", replayFlags),
		modeCmd(config.ModeLive, "Replay new source blocks onto the replay node as they arrive", replayFlags),
		modeCmd(config.ModeTrack, "Record a storage slot at every new source head", trackFlags),
		modeCmd(config.ModeFastTrack, "Record a storage slot across a historic block range", scanFlags),
		modeCmd(config.ModeCallTrack, "Record an eth_call result across a historic block range", callFlags),
		versionCmd(),
	)
	return root
}

func modeCmd(mode config.Mode, short string, flags func(*pflag.FlagSet)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(mode),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, mode)
		},
	}
	flags(cmd.Flags())
	return cmd
}

func replayFlags(fs *pflag.FlagSet) {
	fs.String("replay-rpc", "", "JSON-RPC URL of the replay node")
	fs.Float64("entropy-threshold", 0.07, "Fail ratio per block above which a warning is printed")
	fs.Bool("exit-on-tx-fail", false, "Stop the session at the first failed transaction")
	fs.String("submission-mode", config.SubmissionRaw, "Submission mode: raw or unsigned-unsafe")
	fs.Duration("replay-delay", 0, "Pause between replayed blocks")
	fs.Duration("block-listen-time", 500*time.Millisecond, "Poll interval while waiting for a new source block")
	fs.Bool("no-setup", false, "Skip the replay node setup prompt")
	fs.String("terminal-block", "", "Last block to replay (historic only)")
}

func outputFlags(fs *pflag.FlagSet) {
	fs.String("contract-address", "", "Address of the tracked contract")
	fs.String("terminal-block", "", "Block at which tracking stops")
	fs.String("path", ".", "Directory the result is written to")
	fs.String("filename", "", "Result filename; a name containing .csv selects CSV")
	fs.Bool("decimal", false, "Rewrite hex values as decimal in the result")
}

func trackFlags(fs *pflag.FlagSet) {
	outputFlags(fs)
	fs.String("storage-slot", "", "Storage slot to track, decimal or 0x hex")
	fs.Duration("block-listen-time", 500*time.Millisecond, "Poll interval while waiting for a new source block")
}

func rangeFlags(fs *pflag.FlagSet) {
	outputFlags(fs)
	fs.String("origin-block", "", "First block of the scan")
	fs.Uint64("query-interval", 0, "Read every n-th block; blocks in between are skipped")
}

func scanFlags(fs *pflag.FlagSet) {
	rangeFlags(fs)
	fs.String("storage-slot", "", "Storage slot to track, decimal or 0x hex")
}

func callFlags(fs *pflag.FlagSet) {
	rangeFlags(fs)
	fs.String("calldata", "", "Calldata of the read-only call, hex")
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sothis %s (commit: %s, built: %s)\n", version, commit, buildDate)
		},
	}
}
