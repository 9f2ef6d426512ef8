package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pyscope/internal/config"
	"pyscope/internal/daemon"
	"pyscope/internal/logging"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the background resolver",
	Long:  "The daemon keeps scanned hierarchies cached and watches files for changes, so editor status-line queries stay cheap.",
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon in the foreground",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStart,
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	if daemon.NewIPCClient(cfg.Daemon.Socket).IsRunning() {
		return fmt.Errorf("daemon already running on %s", cfg.Daemon.Socket)
	}

	logger, cleanup, err := daemonLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer cleanup()

	d, err := daemon.New(cfg.Daemon, logger)
	if err != nil {
		return err
	}
	return d.Run(cfg.Daemon)
}

// daemonLogger builds the daemon's logger from config, with file
// settings overriding the PYSCOPE_LOG_* environment.
func daemonLogger(cfg config.LogConfig) (logger *slog.Logger, cleanup func(), err error) {
	logCfg := logging.FromEnv("daemon")
	if cfg.Level != "" {
		logCfg.Level = logging.ParseLevel(cfg.Level)
	}
	if cfg.Format != "" {
		logCfg.Format = cfg.Format
	}
	cleanup = func() {}
	if cfg.File != "" {
		f, openErr := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if openErr != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", openErr)
		}
		logCfg.Output = f
		cleanup = func() { f.Close() }
	}
	return logging.New(logCfg), cleanup, nil
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running daemon",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStop,
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	client := daemon.NewIPCClient(cfg.Daemon.Socket)
	if !client.IsRunning() {
		return fmt.Errorf("daemon not running")
	}
	if err := client.Stop(); err != nil {
		return err
	}
	fmt.Println("daemon stopped")
	return nil
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Args:  cobra.NoArgs,
	RunE:  runDaemonStatus,
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	client := daemon.NewIPCClient(cfg.Daemon.Socket)

	if !client.IsRunning() {
		if flagFormat == "json" {
			return outputJSON(daemon.Status{Running: false})
		}
		fmt.Println(color.RedString("stopped"))
		return nil
	}

	st, err := client.Status()
	if err != nil {
		return err
	}
	if flagFormat == "json" {
		return outputJSON(st)
	}

	fmt.Println(color.GreenString("running"))
	fmt.Printf("pid:            %d\n", st.PID)
	fmt.Printf("since:          %s\n", st.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("watched files:  %d (%d dirs)\n", st.WatchedFiles, st.WatchedDirs)
	fmt.Printf("cached buffers: %d\n", st.CachedBuffers)
	fmt.Printf("rebuilds:       %d\n", st.Rebuilds)
	return nil
}
