package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pyscope"
	"pyscope/internal/config"
	"pyscope/internal/daemon"
	"pyscope/internal/store"
)

var (
	flagDB     string
	flagFormat string
	flagConfig string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "pyscope",
	Short:         "Scope tags for Python source, built for editor status lines",
	Long:          "Pyscope scans Python files into a class/function hierarchy and answers which definition encloses a given line. Commands resolve through a running daemon when one is up, and scan directly otherwise.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .pyscope/index.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: text|json")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ./pyscope.toml, then ~/.config/pyscope/pyscope.toml)")

	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(outlineCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(daemonCmd)
}

// parseLocation splits a FILE:LINE argument.
func parseLocation(arg string) (string, int, error) {
	idx := strings.LastIndex(arg, ":")
	if idx <= 0 || idx == len(arg)-1 {
		return "", 0, fmt.Errorf("expected FILE:LINE, got %q", arg)
	}
	line, err := strconv.Atoi(arg[idx+1:])
	if err != nil || line < 1 {
		return "", 0, fmt.Errorf("invalid line number in %q", arg)
	}
	return arg[:idx], line, nil
}

// scanFile reads and scans one Python source file directly, without a
// daemon or index.
func scanFile(path string) (*pyscope.Hierarchy, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return pyscope.Scan(pyscope.SplitLines(string(content))), nil
}

// daemonClient returns a client for a running daemon, or nil when none
// answers on the configured socket.
func daemonClient() *daemon.IPCClient {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil
	}
	client := daemon.NewIPCClient(cfg.Daemon.Socket)
	if !client.IsRunning() {
		return nil
	}
	return client
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root without finding .git.
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the default.
func resolveDBPath(repoRoot string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return filepath.Join(repoRoot, ".pyscope", "index.db")
}

// openStore opens the Store from the --db flag path (or default).
func openStore() (*store.Store, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := resolveDBPath(findRepoRoot(cwd))
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("no index at %s (run 'pyscope index' first)", dbPath)
	}
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	return s, nil
}
