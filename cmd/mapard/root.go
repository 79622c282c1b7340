// Package main provides the entry point for the MAPA-RD CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mapard/mapard/internal/config"
	"github.com/mapard/mapard/internal/log"
	"github.com/mapard/mapard/internal/state"
)

// NewRootCmd creates the root command for MAPA-RD.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapard",
		Short: "OSINT intake-to-report pipeline for privacy compliance",
		Long: `MAPA-RD manages the full lifecycle of OSINT exposure reports:
client registration, intake authorization, reconnaissance scans,
report generation with quality control, and dispatch to the client.

Work items move through a strict state machine and every transition is
recorded in an append-only audit log.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .mapard.yaml in current or XDG config directory)")
	cmd.PersistentFlags().String("state-file", "", "Override the state document path")

	// Add subcommands
	cmd.AddCommand(NewClientCmd())
	cmd.AddCommand(NewIntakeCmd())
	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewSweepCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// loadConfig builds the effective configuration from defaults, the YAML
// file, the environment, and the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	explicitPath, _ := cmd.Flags().GetString("config")
	if path := config.FindConfigFile(explicitPath); path != "" {
		if err := config.LoadConfigFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cfg.ConfigFilePath = path
	} else if explicitPath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicitPath)
	}

	if err := config.LoadEnv(cfg, ""); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if stateFile, _ := cmd.Flags().GetString("state-file"); stateFile != "" {
		cfg.StateFile = stateFile
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// openStore sets up the secure logger and opens the state document.
func openStore(cmd *cobra.Command, cfg *config.Config) (*state.Store, error) {
	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)

	store, err := state.Open(cfg.StateFile, state.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open state document: %w", err)
	}
	return store, nil
}
