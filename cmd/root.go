package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pokearena/arena-cli/internal/arena"
	"github.com/pokearena/arena-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "arena-cli",
	Short: "Two-contestant battle judge",
	Long:  "Fetches two contestants from a capability-advertising data service, scores them with the type-effectiveness engine, and emits a verdict.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

// Exit codes distinguish the failure classes scripts care about.
const (
	exitOK           = 0
	exitError        = 1
	exitUnresolvable = 2
	exitTimeout      = 3
	exitNoCapability = 4
)

// exitCode maps a judgment failure onto the command's exit code contract.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	if errors.Is(err, arena.ErrNoCapability) {
		return exitNoCapability
	}

	var oerr *arena.OrchestrationError
	if errors.As(err, &oerr) && oerr.Timeout {
		return exitTimeout
	}

	var u *arena.UnresolvableError
	if errors.As(err, &u) {
		return exitUnresolvable
	}

	return exitError
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}
