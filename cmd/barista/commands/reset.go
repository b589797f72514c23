package commands

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dyluth/barista/internal/config"
	"github.com/dyluth/barista/internal/printer"
	"github.com/dyluth/barista/pkg/blackboard"
)

var resetAll bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the session's conversation state",
	Long: `Clear the configured session's short-term memory: intent, context
references and gathered evidence. The transcript is kept.

With --all, every session key is deleted, including the transcript.

Examples:
  # Forget the current topic but keep history
  barista reset

  # Wipe the session completely
  barista reset --all`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "Delete every session key, including the transcript")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return printer.Error("configuration error", err.Error(), nil)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return printer.Error("invalid redis URL", err.Error(), nil)
	}

	bb, err := blackboard.NewClient(redisOpts, cfg.Session)
	if err != nil {
		return printer.Error("failed to create store client", err.Error(), nil)
	}
	defer bb.Close()

	if err := bb.Ping(ctx); err != nil {
		return printer.Error("cannot reach Redis", err.Error(), nil)
	}

	if resetAll {
		if err := bb.ResetSession(ctx); err != nil {
			return printer.Error("reset failed", err.Error(), nil)
		}
		printer.Success("session %q wiped\n", cfg.Session)
		return nil
	}

	if err := bb.ClearShortTermMemory(ctx); err != nil {
		return printer.Error("reset failed", err.Error(), nil)
	}
	printer.Success("session %q short-term memory cleared (transcript kept)\n", cfg.Session)
	return nil
}
