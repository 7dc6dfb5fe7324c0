package root

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/githubb-dot/gamified-app/internal/ui"
)

const Version = "0.1.0"

// options carries the persistent flags shared by every subcommand.
type options struct {
	configPath string
	user       string
	dbPath     string
}

func NewRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "lvl",
		Short:         "Level Up: turn goals into quests and grow your stats",
		Long:          "lvl is a local-first CLI/TUI that turns personal goals into daily quests with XP, levels, stats and a title earned by staying active.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default ~/.levelup/config.yaml)")
	cmd.PersistentFlags().StringVarP(&opts.user, "user", "u", "", "User name (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides config)")

	cmd.AddCommand(
		newLoginCmd(opts),
		newStatusCmd(opts),
		newGoalCmd(opts),
		newQuestCmd(opts),
		newResolveCmd(opts, "complete"),
		newResolveCmd(opts, "fail"),
		newAllocateCmd(opts),
		newInboxCmd(opts),
		newAuditCmd(opts),
		newBoardCmd(opts),
		newWatchCmd(opts),
	)
	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		stop()
		os.Exit(1)
	}
}
