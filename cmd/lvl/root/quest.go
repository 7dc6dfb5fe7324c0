package root

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/githubb-dot/gamified-app/internal/engine"
	"github.com/githubb-dot/gamified-app/internal/storage"
	"github.com/githubb-dot/gamified-app/internal/ui"
)

func newQuestCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quest",
		Short: "Create and list quests",
	}
	cmd.AddCommand(newQuestAddCmd(opts), newQuestListCmd(opts))
	return cmd
}

func newQuestAddCmd(opts *options) *cobra.Command {
	var (
		diff   string
		reward int
		stat   string
		goalID string
		due    string
	)
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a quest by hand",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || strings.TrimSpace(strings.Join(args, " ")) == "" {
				return errors.New("quest text is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := engine.ParseDifficulty(diff)
			if err != nil {
				return err
			}
			if reward == 0 {
				reward = int(d) * 10
			}
			in := engine.CreateQuestInput{
				Text:        strings.Join(args, " "),
				Difficulty:  d,
				RewardXP:    reward,
				PrimaryStat: stat,
			}
			if due != "" {
				t, err := time.Parse(time.DateOnly, due)
				if err != nil {
					return fmt.Errorf("due must be YYYY-MM-DD: %w", err)
				}
				t = t.Add(24*time.Hour - time.Second)
				in.DueDate = &t
			}

			ctx := cmd.Context()
			a, cleanup, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			u, err := a.currentUser(ctx)
			if err != nil {
				return err
			}
			in.UserID = u.ID
			if goalID != "" {
				in.GoalID = &goalID
			}
			q, err := a.svc.CreateQuest(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render("Quest added"))
			fmt.Fprintln(cmd.OutOrStdout(), questLine(*q))
			return nil
		},
	}
	cmd.Flags().StringVarP(&diff, "diff", "d", "3", "Difficulty (1-5, stars, or trivial|easy|medium|hard|epic)")
	cmd.Flags().IntVarP(&reward, "reward", "r", 0, "Reward XP (default difficulty x 10)")
	cmd.Flags().StringVarP(&stat, "stat", "s", "", "Primary stat (default discipline)")
	cmd.Flags().StringVarP(&goalID, "goal", "g", "", "Goal id to attach")
	cmd.Flags().StringVar(&due, "due", "", "Due date YYYY-MM-DD (default end of today, UTC)")
	return cmd
}

func newQuestListCmd(opts *options) *cobra.Command {
	var (
		status   string
		optional bool
		daily    bool
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if optional && daily {
				return errors.New("--optional and --daily are mutually exclusive")
			}
			switch status {
			case "", "all", engine.StatusPending, engine.StatusCompleted, engine.StatusFailed, engine.StatusExpired:
			default:
				return fmt.Errorf("unknown status %q", status)
			}
			if status == "all" {
				status = ""
			}

			ctx := cmd.Context()
			a, cleanup, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			u, err := a.currentUser(ctx)
			if err != nil {
				return err
			}
			qs, err := a.svc.ListQuests(ctx, u.ID, storage.QuestFilter{
				Status:       status,
				OptionalOnly: optional,
				DailyOnly:    daily,
				Limit:        limit,
			})
			if err != nil {
				return err
			}
			printQuests(cmd.OutOrStdout(), qs)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", engine.StatusPending, "pending|completed|failed|expired|all")
	cmd.Flags().BoolVar(&optional, "optional", false, "Only special quests")
	cmd.Flags().BoolVar(&daily, "daily", false, "Only daily quests")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Max quests to show")
	return cmd
}
