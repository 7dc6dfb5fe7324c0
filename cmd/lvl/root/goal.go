package root

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/githubb-dot/gamified-app/internal/engine"
	"github.com/githubb-dot/gamified-app/internal/ui"
)

func newGoalCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage the goals quests are generated from",
	}
	cmd.AddCommand(newGoalAddCmd(opts), newGoalListCmd(opts), newGoalOffCmd(opts))
	return cmd
}

func newGoalAddCmd(opts *options) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Add an active goal",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || strings.TrimSpace(strings.Join(args, " ")) == "" {
				return errors.New("description is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
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
			res, err := a.svc.AddGoal(ctx, u.ID, strings.Join(args, " "), category)
			if err != nil {
				return err
			}
			g := res.Goal
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s %s\n", ui.Good.Render("Goal added"), g.Description,
				ui.Muted.Render(fmt.Sprintf("(%s, trains %s)", g.Category, engine.CategoryAttribute(g.Category))))
			fmt.Fprintln(out, ui.Heading(ui.IconQuest, "New quest"))
			fmt.Fprintln(out, "  "+questLine(res.Quest))
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Goal category such as physical or learning; derived from the description when empty")
	return cmd
}

func newGoalListCmd(opts *options) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			goals, err := a.svc.ListGoals(ctx, u.ID, !all)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(goals) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(no goals yet, try: lvl goal add \"run a marathon\")"))
				return nil
			}
			for _, g := range goals {
				state := ""
				if !g.IsActive {
					state = " " + ui.Muted.Render("(inactive)")
				}
				fmt.Fprintf(out, "- %s %s %s%s\n", ui.Muted.Render(shortID(g.ID)), g.Description, ui.Muted.Render("["+g.Category+"]"), state)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include inactive goals")
	return cmd
}

func newGoalOffCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "off <goal_id>",
		Short: "Deactivate a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			goals, err := a.svc.ListGoals(ctx, u.ID, false)
			if err != nil {
				return err
			}
			id := ""
			for _, g := range goals {
				if g.ID == args[0] || strings.HasPrefix(g.ID, args[0]) {
					if id != "" {
						return fmt.Errorf("goal id %q is ambiguous", args[0])
					}
					id = g.ID
				}
			}
			if id == "" {
				return fmt.Errorf("goal %s: %w", args[0], engine.ErrNotFound)
			}
			if err := a.svc.DeactivateGoal(ctx, u.ID, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Warn.Render("Goal deactivated ")+ui.Muted.Render(shortID(id)))
			return nil
		},
	}
}
