package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stakeday/stakeday/internal/app/session"
	"github.com/stakeday/stakeday/internal/app/suggest"
	"github.com/stakeday/stakeday/internal/daemon"
	"github.com/stakeday/stakeday/internal/domain"
)

// ─── Planner CLI ────────────────────────────────────────────────────────────
// status, plan, suggest, add, done, rm, list and target all work on the
// local database directly. Actions may be named by id or by list number.

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(targetCmd)

	planCmd.Flags().StringP("goal", "g", "", "what you want to get done")
	planCmd.Flags().StringP("blocker", "b", "", "what is stopping you")
	planCmd.Flags().StringP("why", "w", "", "why it matters")

	suggestCmd.Flags().Bool("preview", false, "show suggestions without adding them")
	suggestCmd.Flags().StringP("goal", "g", "", "goal to preview (with --preview)")
	suggestCmd.Flags().StringP("blocker", "b", "", "blocker to preview (with --preview)")
}

// ─── status ─────────────────────────────────────────────────────────────────

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's progress, streak and wallet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(d *daemon.Daemon) error {
			printStatus(cmd, d.Store.Snapshot())
			return nil
		})
	},
}

func printStatus(cmd *cobra.Command, v session.View) {
	out := cmd.OutOrStdout()
	st := v.Status

	plan := strings.Join([]string{
		LabelValue("Goal", OrPlaceholder(v.State.Goal, "not set")),
		LabelValue("Blocker", OrPlaceholder(v.State.Blocker, "not set")),
		LabelValue("Why", OrPlaceholder(v.State.Why, "not set")),
		LabelValue("Resistance", st.Resistance),
	}, "\n")

	weekly := fmt.Sprintf("%d/%d days", st.WeeklyActiveDays, st.WeeklyTarget)
	if st.WeeklyTargetMet {
		weekly = Good.Render(weekly)
	}
	progress := strings.Join([]string{
		LabelValue("Today", fmt.Sprintf("%s  %d/%d", ProgressBar(st.DailyProgress, 20), st.CompletedToday, st.TotalActions)),
		LabelValue("Streak", fmt.Sprintf("%s %d (best %d)", IconFire, st.Streak, st.LongestStreak)),
		LabelValue("This week", weekly),
	}, "\n")

	strict := Muted.Render("off")
	if st.StrictMode {
		strict = Warn.Render("on")
	}
	wallet := strings.Join([]string{
		LabelValue("Balance", Gold.Render(Money(st.StakeBalance))),
		LabelValue("Per missed task", Money(st.StakePerMiss)),
		LabelValue("Deadline", IconClock+" "+st.DeadlineTime),
		LabelValue("Strict mode", strict),
		LabelValue("Penalties so far", Money(st.TotalPenalties)),
	}, "\n")

	fmt.Fprintln(out, Heading(IconTarget, "stakeday  "+st.Today))
	fmt.Fprintln(out, Panel.Render(plan))
	fmt.Fprintln(out, Panel.Render(progress))
	fmt.Fprintln(out, Panel.Render(wallet))

	switch p := st.Penalty; {
	case p.AlreadyApplied:
		fmt.Fprintln(out, Muted.Render("Penalty already applied today."))
	case p.CanApply:
		fmt.Fprintf(out, "%s %s\n", IconWarn, Bad.Render(fmt.Sprintf("%d task(s) missed: %s due. Run 'stakeday penalty'.", p.MissedTasks, Money(p.PenaltyToday))))
	case st.StrictMode && p.MissedTasks > 0:
		fmt.Fprintln(out, Warn.Render(fmt.Sprintf("%d task(s) open, %s at stake by %s.", p.MissedTasks, Money(p.PenaltyToday), st.DeadlineTime)))
	}
}

// ─── plan ───────────────────────────────────────────────────────────────────

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Set your goal, blocker and why",
	Long:  `Set any of goal, blocker and why. Flags you leave out keep their current value.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(d *daemon.Daemon) error {
			cur := d.Store.Snapshot().State
			goal, blocker, why := cur.Goal, cur.Blocker, cur.Why
			if cmd.Flags().Changed("goal") {
				goal, _ = cmd.Flags().GetString("goal")
			}
			if cmd.Flags().Changed("blocker") {
				blocker, _ = cmd.Flags().GetString("blocker")
			}
			if cmd.Flags().Changed("why") {
				why, _ = cmd.Flags().GetString("why")
			}
			v := d.Store.SetPlan(goal, blocker, why)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, LabelValue("Goal", OrPlaceholder(v.State.Goal, "not set")))
			fmt.Fprintln(out, LabelValue("Blocker", OrPlaceholder(v.State.Blocker, "not set")))
			fmt.Fprintln(out, LabelValue("Why", OrPlaceholder(v.State.Why, "not set")))
			fmt.Fprintln(out, LabelValue("Resistance", v.Status.Resistance))
			return nil
		})
	},
}

// ─── suggest ────────────────────────────────────────────────────────────────

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Generate small tasks from your goal and blocker",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if preview, _ := cmd.Flags().GetBool("preview"); preview {
			goal, _ := cmd.Flags().GetString("goal")
			blocker, _ := cmd.Flags().GetString("blocker")
			a := suggest.Analyze(goal, blocker)
			fmt.Fprintln(out, LabelValue("Resistance", a.Resistance))
			for i, s := range suggest.Suggest(goal, blocker) {
				fmt.Fprintf(out, "  %d. %s\n", i+1, s)
			}
			return nil
		}
		return withSession(func(d *daemon.Daemon) error {
			suggestions, added := d.Store.Suggest()
			fmt.Fprintln(out, Heading(IconIdea, "Suggestions"))
			for i, s := range suggestions {
				fmt.Fprintf(out, "  %d. %s\n", i+1, s)
			}
			fmt.Fprintf(out, "%s\n", Muted.Render(fmt.Sprintf("%d new task(s) added, %d already on your list.", added, len(suggestions)-added)))
			return nil
		})
	},
}

// ─── add / done / rm / list ─────────────────────────────────────────────────

var addCmd = &cobra.Command{
	Use:   "add TEXT...",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(d *daemon.Daemon) error {
			item, ok := d.Store.AddAction(strings.Join(args, " "))
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), Muted.Render("Already on your list."))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Added %q (%s)\n", IconOpen, item.Text, shortID(item.ID))
			return nil
		})
	},
}

var doneCmd = &cobra.Command{
	Use:   "done ID|NUMBER",
	Short: "Toggle a task done for today",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(d *daemon.Daemon) error {
			a, err := resolveAction(d.Store.Snapshot().State.Actions, args[0])
			if err != nil {
				return err
			}
			done, err := d.Store.ToggleToday(a.ID)
			if err != nil {
				return err
			}
			st := d.Store.Status()
			if done {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", IconDone, a.Text)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", IconOpen, a.Text)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s %d\n", ProgressBar(st.DailyProgress, 20), IconFire, st.Streak)
			return nil
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm ID|NUMBER",
	Short: "Remove a task and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(d *daemon.Daemon) error {
			a, err := resolveAction(d.Store.Snapshot().State.Actions, args[0])
			if err != nil {
				return err
			}
			if err := d.Store.RemoveAction(a.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %q\n", a.Text)
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks with today's completion",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(d *daemon.Daemon) error {
			v := d.Store.Snapshot()
			out := cmd.OutOrStdout()
			if len(v.State.Actions) == 0 {
				fmt.Fprintln(out, "No tasks yet.")
				fmt.Fprintln(out, "Use 'stakeday suggest' or 'stakeday add <text>'.")
				return nil
			}
			for i, a := range v.State.Actions {
				icon := IconOpen
				if a.CompletedOn(v.Status.Today) {
					icon = IconDone
				}
				fmt.Fprintf(out, "%2d. %s %s %s\n", i+1, icon, a.Text, Muted.Render(shortID(a.ID)))
			}
			return nil
		})
	},
}

// ─── target ─────────────────────────────────────────────────────────────────

var targetCmd = &cobra.Command{
	Use:   "target DAYS",
	Short: "Set how many active days per week you aim for (1-7)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(d *daemon.Daemon) error {
			got := d.Store.SetWeeklyTarget(args[0])
			fmt.Fprintln(cmd.OutOrStdout(), LabelValue("Weekly target", fmt.Sprintf("%d days", got)))
			return nil
		})
	},
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// resolveAction finds an action by 1-based list number, id or id prefix.
func resolveAction(actions []domain.ActionItem, ref string) (domain.ActionItem, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(actions) {
			return actions[n-1], nil
		}
		return domain.ActionItem{}, fmt.Errorf("no task number %d: %w", n, domain.ErrActionNotFound)
	}
	var match *domain.ActionItem
	for i := range actions {
		if actions[i].ID == ref {
			return actions[i], nil
		}
		if strings.HasPrefix(actions[i].ID, ref) {
			if match != nil {
				return domain.ActionItem{}, errors.New("ambiguous task id " + ref)
			}
			match = &actions[i]
		}
	}
	if match == nil {
		return domain.ActionItem{}, fmt.Errorf("%q: %w", ref, domain.ErrActionNotFound)
	}
	return *match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
