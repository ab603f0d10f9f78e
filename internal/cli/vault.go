package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stakeday/stakeday/internal/daemon"
	"github.com/stakeday/stakeday/internal/domain"
)

// ─── Proofs, Rewards, Reset ─────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(proofCmd)
	rootCmd.AddCommand(rewardCmd)
	rootCmd.AddCommand(resetCmd)

	rewardCmd.AddCommand(rewardAddCmd)
	rewardCmd.AddCommand(rewardListCmd)
	rewardCmd.AddCommand(rewardClaimCmd)

	proofCmd.Flags().IntP("limit", "n", 10, "entries to show when listing")
	rewardAddCmd.Flags().Int("at", 7, "streak that unlocks the reward")
	resetCmd.Flags().Bool("yes", false, "confirm wiping all data")
}

// ─── proof ──────────────────────────────────────────────────────────────────

var proofCmd = &cobra.Command{
	Use:   "proof [NOTE...]",
	Short: "Log proof of today's work, or list recent proofs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(d *daemon.Daemon) error {
			out := cmd.OutOrStdout()
			if len(args) > 0 {
				entry, ok := d.Store.AddProof(strings.Join(args, " "))
				if !ok {
					return domain.ErrEmptyText
				}
				fmt.Fprintf(out, "%s Logged (streak %d, %d%% done)\n", IconScroll, entry.Streak, entry.Progress)
				return nil
			}

			limit, _ := cmd.Flags().GetInt("limit")
			entries := d.Store.Proofs(limit)
			if len(entries) == 0 {
				fmt.Fprintln(out, "No proofs logged yet.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s %s\n",
					Muted.Render(e.Date.Format("2006-01-02 15:04")),
					e.Note,
					Muted.Render(fmt.Sprintf("(streak %d, %d%%)", e.Streak, e.Progress)))
			}
			return nil
		})
	},
}

// ─── reward ─────────────────────────────────────────────────────────────────

var rewardCmd = &cobra.Command{
	Use:   "reward",
	Short: "Manage rewards unlocked by your streak",
}

var rewardAddCmd = &cobra.Command{
	Use:   "add TITLE...",
	Short: "Add a reward",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, _ := cmd.Flags().GetInt("at")
		return withSession(func(d *daemon.Daemon) error {
			item, ok := d.Store.AddReward(strings.Join(args, " "), strconv.Itoa(at))
			if !ok {
				return errors.New("reward needs a title and --at of at least 1")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %q unlocks at a %d-day streak (%s)\n", IconTrophy, item.Title, item.UnlockStreak, shortID(item.ID))
			return nil
		})
	},
}

var rewardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rewards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(d *daemon.Daemon) error {
			out := cmd.OutOrStdout()
			st := d.Store.Status()
			if len(st.Rewards) == 0 {
				fmt.Fprintln(out, "No rewards yet. Add one with 'stakeday reward add <title> --at <days>'.")
				return nil
			}
			for _, r := range st.Rewards {
				var state string
				switch {
				case r.Claimed:
					state = Muted.Render("claimed")
				case r.Unlocked:
					state = Gold.Render(IconTrophy + " ready to claim")
				default:
					state = Muted.Render(fmt.Sprintf("%s %d day(s) to go", IconLock, r.DaysToGo))
				}
				fmt.Fprintf(out, "%s  %s  %s\n", shortID(r.ID), r.Title, state)
			}
			return nil
		})
	},
}

var rewardClaimCmd = &cobra.Command{
	Use:   "claim ID",
	Short: "Claim an unlocked reward",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(d *daemon.Daemon) error {
			id := args[0]
			for _, r := range d.Store.Snapshot().State.Rewards {
				if strings.HasPrefix(r.ID, id) {
					id = r.ID
					break
				}
			}
			item, err := d.Store.ClaimReward(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Enjoy %q\n", IconTrophy, item.Title)
			return nil
		})
	},
}

// ─── reset ──────────────────────────────────────────────────────────────────

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe all tasks, wallet settings and proofs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errors.New("reset wipes everything; pass --yes to confirm")
		}
		return withSession(func(d *daemon.Daemon) error {
			d.Store.Reset()
			fmt.Fprintln(cmd.OutOrStdout(), "All data reset.")
			return nil
		})
	},
}
