package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stakeday/stakeday/internal/daemon"
	"github.com/stakeday/stakeday/internal/domain"
)

// ─── Wallet CLI ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(depositCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(deadlineCmd)
	rootCmd.AddCommand(strictCmd)
	rootCmd.AddCommand(penaltyCmd)
	rootCmd.AddCommand(ledgerCmd)

	ledgerCmd.Flags().IntP("limit", "n", 20, "number of entries to show")
}

var depositCmd = &cobra.Command{
	Use:   "deposit AMOUNT",
	Short: "Add money to your stake",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(d *daemon.Daemon) error {
			amount, ok := d.Store.Deposit(args[0])
			if !ok {
				return fmt.Errorf("%q is not a positive amount", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Deposited %s. Balance %s\n",
				IconMoney, Money(amount), Gold.Render(Money(d.Store.Status().StakeBalance)))
			return nil
		})
	},
}

var rateCmd = &cobra.Command{
	Use:   "rate AMOUNT",
	Short: "Set the penalty per missed task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(d *daemon.Daemon) error {
			rate := d.Store.SetStakeRate(args[0])
			fmt.Fprintln(cmd.OutOrStdout(), LabelValue("Per missed task", Money(rate)))
			return nil
		})
	},
}

var deadlineCmd = &cobra.Command{
	Use:   "deadline HH:MM",
	Short: "Set the daily deadline (24-hour clock)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(d *daemon.Daemon) error {
			deadline, ok := d.Store.SetDeadline(args[0])
			if !ok {
				return fmt.Errorf("%q is not a valid HH:MM time", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), LabelValue("Deadline", IconClock+" "+deadline))
			return nil
		})
	},
}

var strictCmd = &cobra.Command{
	Use:       "strict on|off",
	Short:     "Turn deadline penalties on or off",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var on bool
		switch strings.ToLower(args[0]) {
		case "on", "true", "yes":
			on = true
		case "off", "false", "no":
		default:
			return fmt.Errorf("expected on or off, got %q", args[0])
		}
		return withSession(func(d *daemon.Daemon) error {
			d.Store.SetStrictMode(on)
			state := Muted.Render("off")
			if on {
				state = Warn.Render("on")
			}
			fmt.Fprintln(cmd.OutOrStdout(), LabelValue("Strict mode", state))
			return nil
		})
	},
}

var penaltyCmd = &cobra.Command{
	Use:   "penalty",
	Short: "Apply today's penalty if it is due",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(d *daemon.Daemon) error {
			out := cmd.OutOrStdout()
			amount, ok := d.Store.ApplyPenalty()
			st := d.Store.Status()
			if !ok {
				fmt.Fprintln(out, Muted.Render(domain.ErrPenaltyNotDue.Error()))
				p := st.Penalty
				switch {
				case !st.StrictMode:
					fmt.Fprintln(out, Muted.Render("Strict mode is off."))
				case p.AlreadyApplied:
					fmt.Fprintln(out, Muted.Render("Already applied today."))
				case !p.DeadlinePassed:
					fmt.Fprintln(out, Muted.Render("Deadline "+st.DeadlineTime+" has not passed."))
				case p.MissedTasks == 0:
					fmt.Fprintln(out, Good.Render("Every task is done."))
				}
				return nil
			}
			fmt.Fprintf(out, "%s %s deducted. Balance %s\n", IconWarn, Bad.Render(Money(amount)), Gold.Render(Money(st.StakeBalance)))
			return nil
		})
	},
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show wallet deposits and penalties",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withSession(func(d *daemon.Daemon) error {
			out := cmd.OutOrStdout()
			entries, err := d.Store.Ledger(limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No wallet activity yet.")
				return nil
			}
			for _, e := range entries {
				amount := Good.Render("+" + Money(e.Amount))
				if e.Type == domain.TxPenalty {
					amount = Bad.Render("-" + Money(e.Amount))
				}
				fmt.Fprintf(out, "%s  %-8s %s  %s\n", e.DateKey, e.Type, amount, Muted.Render("bal "+Money(e.Balance)))
			}
			if d.DB != nil {
				if total, err := d.DB.PenaltyTotal(); err == nil {
					fmt.Fprintln(out, LabelValue("Penalties in ledger", Money(total)))
				}
			}
			return nil
		})
	},
}
