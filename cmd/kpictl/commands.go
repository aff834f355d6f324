package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/warp/kpi-engine/calendar"
	"github.com/warp/kpi-engine/distribution"
	"github.com/warp/kpi-engine/kpi"
)

// options shared by every subcommand.
type options struct {
	weekend  string
	holidays []string
}

// resolve builds the weekend policy and a static holiday calendar from flags.
func (o *options) resolve() (calendar.WeekendPolicy, *calendar.StaticCalendar, error) {
	weekend, err := calendar.ParseWeekend(o.weekend)
	if err != nil {
		return nil, nil, err
	}
	cal := calendar.NewStaticCalendar()
	for _, s := range o.holidays {
		d, err := calendar.ParseDate(s)
		if err != nil {
			return nil, nil, fmt.Errorf("--holiday: %w", err)
		}
		cal.Add(calendar.Holiday{Date: d, Name: "cli"})
	}
	return weekend, cal, nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "kpictl",
		Short:         "Spread BOQ quantities over working days",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.weekend, "weekend", "sat-sun", "Non-working weekdays (sat-sun, fri, fri-sat, none)")
	root.PersistentFlags().StringSliceVar(&opts.holidays, "holiday", nil, "Holiday date YYYY-MM-DD (repeatable)")

	root.AddCommand(newDistributeCmd(), newWorkdaysCmd(opts), newPlanCmd(opts))
	return root
}

// =============================================================================
// DISTRIBUTE
// =============================================================================

func newDistributeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distribute <total> <days>",
		Short: "Split a whole quantity across a number of days",
		Long: `Splits total into days near-equal whole parts. The remainder goes one unit
each to the earliest days, so 100 over 7 days is 15 15 14 14 14 14 14.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("total: %w", err)
			}
			days, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("days: %w", err)
			}

			parts, err := distribution.DistributeDecimal(total, days)
			if err != nil {
				return err
			}

			out := make([]string, len(parts))
			for i, p := range parts {
				out[i] = p.String()
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(out, " "))
			return nil
		},
	}
}

// =============================================================================
// WORKDAYS
// =============================================================================

func newWorkdaysCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "workdays <start> <end>",
		Short: "List working days between two dates, inclusive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rng, err := parseRange(args[0], args[1])
			if err != nil {
				return err
			}
			weekend, cal, err := opts.resolve()
			if err != nil {
				return err
			}

			days, err := calendar.Workdays(rng, cal, "", weekend)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, d := range days {
				fmt.Fprintf(w, "%s %s\n", d, d.Weekday().String()[:3])
			}
			fmt.Fprintf(w, "%d workdays\n", len(days))
			return nil
		},
	}
}

// =============================================================================
// PLAN
// =============================================================================

func newPlanCmd(opts *options) *cobra.Command {
	var units, start, end, unit string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the planned KPI records an activity would get",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			qty, err := decimal.NewFromString(units)
			if err != nil {
				return fmt.Errorf("--units: %w", err)
			}
			rng, err := parseRange(start, end)
			if err != nil {
				return err
			}
			weekend, cal, err := opts.resolve()
			if err != nil {
				return err
			}

			gen := kpi.NewGenerator(cal, weekend)
			records, err := gen.Plan(kpi.Activity{
				ID:           "preview",
				Unit:         unit,
				PlannedUnits: qty,
				Rate:         decimal.Zero,
				PlannedStart: rng.Start,
				PlannedEnd:   rng.End,
			})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tQUANTITY\tUNIT")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Date, r.Quantity, r.Unit)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&units, "units", "", "Planned BOQ quantity (whole number)")
	cmd.Flags().StringVar(&start, "start", "", "Planned start YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "Planned end YYYY-MM-DD")
	cmd.Flags().StringVar(&unit, "unit", "unit", "Unit of measure")
	_ = cmd.MarkFlagRequired("units")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func parseRange(start, end string) (calendar.Range, error) {
	s, err := calendar.ParseDate(start)
	if err != nil {
		return calendar.Range{}, fmt.Errorf("start: %w", err)
	}
	e, err := calendar.ParseDate(end)
	if err != nil {
		return calendar.Range{}, fmt.Errorf("end: %w", err)
	}
	return calendar.Range{Start: s, End: e}, nil
}
