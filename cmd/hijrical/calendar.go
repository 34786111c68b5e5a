package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"hijrical/internal/calendar"
	"hijrical/internal/engine"
	"hijrical/internal/model"
	"hijrical/internal/parse"
)

// load builds the app and runs one forced refresh.
func load(ctx context.Context, opts *RootOptions) (*app, *engine.Engine, error) {
	a, err := newApp(opts.cfg)
	if err != nil {
		return nil, nil, err
	}
	if _, err := a.service.Refresh(ctx, true); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", a.service.Status().Error, err)
	}
	return a, a.service.Engine(), nil
}

// NewRefreshCommand creates the refresh command.
func NewRefreshCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch all sources once and print the resolved calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := load(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defs := a.service.Definitions()
			st := a.service.Status()
			out := struct {
				Status calendar.Status         `json:"status"`
				Months []model.MonthDefinition `json:"months"`
			}{st, defs}
			return rootOpts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				printMonths(w, defs)
				if st.Authority != nil {
					fmt.Fprintf(w, "\nauthority: %s\n", st.Authority.Name)
				}
			})
		},
	}
}

func printMonths(w io.Writer, defs []model.MonthDefinition) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MONTH\tSTART\tLENGTH\tSOURCE")
	for _, d := range defs {
		fmt.Fprintf(tw, "%s %d\t%s\t%d\t%s\n",
			model.MonthName(d.HijriMonth), d.HijriYear, model.FormatDate(d.GregorianStartDate), d.Length, d.Source)
	}
	tw.Flush()
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	var fallbackYear int

	cmd := &cobra.Command{
		Use:   "convert [<gregorian-date> | <hijri-year> <month> <day>]",
		Short: "Convert between Gregorian and Hijri dates",
		Long: `Convert a Gregorian date (default today) to its Hijri date, or a Hijri
date given as year, month and day to its Gregorian date. A Hijri year of 0
means the date recurs annually and --fallback-year is used.

Gregorian dates are YYYY-MM-DD or long form, such as "February 18, 2026".`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 && len(args) != 3 {
				return fmt.Errorf("expected a Gregorian date or a Hijri year, month and day")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, eng, err := load(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			if len(args) == 3 && isNumber(args[0]) {
				return toGregorian(cmd, rootOpts, eng, args, fallbackYear)
			}
			return toHijri(cmd, rootOpts, eng, strings.Join(args, " "))
		},
	}

	cmd.Flags().IntVar(&fallbackYear, "fallback-year", 0, "Hijri year for a date given with year 0")

	return cmd
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// parseDay reads a Gregorian date as YYYY-MM-DD or in long form.
func parseDay(s string, loc *time.Location) (time.Time, error) {
	t, err := model.ParseDate(s, loc)
	if err == nil {
		return t, nil
	}
	if t, ok := parse.ParseGregorian(s, loc); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD or like \"February 18, 2026\": %w", err)
}

func toHijri(cmd *cobra.Command, opts *RootOptions, eng *engine.Engine, arg string) error {
	day := model.StartOfDay(time.Now(), eng.Location())
	if arg != "" {
		t, err := parseDay(arg, eng.Location())
		if err != nil {
			return err
		}
		day = t
	}
	h, ok := eng.HijriDateFor(day)
	if !ok {
		return fmt.Errorf("%s is outside the known calendar", model.FormatDate(day))
	}
	out := struct {
		Date  string          `json:"date"`
		Hijri model.HijriDate `json:"hijri"`
	}{model.FormatDate(day), h}
	return opts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
		fmt.Fprintf(w, "%s = %s\n", out.Date, h)
	})
}

func toGregorian(cmd *cobra.Command, opts *RootOptions, eng *engine.Engine, args []string, fallbackYear int) error {
	nums := make([]int, 3)
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("invalid number %q", a)
		}
		nums[i] = n
	}
	h := model.HijriDate{Year: nums[0], Month: nums[1], Day: nums[2]}
	t, ok := eng.GregorianDateFor(h, fallbackYear)
	if !ok {
		return fmt.Errorf("%s is outside the known calendar", h)
	}
	out := struct {
		Hijri model.HijriDate `json:"hijri"`
		Date  string          `json:"date"`
	}{h, model.FormatDate(t)}
	return opts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
		fmt.Fprintf(w, "%s = %s\n", h, out.Date)
	})
}

// NewOccurrencesCommand creates the occurrences command.
func NewOccurrencesCommand(rootOpts *RootOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "occurrences",
		Short: "List stored reminders' occurrences in a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, eng, err := load(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			iv, err := rangeOf(from, to, eng.Location())
			if err != nil {
				return err
			}

			type occurrence struct {
				ReminderID string    `json:"reminder_id"`
				Title      string    `json:"title"`
				Start      time.Time `json:"start"`
			}
			var out []occurrence
			for _, r := range a.reminders.List() {
				for _, t := range eng.OccurrenceDates(r, iv) {
					out = append(out, occurrence{ReminderID: r.ID, Title: r.Title, Start: t})
				}
			}
			return rootOpts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "START\tTITLE")
				for _, o := range out {
					fmt.Fprintf(tw, "%s\t%s\n", o.Start.Format("2006-01-02 15:04"), o.Title)
				}
				tw.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day (default today)")
	cmd.Flags().StringVar(&to, "to", "", "day after the last (default from + 365 days)")

	return cmd
}

func rangeOf(from, to string, loc *time.Location) (model.Interval, error) {
	start := model.StartOfDay(time.Now(), loc)
	if from != "" {
		t, err := parseDay(from, loc)
		if err != nil {
			return model.Interval{}, fmt.Errorf("--from: %w", err)
		}
		start = t
	}
	end := model.AddDays(start, 365)
	if to != "" {
		t, err := parseDay(to, loc)
		if err != nil {
			return model.Interval{}, fmt.Errorf("--to: %w", err)
		}
		end = t
	}
	return model.Interval{Start: start, End: end}, nil
}
