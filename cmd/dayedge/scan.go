package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/analysis"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/app"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

var (
	scanDate    string
	scanAll     bool
	scanSymbols []string
	scanJSON    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan and print the ranked results",
	Long: `Run one scan over the configured universe (or --symbols) and print the
ranked results. The result is persisted to the configured storage, so a
running server picks it up on its next restart.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanDate, "date", "", "trading date YYYY-MM-DD (default: next trading date)")
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "include symbols below grade B")
	scanCmd.Flags().StringSliceVar(&scanSymbols, "symbols", nil, "comma-separated symbols instead of the configured universe")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print the scan as JSON")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	req := app.Request{
		Trigger: core.TriggerCLI,
		ShowAll: scanAll || cfg.Scan.ShowAll,
	}
	if scanDate != "" {
		if req.Date, err = c.scanner.ParseDate(scanDate); err != nil {
			return err
		}
	}
	for _, s := range scanSymbols {
		if !core.ValidSymbol(s) {
			return core.WrapError(core.ErrInvalidRequest, fmt.Errorf("invalid symbol %q", s))
		}
	}
	req.Symbols = core.DedupeSymbols(scanSymbols)

	res, err := c.scanner.Run(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if scanJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return printScan(out, res)
}

// printScan writes a ranked table followed by skipped symbols.
func printScan(out io.Writer, res *core.ScanResult) error {
	fmt.Fprintf(out, "Scan %s for %s: %d of %d symbols scored, %d qualified\n\n",
		res.ID, res.Date, res.Succeeded, res.Attempted, res.Qualified)

	if len(res.Results) == 0 {
		fmt.Fprintln(out, "No symbols met the minimum grade.")
	} else {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "#\tSYMBOL\tGRADE\tSCORE\tGAP\tRVOL\tGAP/VOL/TECH/NEWS\t")
		for i, r := range res.Results {
			if r.Score == nil || r.Signals == nil {
				continue
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d/%d\t%+.2f%%\t%.2fx\t%d/%d/%d/%d\t\n",
				i+1, r.Symbol, r.Score.Grade, r.Score.Total, analysis.MaxTotal,
				r.Signals.GapPercent, r.Signals.RelativeVolume,
				r.Score.GapPoints, r.Score.VolumePoints, r.Score.TechnicalPoints, r.Score.CatalystPoints)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(res.Failed) > 0 {
		fmt.Fprintf(out, "\nSkipped %d symbols:\n", len(res.Failed))
		for _, f := range res.Failed {
			if f.Error != nil {
				fmt.Fprintf(out, "  %s: %s\n", f.Symbol, f.Error.Code)
			}
		}
	}
	return nil
}
