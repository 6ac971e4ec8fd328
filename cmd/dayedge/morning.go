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

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

var morningJSON bool

var morningCmd = &cobra.Command{
	Use:   "morning",
	Short: "Re-check the latest scan's picks against the pre-market move",
	Long: `Re-check the graded picks of the latest persisted scan against fresh
pre-market data and print the ones still moving up, catalyst names first.`,
	RunE: runMorning,
}

func init() {
	morningCmd.Flags().BoolVar(&morningJSON, "json", false, "print the list as JSON")
	rootCmd.AddCommand(morningCmd)
}

func runMorning(cmd *cobra.Command, args []string) error {
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

	list, err := c.scanner.RunMorning(ctx, core.TriggerCLI)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if morningJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}
	return printMorning(out, list)
}

// printMorning writes the go-list with trade levels.
func printMorning(out io.Writer, list *core.MorningList) error {
	fmt.Fprintf(out, "Morning check of scan %s for %s: %d of %d picks confirmed\n\n",
		list.ScanID, list.Date, len(list.Picks), list.Checked)

	if len(list.Picks) == 0 {
		fmt.Fprintln(out, list.Message)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "SYMBOL\tGRADE\tCHANGE\tNEWS\tENTRY\tSTOP\tTARGET\tR:R\t")
	for _, p := range list.Picks {
		news := "-"
		if p.Catalyst {
			news = "yes"
		}
		if l := p.Levels; l != nil {
			fmt.Fprintf(tw, "%s\t%s\t%+.2f%%\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
				p.Symbol, p.Grade, p.ChangePercent, news, l.Entry, l.Stop, l.Target2, l.RiskReward)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%+.2f%%\t%s\t-\t-\t-\t-\t\n", p.Symbol, p.Grade, p.ChangePercent, news)
	}
	return tw.Flush()
}
