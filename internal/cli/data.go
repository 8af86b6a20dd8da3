package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"stock-forecaster/internal/catalog"
	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/pipeline"
	"stock-forecaster/pkg/utils"
)

func newFetchCmd(app *App) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "fetch <stock>",
		Short: "Download price history and show the latest rows",
		Long: `Download daily price history for a stock and show the last rows.
<stock> is a name from 'forecaster stocks' or its ticker symbol.`,
		Example: `  forecaster fetch Infosys
  forecaster fetch "HDFC Bank" --refresh
  forecaster fetch TCS.NS --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()
			sel, err := selectStock(app, output, args, app.Config.Forecast.MinYears)
			if err != nil {
				return err
			}

			if refresh {
				if err := app.Loader.Invalidate(ctx, sel.Stock.Symbol); err != nil {
					return err
				}
			}

			page := runWithStatus(ctx, output, sel, app.Dashboard.RunPrices)
			if page.Series == nil {
				return page.Err
			}

			if output.IsJSON() {
				return output.JSON(page.RawRecords())
			}
			output.Println()
			output.Bold("Raw Data for %s", sel.Stock.Name)
			renderTable(output, page.RawTable())
			output.Dim("%d trading days from %s to %s (source: %s)",
				page.Series.Len(), utils.FormatDate(page.Series.Start), utils.FormatDate(page.Series.End), page.Series.Source)
			if page.Err != nil {
				output.Warning("%s", pipeline.UserMessage(page.Err, sel.Stock.Symbol))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached candles and download again")
	return cmd
}

func newForecastCmd(app *App) *cobra.Command {
	var years int

	cmd := &cobra.Command{
		Use:   "forecast <stock>",
		Short: "Forecast the close price",
		Example: `  forecaster forecast Infosys --years 2
  forecaster forecast ITC.NS --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			sel, err := selectStock(app, output, args, years)
			if err != nil {
				return err
			}

			page := runWithStatus(cmd.Context(), output, sel, app.Dashboard.Run)
			if !page.OK() {
				return page.Err
			}

			if output.IsJSON() {
				return output.JSON(page.Forecast.Tail(app.Config.Forecast.TailRows))
			}
			output.Println()
			output.Bold("Forecast Data for %s", sel.Stock.Name)
			renderTable(output, page.ForecastTable())
			output.Println()
			printSummary(output, page)
			return nil
		},
	}

	cmd.Flags().IntVarP(&years, "years", "y", 1, "forecast horizon in years")
	return cmd
}

func newExportCmd(app *App) *cobra.Command {
	var (
		years    int
		forecast bool
		outPath  string
	)

	cmd := &cobra.Command{
		Use:   "export <stock>",
		Short: "Write price history or forecast as CSV",
		Example: `  forecaster export Infosys -o infy.csv
  forecaster export "Axis Bank" --forecast --years 3 -o axis_forecast.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			sel, err := selectStock(app, output, args, years)
			if err != nil {
				return err
			}

			table := pipeline.ExportRaw
			run := app.Dashboard.RunPrices
			if forecast {
				table = pipeline.ExportForecast
				run = app.Dashboard.Run
			}

			toStdout := outPath == "" || outPath == "-"
			status := output
			if toStdout {
				status = output.redirect(cmd.ErrOrStderr())
			}
			page := runWithStatus(cmd.Context(), status, sel, run)

			var buf bytes.Buffer
			if err := page.WriteCSV(&buf, table); err != nil {
				if page.Series != nil {
					status.Error("%s", pipeline.UserMessage(err, sel.Stock.Symbol))
				}
				return err
			}

			if toStdout {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}
			output.Success("✓ Wrote %s table for %s to %s", table, sel.Stock.Symbol, outPath)
			return nil
		},
	}

	cmd.Flags().IntVarP(&years, "years", "y", 1, "forecast horizon in years")
	cmd.Flags().BoolVar(&forecast, "forecast", false, "export the forecast instead of the price history")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func newReportCmd(app *App) *cobra.Command {
	var (
		years   int
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "report <stock>",
		Short: "Write every chart for a stock into one HTML file",
		Example: `  forecaster report Infosys --years 2 -o infy.html`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			sel, err := selectStock(app, output, args, years)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = fmt.Sprintf("%s_report.html", sel.Stock.Symbol)
			}

			page := runWithStatus(cmd.Context(), output, sel, app.Dashboard.Run)
			if page.Series == nil {
				return page.Err
			}

			report, failed := page.Report()
			var buf bytes.Buffer
			if err := report.Render(&buf); err != nil {
				return fmt.Errorf("rendering report: %w", err)
			}
			if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}

			for panel, perr := range failed {
				output.Warning("%s: %s", panel, pipeline.UserMessage(perr, sel.Stock.Symbol))
			}
			output.Success("✓ Report written to %s", outPath)
			return nil
		},
	}

	cmd.Flags().IntVarP(&years, "years", "y", 1, "forecast horizon in years")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default: <SYMBOL>_report.html)")
	return cmd
}

// selectStock resolves the positional stock argument. An unknown stock
// lists the catalog names.
func selectStock(app *App, output *Output, args []string, years int) (pipeline.Selection, error) {
	sel, err := app.Dashboard.Select(stockArg(args), years)
	if errors.Is(err, errors.ErrUnknownStock) && !output.IsJSON() {
		output.Dim("Available stocks: %s", strings.Join(catalog.Names(), ", "))
	}
	return sel, err
}

type runFunc func(ctx context.Context, sel pipeline.Selection) *pipeline.Page

// runWithStatus prints the loading status around a pipeline run. JSON
// output stays clean.
func runWithStatus(ctx context.Context, output *Output, sel pipeline.Selection, run runFunc) *pipeline.Page {
	if !output.IsJSON() {
		output.Status(pipeline.StatusLoading)
	}
	page := run(ctx, sel)
	if !output.IsJSON() {
		output.Status(page.Status)
		if page.Err != nil && page.Series == nil {
			output.Error("%s", pipeline.UserMessage(page.Err, sel.Stock.Symbol))
		}
	}
	return page
}

func renderTable(output *Output, t *pipeline.Table) {
	if t == nil {
		return
	}
	table := NewTable(output, t.Columns...)
	for _, row := range t.Rows {
		table.AddRow(row...)
	}
	table.Render()
}

func printSummary(output *Output, page *pipeline.Page) {
	points := page.Input.Points
	last := points[len(points)-1]
	future := page.Forecast.Future()
	if len(future) == 0 {
		return
	}
	end := future[len(future)-1]

	output.Box(fmt.Sprintf("%s, %d year outlook", page.Selection.Stock.Name, page.Selection.Years), []string{
		fmt.Sprintf("Last close   %s on %s", output.Magenta(utils.FormatIndianCurrency(last.Value)), utils.FormatDate(last.Timestamp)),
		fmt.Sprintf("Forecast     %s on %s (%s)", utils.FormatIndianCurrency(end.Yhat), utils.FormatDate(end.Timestamp), output.Change(last.Value, end.Yhat)),
		fmt.Sprintf("Range        %s to %s", utils.FormatIndianCurrency(end.YhatLower), utils.FormatIndianCurrency(end.YhatUpper)),
	})
}
