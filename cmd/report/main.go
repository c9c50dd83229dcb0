package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"sales-analytics/internal/analytics"
	"sales-analytics/internal/config"
	"sales-analytics/internal/enrichment"
	"sales-analytics/internal/ingest"
	"sales-analytics/internal/models"
	"sales-analytics/internal/observability"
	"sales-analytics/internal/report"
)

const (
	totalSteps = 10
	banner     = "           SALES ANALYTICS SYSTEM"
)

type options struct {
	input          string
	enriched       string
	report         string
	xlsx           string
	catalogURL     string
	filter         ingest.Filter
	topN           int
	threshold      int
	skipEnrichment bool
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the batch pipeline and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	logger := observability.NewLoggerTo(stderr, cfg.Logger)
	p := &pipeline{
		cfg:    cfg,
		opts:   opts,
		out:    stdout,
		logger: logger.With(slog.String("component", "report_cli")),
	}

	if err := p.run(ctx); err != nil {
		fmt.Fprintf(stdout, "\nError: %v\n", err)
		if errors.Is(err, ingest.ErrFileNotFound) {
			fmt.Fprintf(stdout, "Please ensure '%s' exists in the correct location.\n", opts.input)
		} else {
			fmt.Fprintln(stdout, "Please check your data and try again.")
		}
		return 1
	}
	return 0
}

func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (options, error) {
	opts := options{}
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.input, "input", cfg.Data.InputFile, "pipe-delimited sales log to read")
	fs.StringVar(&opts.enriched, "enriched", cfg.Data.EnrichedFile, "where to save the enriched records")
	fs.StringVar(&opts.report, "report", cfg.Data.ReportFile, "where to write the text report")
	fs.StringVar(&opts.xlsx, "xlsx", cfg.Data.ExcelFile, "optional xlsx workbook to write")
	fs.StringVar(&opts.catalogURL, "catalog-url", cfg.Catalog.URL, "product catalog endpoint")
	fs.StringVar(&opts.filter.Region, "region", "", "keep only transactions from this region")
	fs.Func("min-amount", "drop transactions below this amount", amountFlag(&opts.filter.MinAmount))
	fs.Func("max-amount", "drop transactions above this amount", amountFlag(&opts.filter.MaxAmount))
	fs.IntVar(&opts.topN, "top", cfg.Analysis.TopN, "number of top products and customers")
	fs.IntVar(&opts.threshold, "threshold", cfg.Analysis.LowThreshold, "quantity below which a product is a low performer")
	fs.BoolVar(&opts.skipEnrichment, "skip-enrichment", !cfg.Catalog.Enabled, "do not call the product catalog")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if err := opts.validate(); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		fs.Usage()
		return options{}, err
	}
	return opts, nil
}

func (o options) validate() error {
	if o.topN < 0 {
		return fmt.Errorf("-top cannot be negative, got %d", o.topN)
	}
	if o.threshold < 0 {
		return fmt.Errorf("-threshold cannot be negative, got %d", o.threshold)
	}
	f := o.filter
	if f.MinAmount != nil && f.MaxAmount != nil && *f.MinAmount > *f.MaxAmount {
		return fmt.Errorf("-min-amount %v is above -max-amount %v", *f.MinAmount, *f.MaxAmount)
	}
	return nil
}

func amountFlag(dst **float64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", s)
		}
		if v < 0 {
			return fmt.Errorf("amount cannot be negative, got %v", v)
		}
		*dst = &v
		return nil
	}
}

type pipeline struct {
	cfg    *config.Config
	opts   options
	out    io.Writer
	logger *slog.Logger
}

func (p *pipeline) step(n int, title string) {
	fmt.Fprintf(p.out, "[%d/%d] %s\n", n, totalSteps, title)
}

func (p *pipeline) done(format string, args ...any) {
	fmt.Fprintf(p.out, "✓ "+format+"\n\n", args...)
}

func (p *pipeline) money(v float64) string {
	return p.cfg.Report.Currency + humanize.FormatFloat(report.MoneyFormat, v)
}

func (p *pipeline) run(ctx context.Context) error {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(p.out, "%s\n%s\n%s\n\n", rule, banner, rule)

	p.step(1, "Reading sales data...")
	lines, enc, err := ingest.ReadLines(p.opts.input)
	if err != nil {
		return err
	}
	p.done("Successfully read %d transactions (%s)", len(lines), enc)

	p.step(2, "Parsing and cleaning data...")
	parsed := ingest.ParseLines(lines)
	if parsed.Skipped > 0 {
		p.done("Parsed %d records (%d malformed lines skipped)", len(parsed.Transactions), parsed.Skipped)
	} else {
		p.done("Parsed %d records", len(parsed.Transactions))
	}

	p.step(3, "Validating transactions...")
	valid, invalid := ingest.NewValidator(p.logger).Validate(parsed.Transactions)
	p.done("Valid: %d | Invalid: %d", len(valid), invalid)

	p.step(4, "Filter Options Available:")
	available := ingest.Options(valid)
	fmt.Fprintf(p.out, "Regions: %s\n", strings.Join(available.Regions, ", "))
	fmt.Fprintf(p.out, "Amount Range: %s - %s\n\n", p.money(available.MinAmount), p.money(available.MaxAmount))

	txs, summary := ingest.ApplyFilter(valid, p.opts.filter)
	if removed := summary.FilteredByRegion + summary.FilteredByAmount; removed > 0 {
		fmt.Fprintf(p.out, "  Filtered out %d (region: %d, amount: %d), %d remaining\n\n",
			removed, summary.FilteredByRegion, summary.FilteredByAmount, summary.FinalCount)
	}

	p.step(5, "Analyzing sales data...")
	rep, err := analytics.Analyze(ctx, txs, analytics.Options{
		TopN:         p.opts.topN,
		LowThreshold: p.opts.threshold,
	})
	if err != nil {
		return fmt.Errorf("analyze sales data: %w", err)
	}
	p.done("Analysis complete")

	p.step(6, "Fetching product data from API...")
	products := []models.ProductInfo{}
	if p.opts.skipEnrichment {
		fmt.Fprintln(p.out, "- Skipped")
		fmt.Fprintln(p.out)
	} else {
		catalog := enrichment.NewCatalogClient(enrichment.CatalogConfig{
			URL:       p.opts.catalogURL,
			Timeout:   p.cfg.Catalog.Timeout,
			RateLimit: p.cfg.Catalog.RateLimit,
			CacheTTL:  p.cfg.Catalog.CacheTTL,
		}, p.logger)
		products = enrichment.FetchOrEmpty(ctx, catalog, p.logger)
		p.done("Fetched %d products", len(products))
	}

	p.step(7, "Enriching sales data...")
	enriched := enrichment.Enrich(txs, enrichment.NewProductMapping(products))
	enrichSummary := enrichment.Summarize(enriched)
	p.done("Enriched %d/%d transactions (%.1f%%)", enrichSummary.Matched, enrichSummary.Total, enrichSummary.SuccessRate)

	p.step(8, "Saving enriched data...")
	if err := enrichment.SaveEnriched(p.opts.enriched, enriched); err != nil {
		return err
	}
	p.done("Saved to: %s", p.opts.enriched)

	p.step(9, "Generating report...")
	if err := report.NewTextRenderer(p.cfg.Report.Currency).WriteFile(p.opts.report, rep, enrichSummary, len(txs)); err != nil {
		return err
	}
	fmt.Fprintf(p.out, "✓ Report saved to: %s\n", p.opts.report)
	if p.opts.xlsx != "" {
		if err := report.NewExcelExporter().WriteFile(p.opts.xlsx, rep, enrichSummary); err != nil {
			return err
		}
		fmt.Fprintf(p.out, "✓ Workbook saved to: %s\n", p.opts.xlsx)
	}
	fmt.Fprintln(p.out)

	p.step(10, "Process Complete!")
	fmt.Fprintln(p.out, rule)
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "Output Files Generated:")
	for _, path := range []string{p.opts.enriched, p.opts.report, p.opts.xlsx} {
		if path != "" {
			fmt.Fprintf(p.out, "  - %s\n", path)
		}
	}

	p.logger.InfoContext(ctx, "report pipeline finished",
		"records", len(txs),
		"invalid", invalid,
		"matched", enrichSummary.Matched,
	)
	return nil
}
