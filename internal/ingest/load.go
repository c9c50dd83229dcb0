package ingest

import (
	"context"
	"log/slog"

	"sales-analytics/internal/models"
)

// Result is what the ingest chain hands to the aggregation engine.
type Result struct {
	Transactions []models.Transaction
	Encoding     string
	LinesRead    int
	Skipped      int
	Options      FilterOptions
	Summary      FilterSummary
}

type Loader struct {
	validator *Validator
	logger    *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		validator: NewValidator(logger),
		logger:    logger.With(slog.String("component", "ingest")),
	}
}

// Load reads, parses, validates and filters the sales log at path.
func (l *Loader) Load(ctx context.Context, path string, f Filter) (*Result, error) {
	lines, enc, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	l.logger.InfoContext(ctx, "read sales data", "path", path, "lines", len(lines), "encoding", enc)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parsed := ParseLines(lines)
	l.logger.InfoContext(ctx, "parsed transactions",
		"parsed", len(parsed.Transactions),
		"skipped", parsed.Skipped,
	)

	valid, invalid := l.validator.Validate(parsed.Transactions)
	opts := Options(valid)
	l.logger.InfoContext(ctx, "validated transactions",
		"valid", len(valid),
		"invalid", invalid,
		"regions", opts.Regions,
		"min_amount", opts.MinAmount,
		"max_amount", opts.MaxAmount,
	)

	filtered, summary := ApplyFilter(valid, f)
	summary.TotalInput = len(parsed.Transactions)
	summary.Invalid = invalid
	if f.Region != "" || f.MinAmount != nil || f.MaxAmount != nil {
		l.logger.InfoContext(ctx, "applied filters",
			"region", f.Region,
			"filtered_by_region", summary.FilteredByRegion,
			"filtered_by_amount", summary.FilteredByAmount,
			"final_count", summary.FinalCount,
		)
	}

	return &Result{
		Transactions: filtered,
		Encoding:     enc,
		LinesRead:    len(lines),
		Skipped:      parsed.Skipped,
		Options:      opts,
		Summary:      summary,
	}, nil
}
