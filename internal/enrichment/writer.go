package enrichment

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sales-analytics/internal/models"
)

var enrichedHeader = []string{
	"TransactionID", "Date", "ProductID", "ProductName", "Quantity", "UnitPrice",
	"CustomerID", "Region", "API_Category", "API_Brand", "API_Rating", "API_Match",
}

// WriteEnriched writes enriched rows in the pipe-delimited log format with
// the API columns appended. Unmatched rows leave the API fields empty.
func WriteEnriched(w io.Writer, enriched []models.EnrichedTransaction) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, strings.Join(enrichedHeader, "|")); err != nil {
		return err
	}

	for _, et := range enriched {
		rating := ""
		if et.Rating != nil {
			rating = strconv.FormatFloat(*et.Rating, 'f', -1, 64)
		}
		row := []string{
			et.TransactionID,
			et.Date,
			et.ProductID,
			et.ProductName,
			strconv.Itoa(et.Quantity),
			et.UnitPrice.String(),
			et.CustomerID,
			et.Region,
			et.Category,
			et.Brand,
			rating,
			matchFlag(et.Matched),
		}
		if _, err := fmt.Fprintln(bw, strings.Join(row, "|")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveEnriched writes the enriched file, creating its directory if needed.
func SaveEnriched(path string, enriched []models.EnrichedTransaction) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create enriched data dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create enriched data file: %w", err)
	}
	defer f.Close()

	if err := WriteEnriched(f, enriched); err != nil {
		return fmt.Errorf("write enriched data: %w", err)
	}
	return f.Close()
}

// matchFlag spells the API_Match column the way downstream readers of the
// enriched file expect it.
func matchFlag(matched bool) string {
	if matched {
		return "True"
	}
	return "False"
}
