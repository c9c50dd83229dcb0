package ingest

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"sales-analytics/internal/models"
)

const (
	fieldSeparator = "|"
	fieldCount     = 8
)

type ParseResult struct {
	Transactions []models.Transaction
	Skipped      int
}

// ParseLines turns pipe-delimited lines into transactions. Lines with the
// wrong number of fields or unparseable numbers are skipped and counted.
func ParseLines(lines []string) ParseResult {
	result := ParseResult{Transactions: make([]models.Transaction, 0, len(lines))}
	for _, line := range lines {
		tx, ok := parseLine(line)
		if !ok {
			result.Skipped++
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result
}

func parseLine(line string) (models.Transaction, bool) {
	fields := strings.Split(line, fieldSeparator)
	if len(fields) != fieldCount {
		return models.Transaction{}, false
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	quantity, err := strconv.Atoi(stripCommas(fields[4]))
	if err != nil {
		return models.Transaction{}, false
	}

	price, err := decimal.NewFromString(stripCommas(fields[5]))
	if err != nil {
		return models.Transaction{}, false
	}

	return models.Transaction{
		TransactionID: fields[0],
		Date:          fields[1],
		ProductID:     fields[2],
		ProductName:   strings.ReplaceAll(fields[3], ",", " "),
		Quantity:      quantity,
		UnitPrice:     price,
		CustomerID:    fields[6],
		Region:        fields[7],
	}, true
}

func stripCommas(s string) string {
	return strings.ReplaceAll(s, ",", "")
}
