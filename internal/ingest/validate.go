package ingest

import (
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"sales-analytics/internal/models"
)

// Validator applies the record rules declared on models.Transaction:
// every field present, quantity and price positive, T/P/C id prefixes and a
// non-blank region.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New()
	// decimal.Decimal is validated through its float value so "gt=0" applies.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		validate: v,
		logger:   logger.With(slog.String("component", "validator")),
	}
}

// Check reports why a single transaction is invalid, or nil.
func (v *Validator) Check(tx models.Transaction) error {
	tx.Region = strings.TrimSpace(tx.Region)
	return v.validate.Struct(tx)
}

// Validate splits transactions into the valid ones and a count of the rest.
func (v *Validator) Validate(txs []models.Transaction) ([]models.Transaction, int) {
	valid := make([]models.Transaction, 0, len(txs))
	invalid := 0
	for _, tx := range txs {
		if err := v.Check(tx); err != nil {
			invalid++
			v.logger.Debug("invalid transaction",
				"transaction_id", tx.TransactionID,
				"error", err,
			)
			continue
		}
		valid = append(valid, tx)
	}
	return valid, invalid
}
