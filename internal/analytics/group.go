package analytics

import (
	"github.com/shopspring/decimal"

	"sales-analytics/internal/models"
)

// UnknownKey buckets records whose grouping field is empty.
const UnknownKey = "Unknown"

// Group is one bucket produced by GroupBy.
type Group[A any] struct {
	Key   string
	Value A
}

// GroupBy folds records into one accumulator per key. Buckets come back in the
// order their key was first seen in records, which is what every analyzer's
// stable sort relies on to break ties.
func GroupBy[A any](
	records []models.Transaction,
	key func(models.Transaction) string,
	init func() A,
	fold func(A, models.Transaction) A,
) []Group[A] {
	index := make(map[string]int)
	groups := make([]Group[A], 0)

	for _, tx := range records {
		k := key(tx)
		if k == "" {
			k = UnknownKey
		}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[A]{Key: k, Value: init()})
		}
		groups[i].Value = fold(groups[i].Value, tx)
	}

	return groups
}

// tally is the sum/count accumulator most analyzers start from.
type tally struct {
	amount   decimal.Decimal
	quantity int
	count    int
}

func newTally() tally {
	return tally{amount: decimal.Zero}
}

func (t tally) add(tx models.Transaction) tally {
	t.amount = t.amount.Add(tx.Amount())
	t.quantity += tx.Quantity
	t.count++
	return t
}

// distinctSet answers membership through a map and lists members in
// first-seen order.
type distinctSet struct {
	seen  map[string]struct{}
	order []string
}

func newDistinctSet() *distinctSet {
	return &distinctSet{seen: make(map[string]struct{})}
}

func (s *distinctSet) add(v string) {
	if v == "" {
		v = UnknownKey
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.order = append(s.order, v)
}

func (s *distinctSet) len() int {
	return len(s.order)
}

func (s *distinctSet) values() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

var hundred = decimal.NewFromInt(100)

// round2 converts money to float64 rounded half away from zero to cents.
func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// ratio returns num/den rounded to cents, or 0 when den is zero.
func ratio(num, den decimal.Decimal) float64 {
	if den.IsZero() {
		return 0
	}
	return round2(num.Div(den))
}
