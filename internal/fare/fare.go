// Package fare prices a booking from a per-seat unit price and the
// passenger category counts. It is pure: no state, no I/O.
package fare

// Rates holds the passenger-category discount rates as percentages of the
// adult unit price. The legacy booking paths disagreed on these (children
// at 50% or 70%, infants at 0% or 20% depending on the form), so the rates
// are explicit configuration rather than constants buried in call sites.
type Rates struct {
	ChildPercent  int
	InfantPercent int
}

// DefaultRates is the canonical rule: adults pay full price, children half,
// infants travel free.
var DefaultRates = Rates{ChildPercent: 50, InfantPercent: 0}

type Calculator struct {
	rates Rates
}

func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Quote is the per-category fare breakdown for one booking.
type Quote struct {
	AdultPrice  int64
	ChildPrice  int64
	InfantPrice int64
	Total       int64
}

// Quote computes the total price for the given counts at the given unit
// price. Per-category prices are floored to whole currency units before
// multiplying by the count, matching the legacy integer math.
func (c *Calculator) Quote(unitPrice int64, adults, children, infants int) Quote {
	q := Quote{
		AdultPrice:  unitPrice,
		ChildPrice:  unitPrice * int64(c.rates.ChildPercent) / 100,
		InfantPrice: unitPrice * int64(c.rates.InfantPercent) / 100,
	}
	q.Total = int64(adults)*q.AdultPrice + int64(children)*q.ChildPrice + int64(infants)*q.InfantPrice
	return q
}
