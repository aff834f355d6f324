/*
Package distribution spreads a planned quantity over a run of workdays.

PURPOSE:
  When a BOQ activity is created or edited, its planned units are split into
  one allocation per workday between the planned start and completion dates.
  The kpi package pairs each allocation with a date to build planned KPI
  records.

ALGORITHM:
  base      = floor(total / days)
  remainder = total - base*days        (0 <= remainder < days)
  day i     = base + 1  if i < remainder
              base      otherwise

  Example: 100 units over 7 days
    base = 14, remainder = 2
    [15, 15, 14, 14, 14, 14, 14]

GUARANTEES:
  - len(result) == days
  - sum(result) == total, exactly (integer arithmetic only)
  - max(result) - min(result) <= 1
  - extra units land on the earliest days

INPUT DOMAIN:
  days >= 1 and total >= 0, whole units. Anything else returns *InputError
  rather than a partial or empty slice.

CONCURRENCY:
  Every function here is pure. Safe to call from any number of goroutines.

SEE ALSO:
  - kpi/generator.go: Consumes the allocation
  - calendar/workdays.go: Produces the day count
*/
package distribution

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Distribute splits total into days buckets as evenly as possible. The first
// total%days buckets receive one extra unit.
func Distribute(total int64, days int) ([]int64, error) {
	if err := validate(strconv.FormatInt(total, 10), total < 0, days); err != nil {
		return nil, err
	}

	n := int64(days)
	base := total / n
	remainder := total - base*n

	allocation := make([]int64, days)
	for i := range allocation {
		allocation[i] = base
		if int64(i) < remainder {
			allocation[i]++
		}
	}
	return allocation, nil
}

// DistributeDecimal is Distribute for quantities held as decimals, which is
// how activities and KPI records store them. The total must be a whole number.
func DistributeDecimal(total decimal.Decimal, days int) ([]decimal.Decimal, error) {
	if err := validate(total.String(), total.IsNegative(), days); err != nil {
		return nil, err
	}
	if !total.IsInteger() {
		return nil, &InputError{Quantity: total.String(), Days: days, Err: ErrNonIntegralQuantity}
	}

	// Precision 0 gives an integral quotient; total is non-negative so
	// truncation equals floor.
	base, rem := total.QuoRem(decimal.NewFromInt(int64(days)), 0)
	remainder := rem.IntPart()
	next := base.Add(decimal.NewFromInt(1))

	allocation := make([]decimal.Decimal, days)
	for i := range allocation {
		if int64(i) < remainder {
			allocation[i] = next
		} else {
			allocation[i] = base
		}
	}
	return allocation, nil
}

// DistributeFloat accepts the loosely typed numbers that arrive from JSON and
// CSV sources and rejects anything that is not a finite whole number.
func DistributeFloat(total float64, days int) ([]int64, error) {
	text := strconv.FormatFloat(total, 'g', -1, 64)
	if math.IsNaN(total) || math.IsInf(total, 0) || math.Abs(total) >= math.Exp2(63) {
		return nil, &InputError{Quantity: text, Days: days, Err: ErrNonFiniteQuantity}
	}
	if err := validate(text, total < 0, days); err != nil {
		return nil, err
	}
	if total != math.Trunc(total) {
		return nil, &InputError{Quantity: text, Days: days, Err: ErrNonIntegralQuantity}
	}
	return Distribute(int64(total), days)
}

func validate(quantity string, negative bool, days int) error {
	if days <= 0 {
		return &InputError{Quantity: quantity, Days: days, Err: ErrInvalidDays}
	}
	if negative {
		return &InputError{Quantity: quantity, Days: days, Err: ErrNegativeQuantity}
	}
	return nil
}
