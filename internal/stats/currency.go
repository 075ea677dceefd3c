package stats

// Normalize converts amount from its source currency into the base
// currency. rate is defined as "one foreign unit in base units", so a
// EUR record at rate 1.17 with base USD yields amount*1.17.
//
// If the record already is in the base currency the rate is ignored. A
// missing currency or a non-positive rate degrades to the base currency
// at rate 1.0; half-entered manual data must not zero out a whole day.
func Normalize(amount float64, currency string, rate float64, base string) float64 {
	if currency == "" || currency == base {
		return amount
	}
	if rate <= 0 {
		return amount
	}
	return amount * rate
}

// Converter performs the two-stage conversion raw -> base -> display.
// Records carry their own rate for the first stage; the second stage uses
// the single global EUR/USD rate from configuration so it can be tested
// and overridden per environment.
type Converter struct {
	base    string
	display string
	eurUsd  float64 // USD per EUR
}

// NewConverter builds a converter from base into display currency. An
// empty display means "same as base".
func NewConverter(base, display string, eurUsd float64) *Converter {
	if display == "" {
		display = base
	}
	if eurUsd <= 0 {
		eurUsd = 1
	}
	return &Converter{base: base, display: display, eurUsd: eurUsd}
}

// Display returns the display currency code.
func (c *Converter) Display() string { return c.display }

// ToBase normalizes a record's amount into the base currency using the
// record's own exchange rate.
func (c *Converter) ToBase(amount float64, currency string, rate float64) float64 {
	return Normalize(amount, currency, rate, c.base)
}

// FromOfferCurrency converts an offer payout or cap into the base
// currency. Offers carry no per-record rate, so the global rate applies.
func (c *Converter) FromOfferCurrency(amount float64, currency string) float64 {
	if currency == "" || currency == c.base {
		return amount
	}
	return c.crossRate(currency, c.base) * amount
}

// ToDisplay converts a base-currency amount into the display currency.
func (c *Converter) ToDisplay(amount float64) float64 {
	if c.display == c.base {
		return amount
	}
	return c.crossRate(c.base, c.display) * amount
}

// crossRate returns the multiplier from one currency into another. Only
// USD and EUR are traded here; anything else is treated as 1:1 with the
// base rather than guessed at.
func (c *Converter) crossRate(from, to string) float64 {
	switch {
	case from == to:
		return 1
	case from == "EUR" && to == "USD":
		return c.eurUsd
	case from == "USD" && to == "EUR":
		return 1 / c.eurUsd
	default:
		return 1
	}
}
