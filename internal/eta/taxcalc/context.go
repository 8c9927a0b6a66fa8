package taxcalc

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/smallbiznis/etabridge/internal/eta/domain"
)

// LineContext is the document level state a line computation depends on.
// It is passed by value and never mutated.
type LineContext struct {
	Currency               string
	ExchangeRate           float64
	ForeignCompanyCurrency bool
	Consolidated           bool
	POS                    bool
	Return                 bool
}

// ContextFor derives the line context of a sales record.
func ContextFor(rec *domain.SalesRecord) LineContext {
	return LineContext{
		Currency:               strings.ToUpper(strings.TrimSpace(rec.Currency)),
		ExchangeRate:           rec.ExchangeRate(),
		ForeignCompanyCurrency: rec.ForeignCompanyCurrency,
		Consolidated:           rec.IsConsolidated,
		POS:                    rec.IsPOS,
		Return:                 rec.IsReturn,
	}
}

// Foreign reports whether the document is sold in a currency other than EGP.
func (c LineContext) Foreign() bool {
	return c.Currency != "" && c.Currency != domain.LocalCurrency
}

func (c LineContext) ConsolidatedOrPOS() bool {
	return c.Consolidated || c.POS
}

// CurrencySold is the currency reported on unit values.
func (c LineContext) CurrencySold() string {
	if c.Foreign() {
		return c.Currency
	}
	return domain.LocalCurrency
}

func (c LineContext) exchange() decimal.Decimal {
	if c.ExchangeRate <= 0 {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromFloat(c.ExchangeRate)
}

// Exchanged converts an amount in document currency to EGP without rounding.
func (c LineContext) Exchanged(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Mul(c.exchange())
}
