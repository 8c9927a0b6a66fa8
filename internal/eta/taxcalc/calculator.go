// Package taxcalc computes the per-line figures of an ETA document: unit value,
// sales and net totals, taxable items and the item classification.
package taxcalc

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/smallbiznis/etabridge/internal/eta/domain"
	"github.com/smallbiznis/etabridge/internal/eta/rounding"
)

// ReceiptPlaces is the precision of receipt item figures.
const ReceiptPlaces = rounding.MaxPlaces

// T1 is charged at a flat 14% on consolidated and POS documents with actual charges.
var flatT1Rate = decimal.NewFromInt(14)

var hundred = decimal.NewFromInt(100)

// Calculator holds the settings used for defaults and rounding. It carries no per-document state.
type Calculator struct {
	policy   rounding.Policy
	settings domain.Settings
}

func New(settings domain.Settings) *Calculator {
	settings = settings.WithDefaults()
	return &Calculator{
		policy:   rounding.New(settings.RoundingPrecision),
		settings: settings,
	}
}

// Policy exposes the rounding policy derived from the settings.
func (c *Calculator) Policy() rounding.Policy {
	return c.policy
}

// Line is the computed figures of one invoice line.
type Line struct {
	Quantity     float64
	UnitValue    domain.Value
	SalesTotal   float64
	NetTotal     float64
	Total        float64
	Discount     *domain.Discount
	TaxableItems []domain.TaxableItem
}

// ReceiptLine is the computed figures of one receipt item.
type ReceiptLine struct {
	Quantity     float64
	UnitPrice    float64
	NetSale      float64
	TotalSale    float64
	Total        float64
	TaxableItems []domain.TaxableItem
}

// Classification is the resolved ETA coding of an item.
type Classification struct {
	ItemCode string
	ItemType string
	UnitType string
}

func (c *Calculator) round(v decimal.Decimal) float64 {
	f, _ := c.policy.RoundDecimal(v).Float64()
	return f
}

func roundTo(v decimal.Decimal, places int32) float64 {
	f, _ := v.RoundBank(places).Float64()
	return f
}

// UnitValue converts the item net rate to EGP. Exchange fields are only set for foreign documents.
func (c *Calculator) UnitValue(ctx LineContext, item domain.SalesItem) domain.Value {
	value := domain.Value{
		CurrencySold: ctx.CurrencySold(),
		AmountEGP:    c.round(ctx.Exchanged(item.NetRate).Abs()),
	}
	if ctx.Foreign() {
		sold := c.round(decimal.NewFromFloat(item.Rate).Abs())
		rate := ctx.ExchangeRate
		if rate <= 0 {
			rate = 1
		}
		value.AmountSold = &sold
		value.CurrencyExchangeRate = &rate
	}
	return value
}

// SalesNetTotals returns the line sales and net totals in EGP. Both use the same figure.
func (c *Calculator) SalesNetTotals(ctx LineContext, item domain.SalesItem) (float64, float64) {
	total := c.round(c.netBasis(ctx, item).Abs())
	return total, total
}

func (c *Calculator) netBasis(ctx LineContext, item domain.SalesItem) decimal.Decimal {
	if ctx.ForeignCompanyCurrency {
		return ctx.Exchanged(item.BaseAmount)
	}
	return ctx.Exchanged(item.NetAmount)
}

// TaxableItems derives one taxable item per active rule that carries a detail for the item.
func (c *Calculator) TaxableItems(ctx LineContext, item domain.SalesItem, rules []domain.TaxRule) []domain.TaxableItem {
	items := make([]domain.TaxableItem, 0, len(rules))
	for _, rule := range rules {
		if rule.Disabled {
			continue
		}
		detail, ok := rule.ItemWiseTaxDetail.Rate(item.ItemCode)
		if !ok {
			continue
		}
		pct := decimal.NewFromFloat(detail)

		var rate, amount decimal.Decimal
		switch {
		case rule.ChargeType == domain.ChargeOnNetTotal || rule.ChargeType == domain.ChargeOnPreviousRowTotal:
			basis := item.NetRate
			if ctx.ForeignCompanyCurrency {
				basis = item.Rate
			}
			rate = pct
			amount = taxAmount(pct, basis, item.Qty, ctx)
		case rule.ChargeType == domain.ChargeActual && ctx.ConsolidatedOrPOS() && rule.TaxType == "T1":
			rate = flatT1Rate
			amount = taxAmount(pct, item.NetRate, item.Qty, ctx)
		default:
			continue
		}

		items = append(items, domain.TaxableItem{
			TaxType: rule.TaxType,
			SubType: rule.SubType,
			Rate:    c.round(rate.Abs()),
			Amount:  c.round(amount.Abs()),
		})
	}
	return items
}

func taxAmount(pct decimal.Decimal, basis, qty float64, ctx LineContext) decimal.Decimal {
	return pct.Div(hundred).
		Mul(decimal.NewFromFloat(basis)).
		Mul(decimal.NewFromFloat(qty)).
		Mul(ctx.exchange())
}

// Discount returns the line discount block, or nil when the line carries no discount.
func (c *Calculator) Discount(ctx LineContext, item domain.SalesItem) *domain.Discount {
	amount := ctx.Exchanged(item.DiscountAmount).Mul(decimal.NewFromFloat(item.Qty)).Abs()
	if !amount.IsPositive() {
		return nil
	}
	return &domain.Discount{
		Rate:   c.round(decimal.NewFromFloat(item.DiscountPercentage).Abs()),
		Amount: c.round(amount),
	}
}

// Line computes every figure of an invoice line. Return documents get non-negative figures.
func (c *Calculator) Line(ctx LineContext, item domain.SalesItem, rules []domain.TaxRule) Line {
	sales, net := c.SalesNetTotals(ctx, item)
	taxable := c.TaxableItems(ctx, item, rules)

	total := decimal.NewFromFloat(net)
	for _, ti := range taxable {
		total = total.Add(decimal.NewFromFloat(ti.Amount))
	}

	return Line{
		Quantity:     c.round(decimal.NewFromFloat(item.Qty).Abs()),
		UnitValue:    c.UnitValue(ctx, item),
		SalesTotal:   sales,
		NetTotal:     net,
		Total:        c.round(total),
		Discount:     c.Discount(ctx, item),
		TaxableItems: taxable,
	}
}

// ReceiptTaxableItems derives receipt tax items. Rules without ETA codes are reported as T1/V001.
func (c *Calculator) ReceiptTaxableItems(ctx LineContext, item domain.SalesItem, rules []domain.TaxRule) []domain.TaxableItem {
	items := make([]domain.TaxableItem, 0, len(rules))
	for _, rule := range rules {
		if rule.Disabled {
			continue
		}
		detail, ok := rule.ItemWiseTaxDetail.Rate(item.ItemCode)
		if !ok {
			continue
		}
		pct := decimal.NewFromFloat(detail)
		taxType, subType := rule.TaxType, rule.SubType
		if strings.TrimSpace(taxType) == "" {
			taxType = domain.DefaultReceiptTax
		}
		if strings.TrimSpace(subType) == "" {
			subType = domain.DefaultReceiptSubTax
		}
		items = append(items, domain.TaxableItem{
			TaxType: taxType,
			SubType: subType,
			Rate:    roundTo(pct.Abs(), ReceiptPlaces),
			Amount:  roundTo(taxAmount(pct, item.NetRate, item.Qty, ctx).Abs(), ReceiptPlaces),
		})
	}
	return items
}

// ReceiptLine computes the figures of a receipt item rounded to five places.
func (c *Calculator) ReceiptLine(ctx LineContext, item domain.SalesItem, rules []domain.TaxRule) ReceiptLine {
	netSale := ctx.Exchanged(item.NetAmount).Abs()
	// the discount adds to the sale on returns too, where the net amount is negative
	totalSale := netSale.Add(ctx.Exchanged(item.DiscountAmount).Abs())
	taxable := c.ReceiptTaxableItems(ctx, item, rules)

	total := decimal.NewFromFloat(roundTo(netSale, ReceiptPlaces))
	for _, ti := range taxable {
		total = total.Add(decimal.NewFromFloat(ti.Amount))
	}

	return ReceiptLine{
		Quantity:     roundTo(decimal.NewFromFloat(item.Qty).Abs(), ReceiptPlaces),
		UnitPrice:    roundTo(ctx.Exchanged(item.NetRate).Abs(), ReceiptPlaces),
		NetSale:      roundTo(netSale, ReceiptPlaces),
		TotalSale:    roundTo(totalSale, ReceiptPlaces),
		Total:        roundTo(total, ReceiptPlaces),
		TaxableItems: taxable,
	}
}

// Classify resolves the ETA item code, item type and unit type.
// Order: inherited brand, inherited item group, the item's own code, then the settings default.
func (c *Calculator) Classify(item domain.SalesItem) Classification {
	out := Classification{
		ItemCode: firstNonBlank(item.ETAItemCode, c.settings.DefaultItemCode),
		ItemType: firstNonBlank(item.ETACodeType, c.settings.DefaultItemType),
		UnitType: firstNonBlank(item.ETAUnitType, c.settings.DefaultUnitType),
	}

	var inherited *domain.Classification
	switch {
	case item.InheritBrand && item.Brand != nil:
		inherited = item.Brand
	case item.InheritItemGroup && item.ItemGroup != nil:
		inherited = item.ItemGroup
	}
	if inherited != nil && strings.TrimSpace(inherited.ItemCode) != "" {
		out.ItemCode = inherited.ItemCode
		out.ItemType = firstNonBlank(inherited.CodeType, c.settings.DefaultItemType)
	}
	return out
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
