package builder

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/smallbiznis/etabridge/internal/eta/domain"
)

func (b *Builder) invoice(bc buildContext) (*domain.Invoice, error) {
	rec := bc.rec
	issued, err := IssuedAt(rec.PostingDate, rec.PostingTime, b.loc)
	if err != nil {
		return nil, err
	}

	more := rec.FirstMoreDetail()
	inv := &domain.Invoice{
		Issuer:                   issuer(rec),
		Receiver:                 receiver(rec),
		DocumentType:             domain.DocumentTypeInvoice,
		DocumentTypeVersion:      domain.DocumentTypeVersionUnsigned,
		DateTimeIssued:           issued,
		TaxpayerActivityCode:     rec.CompanyInfo.ActivityCode,
		InternalID:               rec.Name,
		PurchaseOrderReference:   rec.PONo,
		PurchaseOrderDescription: more.PurchaseOrderDescription,
		SalesOrderReference:      more.SalesOrderReference,
		SalesOrderDescription:    more.SalesOrderDescription,
		ProformaInvoiceNumber:    more.ProformaInvoiceNumber,
		Payment:                  payment(rec),
		Delivery:                 delivery(rec),
		Signatures: []domain.Signature{{
			SignatureType: domain.SignatureTypeIssuer,
			Value:         domain.UnsignedSignature,
		}},
	}
	if rec.IsReturn {
		inv.DocumentType = domain.DocumentTypeCreditNote
	}
	if rec.Signature != "" {
		inv.DocumentTypeVersion = domain.DocumentTypeVersionSigned
		inv.Signatures[0].Value = rec.Signature
	}

	inv.InvoiceLines = b.invoiceLines(bc)

	sales := decimal.Zero
	discount := decimal.Zero
	for _, line := range inv.InvoiceLines {
		sales = sales.Add(decimal.NewFromFloat(line.SalesTotal))
		if line.Discount != nil {
			discount = discount.Add(decimal.NewFromFloat(line.Discount.Amount))
		}
	}
	inv.TaxTotals = b.taxTotals(bc, inv.InvoiceLines)
	net, total := b.netAndTotal(bc, inv.TaxTotals)

	policy := b.calc.Policy()
	inv.TotalSalesAmount = toFloat(policy.RoundDecimal(sales.Abs()))
	inv.TotalDiscountAmount = toFloat(policy.RoundDecimal(discount.Abs()))
	inv.NetAmount = toFloat(policy.RoundDecimal(net.Abs()))
	inv.TotalAmount = toFloat(policy.RoundDecimal(total.Abs()))

	if err := inv.Validate(b.settings.ValidationOptions()); err != nil {
		b.log.Debug("invoice failed validation", zap.String("name", rec.Name), zap.Error(err))
		return nil, err
	}
	return inv, nil
}

func (b *Builder) invoiceLines(bc buildContext) []domain.InvoiceLine {
	lines := make([]domain.InvoiceLine, 0, len(bc.rec.Items))
	for _, item := range bc.rec.Items {
		figures := b.calc.Line(bc.line, item, bc.rec.Taxes)
		class := b.calc.Classify(item)
		lines = append(lines, domain.InvoiceLine{
			Description:  orDefault(item.ItemName, item.Description),
			ItemType:     class.ItemType,
			ItemCode:     class.ItemCode,
			UnitType:     class.UnitType,
			Quantity:     figures.Quantity,
			InternalCode: item.ItemCode,
			SalesTotal:   figures.SalesTotal,
			Total:        figures.Total,
			NetTotal:     figures.NetTotal,
			UnitValue:    figures.UnitValue,
			Discount:     figures.Discount,
			TaxableItems: figures.TaxableItems,
		})
	}
	return lines
}

// taxTotals groups tax amounts by tax type in first-seen rule order.
// Regular documents read the ledger amounts. Consolidated and POS documents report,
// for every tax type, the sum of each line's first taxable item.
func (b *Builder) taxTotals(bc buildContext, lines []domain.InvoiceLine) []domain.TaxTotal {
	acc := newTaxAccumulator()
	for _, rule := range bc.rec.Taxes {
		if rule.Disabled {
			continue
		}
		if bc.line.ConsolidatedOrPOS() {
			if acc.seen(rule.TaxType) {
				continue
			}
			acc.add(rule.TaxType, firstItemSum(lines))
			continue
		}
		amount := decimal.NewFromFloat(rule.TaxAmountAfterDiscount)
		if bc.line.ForeignCompanyCurrency {
			amount = bc.line.Exchanged(rule.BaseTaxAmountAfterDiscount)
		}
		acc.add(rule.TaxType, amount)
	}
	return acc.totals(b.calc.Policy().RoundDecimal)
}

func firstItemSum(lines []domain.InvoiceLine) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		if len(line.TaxableItems) == 0 {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(line.TaxableItems[0].Amount))
	}
	return sum
}

func (b *Builder) netAndTotal(bc buildContext, taxTotals []domain.TaxTotal) (decimal.Decimal, decimal.Decimal) {
	rec := bc.rec
	var net, total decimal.Decimal
	if bc.line.ForeignCompanyCurrency {
		net = bc.line.Exchanged(rec.BaseTotal)
		total = bc.line.Exchanged(rec.BaseGrandTotal)
	} else {
		net = bc.line.Exchanged(rec.NetTotal)
		total = decimal.NewFromFloat(rec.BaseGrandTotal)
	}
	if bc.line.ConsolidatedOrPOS() {
		total = net.Abs()
		if len(taxTotals) > 0 {
			total = total.Add(decimal.NewFromFloat(taxTotals[0].Amount))
		}
	}
	return net, total
}

type taxAccumulator struct {
	order  []string
	amount map[string]decimal.Decimal
}

func newTaxAccumulator() *taxAccumulator {
	return &taxAccumulator{amount: map[string]decimal.Decimal{}}
}

func (a *taxAccumulator) seen(taxType string) bool {
	_, ok := a.amount[taxType]
	return ok
}

func (a *taxAccumulator) add(taxType string, amount decimal.Decimal) {
	if !a.seen(taxType) {
		a.order = append(a.order, taxType)
		a.amount[taxType] = decimal.Zero
	}
	a.amount[taxType] = a.amount[taxType].Add(amount.Abs())
}

func (a *taxAccumulator) totals(round func(decimal.Decimal) decimal.Decimal) []domain.TaxTotal {
	out := make([]domain.TaxTotal, 0, len(a.order))
	for _, taxType := range a.order {
		out = append(out, domain.TaxTotal{TaxType: taxType, Amount: toFloat(round(a.amount[taxType]))})
	}
	return out
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
