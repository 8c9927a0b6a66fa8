package builder

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/smallbiznis/etabridge/internal/eta/canonical"
	"github.com/smallbiznis/etabridge/internal/eta/domain"
	"github.com/smallbiznis/etabridge/internal/eta/taxcalc"
)

func (b *Builder) receipt(bc buildContext) (*domain.Receipt, error) {
	rec := bc.rec
	issued, err := IssuedAt(rec.PostingDate, rec.PostingTime, b.loc)
	if err != nil {
		return nil, err
	}

	r := &domain.Receipt{
		Header: domain.ReceiptHeader{
			DateTimeIssued:    issued,
			ReceiptNumber:     rec.Name,
			PreviousUUID:      rec.PreviousUUID,
			ReferenceOldUUID:  rec.ReferenceOldUUID,
			Currency:          bc.line.CurrencySold(),
			SOrderNameCode:    rec.SalesOrderNameCode,
			OrderDeliveryMode: orDefault(strings.ToUpper(strings.TrimSpace(rec.OrderDeliveryMode)), domain.DeliveryModeFC),
			GrossWeight:       rec.GrossWeight,
			NetWeight:         rec.NetWeight,
		},
		DocumentType: domain.ReceiptDocumentType{
			ReceiptType: domain.ReceiptTypeSale,
			TypeVersion: domain.ReceiptTypeVersion,
		},
		Seller:        seller(rec, b.settings),
		Buyer:         buyer(rec, b.settings),
		PaymentMethod: domain.PaymentMethodCash,
	}
	if rec.IsReturn {
		r.DocumentType.ReceiptType = domain.ReceiptTypeReturn
		r.Header.ReferenceUUID = rec.ReturnAgainstUUID
	}
	if bc.line.Foreign() {
		rate := bc.line.ExchangeRate
		r.Header.ExchangeRate = &rate
	}

	r.ItemData = b.receiptItems(bc)

	sales, net, total := decimal.Zero, decimal.Zero, decimal.Zero
	acc := newTaxAccumulator()
	for _, item := range r.ItemData {
		sales = sales.Add(decimal.NewFromFloat(item.TotalSale))
		net = net.Add(decimal.NewFromFloat(item.NetSale))
		total = total.Add(decimal.NewFromFloat(item.Total))
		for _, ti := range item.TaxableItems {
			acc.add(ti.TaxType, decimal.NewFromFloat(ti.Amount))
		}
	}
	r.TotalSales = roundReceipt(sales)
	r.NetAmount = roundReceipt(net)
	r.TotalAmount = roundReceipt(total)
	r.TaxTotals = acc.totals(func(d decimal.Decimal) decimal.Decimal { return d.RoundBank(taxcalc.ReceiptPlaces) })

	if err := r.Validate(b.settings.ValidationOptions()); err != nil {
		b.log.Debug("receipt failed validation", zap.String("name", rec.Name), zap.Error(err))
		return nil, err
	}
	if err := canonical.Stamp(r); err != nil {
		return nil, err
	}
	return r, nil
}

func (b *Builder) receiptItems(bc buildContext) []domain.ReceiptItem {
	items := make([]domain.ReceiptItem, 0, len(bc.rec.Items))
	for _, item := range bc.rec.Items {
		figures := b.calc.ReceiptLine(bc.line, item, bc.rec.Taxes)
		class := b.calc.Classify(item)
		items = append(items, domain.ReceiptItem{
			InternalCode: item.ItemCode,
			Description:  orDefault(item.ItemName, item.Description),
			ItemType:     class.ItemType,
			ItemCode:     orDefault(class.ItemCode, item.ItemCode),
			UnitType:     class.UnitType,
			Quantity:     figures.Quantity,
			UnitPrice:    figures.UnitPrice,
			NetSale:      figures.NetSale,
			TotalSale:    figures.TotalSale,
			Total:        figures.Total,
			TaxableItems: figures.TaxableItems,
		})
	}
	return items
}

func roundReceipt(d decimal.Decimal) float64 {
	return toFloat(d.Abs().RoundBank(taxcalc.ReceiptPlaces))
}
