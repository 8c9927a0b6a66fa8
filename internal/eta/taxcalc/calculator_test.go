package taxcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallbiznis/etabridge/internal/eta/domain"
)

func vatRule(itemCode string, pct float64) domain.TaxRule {
	return domain.TaxRule{
		ChargeType:        domain.ChargeOnNetTotal,
		TaxType:           "T1",
		SubType:           "V009",
		ItemWiseTaxDetail: domain.ItemTaxDetail{itemCode: {pct, 0}},
	}
}

func widget() domain.SalesItem {
	return domain.SalesItem{
		ItemCode:   "WID-1",
		ItemName:   "Widget",
		Qty:        2,
		Rate:       100,
		NetRate:    100,
		Amount:     200,
		NetAmount:  200,
		BaseAmount: 200,
	}
}

func TestUnitValueForeignCurrencyRule(t *testing.T) {
	calc := New(domain.Settings{})
	item := domain.SalesItem{ItemCode: "A", Rate: 12, NetRate: 10}

	local := calc.UnitValue(LineContext{Currency: "EGP", ExchangeRate: 2}, item)
	assert.Equal(t, "EGP", local.CurrencySold)
	assert.Equal(t, 20.0, local.AmountEGP)
	assert.Nil(t, local.AmountSold)
	assert.Nil(t, local.CurrencyExchangeRate)

	foreign := calc.UnitValue(LineContext{Currency: "USD", ExchangeRate: 2}, item)
	assert.Equal(t, "USD", foreign.CurrencySold)
	assert.Equal(t, 20.0, foreign.AmountEGP)
	require.NotNil(t, foreign.AmountSold)
	require.NotNil(t, foreign.CurrencyExchangeRate)
	assert.Equal(t, 12.0, *foreign.AmountSold)
	assert.Equal(t, 2.0, *foreign.CurrencyExchangeRate)
}

func TestUnitValueDefaultsExchangeRate(t *testing.T) {
	calc := New(domain.Settings{})
	v := calc.UnitValue(LineContext{Currency: "EGP"}, domain.SalesItem{NetRate: 7.125})
	assert.Equal(t, 7.12, v.AmountEGP)
}

func TestSalesNetTotals(t *testing.T) {
	calc := New(domain.Settings{})
	item := domain.SalesItem{NetAmount: 30, BaseAmount: 45}

	sales, net := calc.SalesNetTotals(LineContext{Currency: "USD", ExchangeRate: 2}, item)
	assert.Equal(t, 60.0, sales)
	assert.Equal(t, 60.0, net)

	sales, net = calc.SalesNetTotals(LineContext{Currency: "USD", ExchangeRate: 2, ForeignCompanyCurrency: true}, item)
	assert.Equal(t, 90.0, sales)
	assert.Equal(t, 90.0, net)
}

func TestTaxableItemsOnNetTotal(t *testing.T) {
	calc := New(domain.Settings{})
	items := calc.TaxableItems(LineContext{Currency: "EGP", ExchangeRate: 1}, widget(), []domain.TaxRule{vatRule("WID-1", 14)})

	require.Len(t, items, 1)
	assert.Equal(t, domain.TaxableItem{TaxType: "T1", SubType: "V009", Rate: 14, Amount: 28}, items[0])
}

func TestTaxableItemsUseRateForForeignCompanyCurrency(t *testing.T) {
	calc := New(domain.Settings{})
	item := widget()
	item.Rate = 120

	items := calc.TaxableItems(LineContext{Currency: "USD", ExchangeRate: 2, ForeignCompanyCurrency: true}, item, []domain.TaxRule{vatRule("WID-1", 10)})
	require.Len(t, items, 1)
	assert.Equal(t, 48.0, items[0].Amount)
}

func TestTaxableItemsActualCharge(t *testing.T) {
	calc := New(domain.Settings{})
	rule := vatRule("WID-1", 10)
	rule.ChargeType = domain.ChargeActual

	items := calc.TaxableItems(LineContext{Currency: "EGP", POS: true}, widget(), []domain.TaxRule{rule})
	require.Len(t, items, 1)
	assert.Equal(t, 14.0, items[0].Rate)
	assert.Equal(t, 20.0, items[0].Amount)

	assert.Empty(t, calc.TaxableItems(LineContext{Currency: "EGP"}, widget(), []domain.TaxRule{rule}))

	rule.TaxType = "T2"
	assert.Empty(t, calc.TaxableItems(LineContext{Currency: "EGP", Consolidated: true}, widget(), []domain.TaxRule{rule}))
}

func TestTaxableItemsSkipsDisabledAndUnlistedItems(t *testing.T) {
	calc := New(domain.Settings{})
	disabled := vatRule("WID-1", 14)
	disabled.Disabled = true
	other := vatRule("OTHER", 5)
	unknownCharge := vatRule("WID-1", 5)
	unknownCharge.ChargeType = "On Item Quantity"

	items := calc.TaxableItems(LineContext{Currency: "EGP"}, widget(), []domain.TaxRule{disabled, other, unknownCharge})
	assert.Empty(t, items)
}

func TestLineTotalIncludesTaxes(t *testing.T) {
	calc := New(domain.Settings{})
	table := vatRule("WID-1", 5)
	table.TaxType = "T2"
	table.SubType = "Tbl01"

	line := calc.Line(LineContext{Currency: "EGP", ExchangeRate: 1}, widget(), []domain.TaxRule{vatRule("WID-1", 14), table})
	assert.Equal(t, 2.0, line.Quantity)
	assert.Equal(t, 200.0, line.SalesTotal)
	assert.Equal(t, 200.0, line.NetTotal)
	require.Len(t, line.TaxableItems, 2)
	assert.Equal(t, 238.0, line.Total)
	assert.Nil(t, line.Discount)
}

func TestReturnLinesAreNonNegative(t *testing.T) {
	calc := New(domain.Settings{})
	item := widget()
	item.Qty = -2
	item.Amount = -200
	item.NetAmount = -200
	item.BaseAmount = -200
	item.DiscountAmount = 5
	item.DiscountPercentage = 5

	line := calc.Line(LineContext{Currency: "EGP", Return: true}, item, []domain.TaxRule{vatRule("WID-1", 14)})
	assert.Equal(t, 2.0, line.Quantity)
	assert.Equal(t, 200.0, line.SalesTotal)
	assert.Equal(t, 200.0, line.NetTotal)
	assert.Equal(t, 28.0, line.TaxableItems[0].Amount)
	assert.Equal(t, 228.0, line.Total)
	require.NotNil(t, line.Discount)
	assert.Equal(t, 10.0, line.Discount.Amount)
	assert.Equal(t, 5.0, line.Discount.Rate)

	receipt := calc.ReceiptLine(LineContext{Currency: "EGP", Return: true}, item, []domain.TaxRule{vatRule("WID-1", 14)})
	assert.Equal(t, 2.0, receipt.Quantity)
	assert.Equal(t, 200.0, receipt.NetSale)
	assert.Equal(t, 205.0, receipt.TotalSale)
	assert.Equal(t, 28.0, receipt.TaxableItems[0].Amount)
}

func TestReceiptTotalSaleAddsDiscountMagnitude(t *testing.T) {
	calc := New(domain.Settings{})
	rules := []domain.TaxRule{vatRule("WID-1", 14)}

	sale := widget()
	sale.DiscountAmount = 5
	line := calc.ReceiptLine(LineContext{Currency: "EGP"}, sale, rules)
	assert.Equal(t, 200.0, line.NetSale)
	assert.Equal(t, 205.0, line.TotalSale)

	ret := widget()
	ret.Qty = -2
	ret.NetAmount = -200
	ret.DiscountAmount = -5
	line = calc.ReceiptLine(LineContext{Currency: "EGP", Return: true}, ret, rules)
	assert.Equal(t, 200.0, line.NetSale)
	assert.Equal(t, 205.0, line.TotalSale)
	assert.Equal(t, 228.0, line.Total)

	foreign := widget()
	foreign.NetAmount = -100
	foreign.DiscountAmount = 10
	line = calc.ReceiptLine(LineContext{Currency: "USD", ExchangeRate: 2, Return: true}, foreign, rules)
	assert.Equal(t, 200.0, line.NetSale)
	assert.Equal(t, 220.0, line.TotalSale)
}

func TestReceiptLineUsesFivePlacesAndDefaultCodes(t *testing.T) {
	calc := New(domain.Settings{})
	item := domain.SalesItem{
		ItemCode:  "TEA",
		Qty:       3,
		NetRate:   10.123456,
		NetAmount: 30.370368,
	}
	rule := domain.TaxRule{
		ChargeType:        domain.ChargeOnNetTotal,
		ItemWiseTaxDetail: domain.ItemTaxDetail{"TEA": {14, 0}},
	}

	line := calc.ReceiptLine(LineContext{Currency: "EGP", ExchangeRate: 1, POS: true}, item, []domain.TaxRule{rule})
	assert.Equal(t, 10.12346, line.UnitPrice)
	assert.Equal(t, 30.37037, line.NetSale)
	assert.Equal(t, 30.37037, line.TotalSale)
	require.Len(t, line.TaxableItems, 1)
	assert.Equal(t, "T1", line.TaxableItems[0].TaxType)
	assert.Equal(t, "V001", line.TaxableItems[0].SubType)
	assert.Equal(t, 4.25185, line.TaxableItems[0].Amount)
	assert.Equal(t, 34.62222, line.Total)
}

func TestClassifyFallbackChain(t *testing.T) {
	calc := New(domain.Settings{DefaultItemCode: "EG-000-DEFAULT", DefaultUnitType: "KGM"})
	brand := &domain.Classification{Name: "Acme", ItemCode: "EG-1-BRAND", CodeType: "EGS"}
	group := &domain.Classification{Name: "Tools", ItemCode: "EG-1-GROUP"}

	cases := []struct {
		name string
		item domain.SalesItem
		want Classification
	}{
		{
			name: "settings default",
			item: domain.SalesItem{},
			want: Classification{ItemCode: "EG-000-DEFAULT", ItemType: "GS1", UnitType: "KGM"},
		},
		{
			name: "explicit item code",
			item: domain.SalesItem{ETAItemCode: "6224000000000", ETACodeType: "GS1", ETAUnitType: "EA"},
			want: Classification{ItemCode: "6224000000000", ItemType: "GS1", UnitType: "EA"},
		},
		{
			name: "item group override",
			item: domain.SalesItem{ETAItemCode: "6224000000000", InheritItemGroup: true, ItemGroup: group},
			want: Classification{ItemCode: "EG-1-GROUP", ItemType: "GS1", UnitType: "KGM"},
		},
		{
			name: "brand wins over group",
			item: domain.SalesItem{InheritBrand: true, Brand: brand, InheritItemGroup: true, ItemGroup: group},
			want: Classification{ItemCode: "EG-1-BRAND", ItemType: "EGS", UnitType: "KGM"},
		},
		{
			name: "inherit flag without classification",
			item: domain.SalesItem{InheritBrand: true, ETAItemCode: "X"},
			want: Classification{ItemCode: "X", ItemType: "GS1", UnitType: "KGM"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, calc.Classify(tc.item))
		})
	}
}

func TestContextFor(t *testing.T) {
	ctx := ContextFor(&domain.SalesRecord{Currency: " usd ", IsPOS: true, IsReturn: true})
	assert.Equal(t, "USD", ctx.Currency)
	assert.Equal(t, 1.0, ctx.ExchangeRate)
	assert.True(t, ctx.Foreign())
	assert.True(t, ctx.ConsolidatedOrPOS())
	assert.True(t, ctx.Return)
}
