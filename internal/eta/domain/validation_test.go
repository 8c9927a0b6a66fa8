package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInvoice() Invoice {
	return Invoice{
		Issuer: Issuer{
			Type: "B",
			ID:   "123456789",
			Name: "Acme Egypt",
			Address: IssuerAddress{
				BranchID:       "0",
				Country:        "EG",
				Governate:      "Cairo",
				RegionCity:     "Nasr City",
				Street:         "Makram Ebeid",
				BuildingNumber: "12",
			},
		},
		Receiver: Receiver{
			Type: "B",
			ID:   "987654321",
			Name: "Client Co",
			Address: &ReceiverAddress{
				Country:        "EG",
				Governate:      "Giza",
				RegionCity:     "Dokki",
				Street:         "Tahrir",
				BuildingNumber: "4",
			},
		},
		DocumentType:         DocumentTypeInvoice,
		DocumentTypeVersion:  DocumentTypeVersionUnsigned,
		DateTimeIssued:       "2024-03-01T10:00:00Z",
		TaxpayerActivityCode: "4620",
		InternalID:           "ACC-SINV-0001",
		InvoiceLines: []InvoiceLine{{
			Description:  "Widget",
			ItemType:     ItemTypeGS1,
			ItemCode:     "6224000000000",
			UnitType:     "EA",
			Quantity:     1,
			InternalCode: "WID-1",
			SalesTotal:   100,
			NetTotal:     100,
			Total:        114,
			UnitValue:    Value{CurrencySold: "EGP", AmountEGP: 100},
			TaxableItems: []TaxableItem{{TaxType: "T1", SubType: "V009", Rate: 14, Amount: 14}},
		}},
		TotalSalesAmount: 100,
		NetAmount:        100,
		TotalAmount:      114,
		TaxTotals:        []TaxTotal{{TaxType: "T1", Amount: 14}},
		Signatures:       []Signature{{SignatureType: SignatureTypeIssuer, Value: UnsignedSignature}},
	}
}

func TestInvoiceValidateAcceptsCompleteDocument(t *testing.T) {
	inv := validInvoice()
	require.NoError(t, inv.Validate(ValidationOptions{}))
}

func TestInvoiceValidateReportsEachBlankFieldByPath(t *testing.T) {
	cases := []struct {
		path   string
		mutate func(*Invoice)
	}{
		{"issuer.id", func(i *Invoice) { i.Issuer.ID = "" }},
		{"issuer.name", func(i *Invoice) { i.Issuer.Name = "   " }},
		{"issuer.address.branchId", func(i *Invoice) { i.Issuer.Address.BranchID = "" }},
		{"issuer.address.governate", func(i *Invoice) { i.Issuer.Address.Governate = "\t" }},
		{"issuer.address.buildingNumber", func(i *Invoice) { i.Issuer.Address.BuildingNumber = "" }},
		{"receiver.name", func(i *Invoice) { i.Receiver.Name = "" }},
		{"dateTimeIssued", func(i *Invoice) { i.DateTimeIssued = "" }},
		{"taxpayerActivityCode", func(i *Invoice) { i.TaxpayerActivityCode = " " }},
		{"internalID", func(i *Invoice) { i.InternalID = "" }},
		{"invoiceLines[0].itemCode", func(i *Invoice) { i.InvoiceLines[0].ItemCode = "" }},
		{"invoiceLines[0].unitType", func(i *Invoice) { i.InvoiceLines[0].UnitType = "" }},
		{"invoiceLines", func(i *Invoice) { i.InvoiceLines = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			inv := validInvoice()
			tc.mutate(&inv)

			err := inv.Validate(ValidationOptions{})
			require.Error(t, err)
			vErr, ok := AsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, []string{tc.path}, vErr.Paths())
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestInvoiceValidateCollectsAllViolations(t *testing.T) {
	inv := validInvoice()
	inv.Issuer.ID = ""
	inv.InternalID = ""
	inv.InvoiceLines[0].Description = ""

	err := inv.Validate(ValidationOptions{})
	vErr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"issuer.id", "internalID", "invoiceLines[0].description"}, vErr.Paths())
	assert.Equal(t, "Company ETA Tax ID", vErr.Errors[0].Label)
	assert.Equal(t, "Field 'issuer.id' is required", vErr.Errors[0].Message)
}

func TestTaxTypeEnumClosure(t *testing.T) {
	for _, bad := range []string{"T0", "T13", "t1", "VAT"} {
		inv := validInvoice()
		inv.InvoiceLines[0].TaxableItems[0].TaxType = bad
		err := inv.Validate(ValidationOptions{})
		vErr, ok := AsValidationError(err)
		require.True(t, ok, bad)
		assert.Equal(t, CodeInvalidChoice, vErr.Errors[0].Code)
		assert.Equal(t, "invoiceLines[0].taxableItems[0].taxType", vErr.Errors[0].Path)
	}
	for _, good := range TaxTypes {
		inv := validInvoice()
		inv.InvoiceLines[0].TaxableItems[0].TaxType = good
		inv.TaxTotals[0].TaxType = good
		assert.NoError(t, inv.Validate(ValidationOptions{}), good)
	}
}

func TestSubTypeAndRateRules(t *testing.T) {
	inv := validInvoice()
	inv.InvoiceLines[0].TaxableItems[0].SubType = "V011"
	inv.InvoiceLines[0].TaxableItems[0].Rate = 140
	vErr, ok := AsValidationError(inv.Validate(ValidationOptions{}))
	require.True(t, ok)
	assert.ElementsMatch(t, []string{
		"invoiceLines[0].taxableItems[0].subType",
		"invoiceLines[0].taxableItems[0].rate",
	}, vErr.Paths())
}

func TestReceiverTypeEnumClosure(t *testing.T) {
	for _, bad := range []string{"X", "b", "Business"} {
		inv := validInvoice()
		inv.Receiver.Type = bad
		vErr, ok := AsValidationError(inv.Validate(ValidationOptions{}))
		require.True(t, ok)
		assert.Equal(t, "receiver.type", vErr.Errors[0].Path)
		assert.Equal(t, CodeInvalidChoice, vErr.Errors[0].Code)
	}
}

func TestBusinessReceiverRequiresTaxID(t *testing.T) {
	inv := validInvoice()
	inv.Receiver.ID = ""
	vErr, ok := AsValidationError(inv.Validate(ValidationOptions{}))
	require.True(t, ok)
	assert.Equal(t, []string{"receiver.id"}, vErr.Paths())

	inv.Receiver.ID = "12345"
	vErr, ok = AsValidationError(inv.Validate(ValidationOptions{}))
	require.True(t, ok)
	assert.Equal(t, CodeInvalidFormat, vErr.Errors[0].Code)

	inv.Receiver.ID = "123-456-789"
	assert.NoError(t, inv.Validate(ValidationOptions{}))
}

func TestPersonReceiverThreshold(t *testing.T) {
	inv := validInvoice()
	inv.Receiver.Type = "P"
	inv.Receiver.ID = ""
	inv.TotalAmount = 44999.99
	assert.NoError(t, inv.Validate(ValidationOptions{}))

	inv.TotalAmount = 45000
	vErr, ok := AsValidationError(inv.Validate(ValidationOptions{}))
	require.True(t, ok)
	assert.Equal(t, []string{"receiver.id"}, vErr.Paths())

	inv.Receiver.ID = "2950102350195"
	_, ok = AsValidationError(inv.Validate(ValidationOptions{}))
	assert.True(t, ok)

	inv.Receiver.ID = "29501023501952"
	assert.NoError(t, inv.Validate(ValidationOptions{}))

	inv.Receiver.ID = ""
	inv.TotalAmount = 2000
	vErr, ok = AsValidationError(inv.Validate(ValidationOptions{PersonIDThreshold: 1000}))
	require.True(t, ok)
	assert.Equal(t, []string{"receiver.id"}, vErr.Paths())
}

func TestForeignReceiverRequiresIDAndAddress(t *testing.T) {
	inv := validInvoice()
	inv.Receiver.Type = "F"
	inv.Receiver.ID = ""
	inv.Receiver.Address = nil
	vErr, ok := AsValidationError(inv.Validate(ValidationOptions{}))
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"receiver.id", "receiver.address"}, vErr.Paths())
}

func TestSwiftCodeValidation(t *testing.T) {
	assert.True(t, ValidSwiftCode(" nbegegcx "))
	assert.True(t, ValidSwiftCode("NBEGEGCX001"))
	assert.False(t, ValidSwiftCode("NBEG"))
	assert.False(t, ValidSwiftCode("NBEGEGCX0"))

	inv := validInvoice()
	inv.Payment = &Payment{BankName: "NBE", SwiftCode: "BAD!"}
	vErr, ok := AsValidationError(inv.Validate(ValidationOptions{}))
	require.True(t, ok)
	assert.Equal(t, []string{"payment.swiftCode"}, vErr.Paths())
}

func TestSignedVersionRequiresSignature(t *testing.T) {
	inv := validInvoice()
	inv.DocumentTypeVersion = DocumentTypeVersionSigned
	_, ok := AsValidationError(inv.Validate(ValidationOptions{}))
	assert.True(t, ok)

	inv.Signatures = []Signature{{SignatureType: SignatureTypeIssuer, Value: "MIIG..."}}
	assert.NoError(t, inv.Validate(ValidationOptions{}))
}

func TestValidateReportsTagFailuresWithJSONPaths(t *testing.T) {
	inv := validInvoice()
	inv.Issuer.Type = "X"
	inv.Payment = &Payment{SwiftCode: "nbegegcx"}
	inv.InvoiceLines = []InvoiceLine{}

	vErr, ok := AsValidationError(inv.Validate(ValidationOptions{}))
	require.True(t, ok)
	require.Equal(t, []string{"issuer.type", "invoiceLines"}, vErr.Paths())
	assert.Equal(t, CodeInvalidChoice, vErr.Errors[0].Code)
	assert.Equal(t, `Field 'issuer.type' has invalid value "X", allowed values are [B P F]`, vErr.Errors[0].Message)
	assert.Equal(t, CodeRequired, vErr.Errors[1].Code)
	assert.Equal(t, "Invoice Items", vErr.Errors[1].Label)
}

func TestPersonIDMessageCarriesThreshold(t *testing.T) {
	inv := validInvoice()
	inv.Receiver.Type = "P"
	inv.Receiver.ID = "123"
	inv.TotalAmount = 50000

	vErr, ok := AsValidationError(inv.Validate(ValidationOptions{}))
	require.True(t, ok)
	require.Len(t, vErr.Errors, 1)
	assert.Equal(t, CodeInvalidFormat, vErr.Errors[0].Code)
	assert.Equal(t, "Field 'receiver.id' must be a 14 digit national ID when the total is 45000 or more", vErr.Errors[0].Message)
	assert.Equal(t, "Customer Tax ID", vErr.Errors[0].Label)
}

func TestSignatureRuleReportsVersion(t *testing.T) {
	inv := validInvoice()
	inv.DocumentTypeVersion = DocumentTypeVersionSigned

	vErr, ok := AsValidationError(inv.Validate(ValidationOptions{}))
	require.True(t, ok)
	require.Equal(t, []string{"signatures"}, vErr.Paths())
	assert.Equal(t, "Field 'signatures' is required for document version 1.0", vErr.Errors[0].Message)
}

func TestFriendlyName(t *testing.T) {
	assert.Equal(t, "Branch ETA ID", FriendlyName("issuer.address.branchId"))
	assert.Equal(t, "Invoice Items", FriendlyName("invoiceLines[3].itemCode"))
	assert.Equal(t, "unknown.path", FriendlyName("unknown.path"))
}

func TestInvoiceJSONOmitsUnsetFields(t *testing.T) {
	inv := validInvoice()
	raw, err := json.Marshal(inv)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NotContains(t, decoded, "payment")
	assert.NotContains(t, decoded, "delivery")
	assert.NotContains(t, decoded, "purchaseOrderReference")
	assert.Contains(t, decoded, "totalDiscountAmount")

	line := decoded["invoiceLines"].([]any)[0].(map[string]any)
	unit := line["unitValue"].(map[string]any)
	assert.NotContains(t, unit, "amountSold")
	assert.NotContains(t, unit, "currencyExchangeRate")
}

func TestItemTaxDetailAcceptsEncodedString(t *testing.T) {
	var rule TaxRule
	require.NoError(t, json.Unmarshal([]byte(`{"charge_type":"On Net Total","item_wise_tax_detail":"{\"WID-1\": [14, 14.0]}"}`), &rule))
	rate, ok := rule.ItemWiseTaxDetail.Rate("WID-1")
	assert.True(t, ok)
	assert.Equal(t, 14.0, rate)

	require.NoError(t, json.Unmarshal([]byte(`{"item_wise_tax_detail":{"A":[5,1]}}`), &rule))
	rate, ok = rule.ItemWiseTaxDetail.Rate("A")
	assert.True(t, ok)
	assert.Equal(t, 5.0, rate)

	err := json.Unmarshal([]byte(`{"item_wise_tax_detail":"not json"}`), &rule)
	assert.ErrorIs(t, err, ErrInvalidTaxDetail)
}

func TestReceiptValidate(t *testing.T) {
	r := Receipt{
		Header: ReceiptHeader{
			DateTimeIssued:    "2024-03-01T10:00:00Z",
			ReceiptNumber:     "POS-0001",
			Currency:          "EGP",
			OrderDeliveryMode: DeliveryModeFC,
		},
		DocumentType: ReceiptDocumentType{ReceiptType: ReceiptTypeReturn, TypeVersion: ReceiptTypeVersion},
		Seller: Seller{
			Rin:                "123456789",
			CompanyTradeName:   "Acme",
			BranchCode:         "0",
			DeviceSerialNumber: "SERIAL0101",
			ActivityCode:       "4620",
			BranchAddress: BranchAddress{
				Country: "EG", Governate: "Cairo", RegionCity: "Nasr City", Street: "Main", BuildingNumber: "1",
			},
		},
		Buyer:         Buyer{Type: "P", ID: "29501023501952"},
		ItemData:      []ReceiptItem{{InternalCode: "A", Description: "A", ItemType: "EGS", ItemCode: "EG-1-A", UnitType: "EA"}},
		PaymentMethod: PaymentMethodCash,
	}
	vErr, ok := AsValidationError(r.Validate(ValidationOptions{}))
	require.True(t, ok)
	assert.Equal(t, []string{"header.referenceUUID"}, vErr.Paths())

	r.Header.ReferenceUUID = "  "
	vErr, ok = AsValidationError(r.Validate(ValidationOptions{}))
	require.True(t, ok)
	assert.Equal(t, CodeRequired, vErr.Errors[0].Code)

	r.Header.ReferenceUUID = "abc"
	assert.NoError(t, r.Validate(ValidationOptions{}))

	r.Header.OrderDeliveryMode = "XX"
	vErr, ok = AsValidationError(r.Validate(ValidationOptions{}))
	require.True(t, ok)
	assert.Equal(t, []string{"header.orderdeliveryMode"}, vErr.Paths())
}

func TestMergeValidationErrors(t *testing.T) {
	a := &ValidationError{Errors: []FieldError{{Path: "a"}}}
	b := &ValidationError{Errors: []FieldError{{Path: "b"}}}
	merged := Merge(a, nil, b)
	vErr, ok := AsValidationError(merged)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, vErr.Paths())
	assert.Nil(t, Merge(nil, nil))

	boom := errors.New("boom")
	assert.Equal(t, boom, Merge(a, boom))
}
