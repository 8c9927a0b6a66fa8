package domain

// Invoice is the e-invoice document accepted by the documentsubmissions endpoint.
// Field order follows the authority schema.
type Invoice struct {
	Issuer                   Issuer        `json:"issuer"`
	Receiver                 Receiver      `json:"receiver"`
	DocumentType             string        `json:"documentType" validate:"notblank,oneof=I C"`
	DocumentTypeVersion      string        `json:"documentTypeVersion" validate:"notblank,oneof=1.0 0.9"`
	DateTimeIssued           string        `json:"dateTimeIssued" validate:"notblank"`
	TaxpayerActivityCode     string        `json:"taxpayerActivityCode" validate:"notblank"`
	InternalID               string        `json:"internalID" validate:"notblank"`
	PurchaseOrderReference   string        `json:"purchaseOrderReference,omitempty"`
	PurchaseOrderDescription string        `json:"purchaseOrderDescription,omitempty"`
	SalesOrderReference      string        `json:"salesOrderReference,omitempty"`
	SalesOrderDescription    string        `json:"salesOrderDescription,omitempty"`
	ProformaInvoiceNumber    string        `json:"proformaInvoiceNumber,omitempty"`
	Payment                  *Payment      `json:"payment,omitempty"`
	Delivery                 *Delivery     `json:"delivery,omitempty"`
	InvoiceLines             []InvoiceLine `json:"invoiceLines" validate:"min=1,dive"`
	TotalDiscountAmount      float64       `json:"totalDiscountAmount"`
	TotalSalesAmount         float64       `json:"totalSalesAmount"`
	NetAmount                float64       `json:"netAmount"`
	TaxTotals                []TaxTotal    `json:"taxTotals" validate:"dive"`
	TotalAmount              float64       `json:"totalAmount"`
	ExtraDiscountAmount      float64       `json:"extraDiscountAmount"`
	TotalItemsDiscountAmount float64       `json:"totalItemsDiscountAmount"`
	Signatures               []Signature   `json:"signatures,omitempty"`
}

type Issuer struct {
	Type    string        `json:"type" validate:"notblank,oneof=B P F"`
	ID      string        `json:"id" validate:"notblank"`
	Name    string        `json:"name" validate:"notblank"`
	Address IssuerAddress `json:"address"`
}

type IssuerAddress struct {
	BranchID              string `json:"branchId" validate:"notblank"`
	Country               string `json:"country" validate:"notblank"`
	Governate             string `json:"governate" validate:"notblank"`
	RegionCity            string `json:"regionCity" validate:"notblank"`
	Street                string `json:"street" validate:"notblank"`
	BuildingNumber        string `json:"buildingNumber" validate:"notblank"`
	PostalCode            string `json:"postalCode,omitempty"`
	Floor                 string `json:"floor,omitempty"`
	Room                  string `json:"room,omitempty"`
	Landmark              string `json:"landmark,omitempty"`
	AdditionalInformation string `json:"additionalInformation,omitempty"`
}

type Receiver struct {
	Type    string           `json:"type" validate:"notblank,oneof=B P F"`
	ID      string           `json:"id,omitempty"`
	Name    string           `json:"name" validate:"notblank"`
	Address *ReceiverAddress `json:"address,omitempty"`
}

type ReceiverAddress struct {
	Country               string `json:"country" validate:"notblank"`
	Governate             string `json:"governate" validate:"notblank"`
	RegionCity            string `json:"regionCity" validate:"notblank"`
	Street                string `json:"street" validate:"notblank"`
	BuildingNumber        string `json:"buildingNumber" validate:"notblank"`
	PostalCode            string `json:"postalCode,omitempty"`
	Floor                 string `json:"floor,omitempty"`
	Room                  string `json:"room,omitempty"`
	Landmark              string `json:"landmark,omitempty"`
	AdditionalInformation string `json:"additionalInformation,omitempty"`
}

type Payment struct {
	BankName        string `json:"bankName,omitempty"`
	BankAddress     string `json:"bankAddress,omitempty"`
	BankAccountNo   string `json:"bankAccountNo,omitempty"`
	BankAccountIBAN string `json:"bankAccountIBAN,omitempty"`
	SwiftCode       string `json:"swiftCode,omitempty" validate:"omitempty,swift"`
	Terms           string `json:"terms,omitempty"`
}

type Delivery struct {
	Approach        string  `json:"approach,omitempty"`
	Packaging       string  `json:"packaging,omitempty"`
	DateValidity    string  `json:"dateValidity,omitempty"`
	ExportPort      string  `json:"exportPort,omitempty"`
	CountryOfOrigin string  `json:"countryOfOrigin,omitempty"`
	GrossWeight     float64 `json:"grossWeight,omitempty"`
	NetWeight       float64 `json:"netWeight,omitempty"`
	Terms           string  `json:"terms,omitempty"`
}

type InvoiceLine struct {
	Description      string        `json:"description" validate:"notblank"`
	ItemType         string        `json:"itemType" validate:"notblank,oneof=GS1 EGS"`
	ItemCode         string        `json:"itemCode" validate:"notblank"`
	UnitType         string        `json:"unitType" validate:"notblank"`
	Quantity         float64       `json:"quantity"`
	InternalCode     string        `json:"internalCode" validate:"notblank"`
	SalesTotal       float64       `json:"salesTotal"`
	Total            float64       `json:"total"`
	ValueDifference  float64       `json:"valueDifference"`
	TotalTaxableFees float64       `json:"totalTaxableFees"`
	NetTotal         float64       `json:"netTotal"`
	ItemsDiscount    float64       `json:"itemsDiscount"`
	UnitValue        Value         `json:"unitValue"`
	Discount         *Discount     `json:"discount,omitempty"`
	TaxableItems     []TaxableItem `json:"taxableItems" validate:"dive"`
}

// Value is the unit price of a line. Exchange fields are only present for foreign currency documents.
type Value struct {
	CurrencySold         string   `json:"currencySold" validate:"notblank"`
	AmountEGP            float64  `json:"amountEGP"`
	AmountSold           *float64 `json:"amountSold,omitempty"`
	CurrencyExchangeRate *float64 `json:"currencyExchangeRate,omitempty"`
}

type Discount struct {
	Rate   float64 `json:"rate"`
	Amount float64 `json:"amount"`
}

type TaxableItem struct {
	TaxType string  `json:"taxType" validate:"notblank,oneof=T1 T2 T3 T4 T5 T6 T7 T8 T9 T10 T11 T12"`
	Amount  float64 `json:"amount"`
	SubType string  `json:"subType" validate:"notblank,oneof=V001 V002 V003 V004 V005 V006 V007 V008 V009 V010"`
	Rate    float64 `json:"rate" validate:"gte=0,lte=100"`
}

type TaxTotal struct {
	TaxType string  `json:"taxType" validate:"notblank,oneof=T1 T2 T3 T4 T5 T6 T7 T8 T9 T10 T11 T12"`
	Amount  float64 `json:"amount"`
}

type Signature struct {
	SignatureType string `json:"signatureType"`
	Value         string `json:"value"`
}

// Signed reports whether an externally produced signature is attached.
func (inv *Invoice) Signed() bool {
	for _, sig := range inv.Signatures {
		if sig.Value != "" && sig.Value != UnsignedSignature {
			return true
		}
	}
	return false
}

// Validate walks every mandatory field and business rule and returns all violations at once.
func (inv *Invoice) Validate(opts ValidationOptions) error {
	return validateDocument(inv, opts)
}
