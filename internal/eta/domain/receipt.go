package domain

// Receipt is the POS e-receipt accepted by the receiptsubmissions endpoint.
// Field order is significant: the receipt UUID is computed over the emitted JSON in this order.
type Receipt struct {
	Header        ReceiptHeader       `json:"header"`
	DocumentType  ReceiptDocumentType `json:"documentType"`
	Seller        Seller              `json:"seller"`
	Buyer         Buyer               `json:"buyer"`
	ItemData      []ReceiptItem       `json:"itemData" validate:"min=1,dive"`
	TotalSales    float64             `json:"totalSales"`
	NetAmount     float64             `json:"netAmount"`
	TotalAmount   float64             `json:"totalAmount"`
	TaxTotals     []TaxTotal          `json:"taxTotals" validate:"dive"`
	PaymentMethod string              `json:"paymentMethod" validate:"notblank"`
	Contractor    Contractor          `json:"contractor"`
	Beneficiary   Beneficiary         `json:"beneficiary"`
}

type ReceiptHeader struct {
	DateTimeIssued    string   `json:"dateTimeIssued" validate:"notblank"`
	ReceiptNumber     string   `json:"receiptNumber" validate:"notblank"`
	UUID              string   `json:"uuid"`
	PreviousUUID      string   `json:"previousUUID"`
	ReferenceUUID     string   `json:"referenceUUID,omitempty"`
	ReferenceOldUUID  string   `json:"referenceOldUUID,omitempty"`
	Currency          string   `json:"currency" validate:"notblank"`
	ExchangeRate      *float64 `json:"exchangeRate,omitempty"`
	SOrderNameCode    string   `json:"sOrderNameCode,omitempty"`
	OrderDeliveryMode string   `json:"orderdeliveryMode" validate:"notblank,oneof=FC TO TC"`
	GrossWeight       float64  `json:"grossWeight"`
	NetWeight         float64  `json:"netWeight"`
}

type ReceiptDocumentType struct {
	ReceiptType string `json:"receiptType" validate:"notblank,oneof=s r"`
	TypeVersion string `json:"typeVersion" validate:"notblank"`
}

type Seller struct {
	Rin                    string        `json:"rin" validate:"notblank"`
	CompanyTradeName       string        `json:"companyTradeName" validate:"notblank"`
	BranchCode             string        `json:"branchCode" validate:"notblank"`
	BranchAddress          BranchAddress `json:"branchAddress"`
	DeviceSerialNumber     string        `json:"deviceSerialNumber" validate:"notblank"`
	SyndicateLicenseNumber string        `json:"syndicateLicenseNumber,omitempty"`
	ActivityCode           string        `json:"activityCode" validate:"notblank"`
}

type BranchAddress struct {
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

type Buyer struct {
	Type          string `json:"type" validate:"notblank,oneof=B P F"`
	ID            string `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`
	MobileNumber  string `json:"mobileNumber,omitempty"`
	PaymentNumber string `json:"paymentNumber,omitempty"`
}

type ReceiptItem struct {
	InternalCode string        `json:"internalCode" validate:"notblank"`
	Description  string        `json:"description" validate:"notblank"`
	ItemType     string        `json:"itemType" validate:"notblank,oneof=GS1 EGS"`
	ItemCode     string        `json:"itemCode" validate:"notblank"`
	UnitType     string        `json:"unitType" validate:"notblank"`
	Quantity     float64       `json:"quantity"`
	UnitPrice    float64       `json:"unitPrice"`
	NetSale      float64       `json:"netSale"`
	TotalSale    float64       `json:"totalSale"`
	Total        float64       `json:"total"`
	TaxableItems []TaxableItem `json:"taxableItems" validate:"dive"`
}

type Contractor struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Rate   float64 `json:"rate"`
}

type Beneficiary struct {
	Amount float64 `json:"amount"`
	Rate   float64 `json:"rate"`
}

// IsReturn reports whether the receipt reverses an earlier sale.
func (r *Receipt) IsReturn() bool {
	return r.DocumentType.ReceiptType == ReceiptTypeReturn
}

func (r *Receipt) Validate(opts ValidationOptions) error {
	return validateDocument(r, opts)
}
