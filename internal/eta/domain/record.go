package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SalesRecord is the raw ERP sales document (sales invoice or POS invoice) a tax document is built from.
type SalesRecord struct {
	Kind    DocumentKind `json:"kind"`
	Name    string       `json:"name"`
	Company string       `json:"company"`

	Currency               string  `json:"currency"`
	ConversionRate         float64 `json:"conversion_rate"`
	ForeignCompanyCurrency bool    `json:"foreign_company_currency"`

	PostingDate string `json:"posting_date"`
	PostingTime string `json:"posting_time"`

	IsReturn          bool   `json:"is_return"`
	ReturnAgainst     string `json:"return_against,omitempty"`
	ReturnAgainstUUID string `json:"return_against_uuid,omitempty"`
	PreviousUUID      string `json:"previous_uuid,omitempty"`
	ReferenceOldUUID  string `json:"reference_old_uuid,omitempty"`
	IsConsolidated    bool   `json:"is_consolidated"`
	IsPOS             bool   `json:"is_pos"`

	PONo  string `json:"po_no,omitempty"`
	Terms string `json:"terms,omitempty"`

	Total          float64 `json:"total"`
	NetTotal       float64 `json:"net_total"`
	BaseTotal      float64 `json:"base_total"`
	BaseNetTotal   float64 `json:"base_net_total"`
	GrandTotal     float64 `json:"grand_total"`
	BaseGrandTotal float64 `json:"base_grand_total"`
	DiscountAmount float64 `json:"discount_amount"`

	Signature string `json:"eta_signature,omitempty"`

	OrderDeliveryMode  string  `json:"order_delivery_mode,omitempty"`
	SalesOrderNameCode string  `json:"sales_order_name_code,omitempty"`
	GrossWeight        float64 `json:"gross_weight,omitempty"`
	NetWeight          float64 `json:"net_weight,omitempty"`

	Items []SalesItem `json:"items"`
	Taxes []TaxRule   `json:"taxes"`

	CompanyInfo     Company         `json:"company_info"`
	Branch          Branch          `json:"branch"`
	BranchAddress   Address         `json:"branch_address"`
	Customer        Customer        `json:"customer"`
	CustomerAddress *Address        `json:"customer_address,omitempty"`
	MoreDetails     []MoreDetail    `json:"more_details,omitempty"`
	BankAccount     *BankAccount    `json:"bank_account,omitempty"`
	Delivery        *DeliveryDetail `json:"delivery,omitempty"`
}

// ExchangeRate is the conversion rate to the local currency, defaulting to 1.
func (r *SalesRecord) ExchangeRate() float64 {
	if r.ConversionRate == 0 {
		return 1
	}
	return r.ConversionRate
}

// ForeignDocument reports whether the document is denominated in a currency other than the local one.
func (r *SalesRecord) ForeignDocument() bool {
	cur := strings.ToUpper(strings.TrimSpace(r.Currency))
	return cur != "" && cur != LocalCurrency
}

// ConsolidatedOrPOS reports whether per-line taxes are re-derived instead of read from the tax ledger.
func (r *SalesRecord) ConsolidatedOrPOS() bool {
	return r.IsConsolidated || r.IsPOS
}

// FirstMoreDetail returns the first "more details" row or an empty row.
func (r *SalesRecord) FirstMoreDetail() MoreDetail {
	if len(r.MoreDetails) == 0 {
		return MoreDetail{}
	}
	return r.MoreDetails[0]
}

type Company struct {
	Name         string `json:"name"`
	TaxID        string `json:"eta_tax_id"`
	IssuerName   string `json:"eta_issuer_name"`
	IssuerType   string `json:"eta_issuer_type"`
	ActivityCode string `json:"eta_default_activity_code"`
	CountryCode  string `json:"country_code"`
}

type Branch struct {
	Name        string `json:"name"`
	ETABranchID string `json:"eta_branch_id"`
}

type Address struct {
	Title                 string `json:"address_title,omitempty"`
	AddressLine1          string `json:"address_line1"`
	AddressLine2          string `json:"address_line2,omitempty"`
	City                  string `json:"city"`
	State                 string `json:"state"`
	Country               string `json:"country"`
	CountryCode           string `json:"country_code"`
	Pincode               string `json:"pincode,omitempty"`
	BuildingNumber        string `json:"building_number"`
	Floor                 string `json:"floor,omitempty"`
	Room                  string `json:"room,omitempty"`
	Landmark              string `json:"landmark,omitempty"`
	AdditionalInformation string `json:"additional_information,omitempty"`
}

type Customer struct {
	Name          string `json:"name"`
	CustomerName  string `json:"customer_name"`
	ReceiverType  string `json:"eta_receiver_type"`
	TaxID         string `json:"tax_id"`
	MobileNo      string `json:"mobile_no,omitempty"`
	PaymentNumber string `json:"payment_number,omitempty"`
}

// Classification is the ETA code attached to an item, brand or item group.
type Classification struct {
	Name     string `json:"name"`
	ItemCode string `json:"eta_item_code"`
	CodeType string `json:"eta_code_type"`
}

type SalesItem struct {
	ItemCode    string `json:"item_code"`
	ItemName    string `json:"item_name"`
	Description string `json:"description,omitempty"`
	UOM         string `json:"uom"`
	ETAUnitType string `json:"eta_uom,omitempty"`

	ETAItemCode      string          `json:"eta_item_code,omitempty"`
	ETACodeType      string          `json:"eta_code_type,omitempty"`
	InheritBrand     bool            `json:"eta_inherit_brand,omitempty"`
	InheritItemGroup bool            `json:"eta_inherit_item_group,omitempty"`
	Brand            *Classification `json:"brand,omitempty"`
	ItemGroup        *Classification `json:"item_group,omitempty"`

	Qty                float64 `json:"qty"`
	Rate               float64 `json:"rate"`
	NetRate            float64 `json:"net_rate"`
	Amount             float64 `json:"amount"`
	NetAmount          float64 `json:"net_amount"`
	BaseAmount         float64 `json:"base_amount"`
	BaseNetAmount      float64 `json:"base_net_amount"`
	DiscountAmount     float64 `json:"discount_amount"`
	DiscountPercentage float64 `json:"discount_percentage"`
}

// TaxRule is one row of the document's taxes and charges table.
type TaxRule struct {
	ChargeType                 string        `json:"charge_type"`
	AccountHead                string        `json:"account_head,omitempty"`
	Description                string        `json:"description,omitempty"`
	TaxType                    string        `json:"eta_tax_type"`
	SubType                    string        `json:"eta_tax_sub_type"`
	Rate                       float64       `json:"rate"`
	Disabled                   bool          `json:"disable_eta"`
	ItemWiseTaxDetail          ItemTaxDetail `json:"item_wise_tax_detail"`
	TaxAmountAfterDiscount     float64       `json:"tax_amount_after_discount_amount"`
	BaseTaxAmountAfterDiscount float64       `json:"base_tax_amount_after_discount_amount"`
}

// ItemTaxDetail maps an item code to [rate, amount]. The ERP stores it as a JSON encoded string,
// so both an object and a string holding an object are accepted.
type ItemTaxDetail map[string][]float64

func (d *ItemTaxDetail) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = nil
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTaxDetail, err)
		}
		if strings.TrimSpace(raw) == "" {
			*d = nil
			return nil
		}
		data = []byte(raw)
	}
	var out map[string][]float64
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTaxDetail, err)
	}
	*d = out
	return nil
}

// Rate returns the per-item rate (first element) for itemCode.
func (d ItemTaxDetail) Rate(itemCode string) (float64, bool) {
	detail, ok := d[itemCode]
	if !ok || len(detail) == 0 {
		return 0, false
	}
	return detail[0], true
}

type MoreDetail struct {
	PurchaseOrderDescription string `json:"purchase_order_description,omitempty"`
	SalesOrderReference      string `json:"sales_order_reference,omitempty"`
	SalesOrderDescription    string `json:"sales_order_description,omitempty"`
	ProformaInvoiceNumber    string `json:"proforma_invoice_number,omitempty"`
	BankAccount              string `json:"bank_account,omitempty"`
}

type BankAccount struct {
	Name        string `json:"name"`
	BankName    string `json:"bank"`
	BankAddress string `json:"bank_address,omitempty"`
	AccountNo   string `json:"bank_account_no"`
	IBAN        string `json:"iban"`
	SwiftCode   string `json:"swift_number"`
}

type DeliveryDetail struct {
	Approach        string  `json:"approach,omitempty"`
	Packaging       string  `json:"packaging,omitempty"`
	DateValidity    string  `json:"date_validity,omitempty"`
	ExportPort      string  `json:"export_port,omitempty"`
	CountryOfOrigin string  `json:"country_of_origin,omitempty"`
	GrossWeight     float64 `json:"gross_weight,omitempty"`
	NetWeight       float64 `json:"net_weight,omitempty"`
	Terms           string  `json:"terms,omitempty"`
}
