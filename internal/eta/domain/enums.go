package domain

// DocumentKind selects the document family a sales record is transformed into.
type DocumentKind string

const (
	KindInvoice DocumentKind = "invoice"
	KindReceipt DocumentKind = "receipt"
)

// ParseKind normalizes a kind coming from an API path or a stored record.
func ParseKind(raw string) (DocumentKind, error) {
	switch DocumentKind(raw) {
	case KindInvoice, KindReceipt:
		return DocumentKind(raw), nil
	default:
		return "", ErrInvalidDocumentKind
	}
}

// PartyType identifies issuers, receivers and receipt buyers.
type PartyType string

const (
	PartyBusiness  PartyType = "B"
	PartyPerson    PartyType = "P"
	PartyForeigner PartyType = "F"
)

const (
	ItemTypeGS1 = "GS1"
	ItemTypeEGS = "EGS"
)

const (
	DocumentTypeInvoice    = "I"
	DocumentTypeCreditNote = "C"

	DocumentTypeVersionSigned   = "1.0"
	DocumentTypeVersionUnsigned = "0.9"
)

const (
	ReceiptTypeSale   = "s"
	ReceiptTypeReturn = "r"

	ReceiptTypeVersion = "1.2"
)

const (
	DeliveryModeFC = "FC"
	DeliveryModeTO = "TO"
	DeliveryModeTC = "TC"
)

const (
	LocalCurrency        = "EGP"
	DefaultCountryCode   = "EG"
	SignatureTypeIssuer  = "I"
	UnsignedSignature    = "ANY"
	PaymentMethodCash    = "C"
	DefaultReceiptTax    = "T1"
	DefaultReceiptSubTax = "V001"
)

// Charge types of the upstream tax rules.
const (
	ChargeOnNetTotal         = "On Net Total"
	ChargeOnPreviousRowTotal = "On Previous Row Total"
	ChargeActual             = "Actual"
)

var (
	PartyTypes    = []string{string(PartyBusiness), string(PartyPerson), string(PartyForeigner)}
	ItemTypes     = []string{ItemTypeGS1, ItemTypeEGS}
	DocumentTypes = []string{DocumentTypeInvoice, DocumentTypeCreditNote}
	ReceiptTypes  = []string{ReceiptTypeSale, ReceiptTypeReturn}
	DeliveryModes = []string{DeliveryModeFC, DeliveryModeTO, DeliveryModeTC}
	TaxTypes      = []string{"T1", "T2", "T3", "T4", "T5", "T6", "T7", "T8", "T9", "T10", "T11", "T12"}
	TaxSubTypes   = []string{"V001", "V002", "V003", "V004", "V005", "V006", "V007", "V008", "V009", "V010"}
)

func contains(set []string, value string) bool {
	for _, v := range set {
		if v == value {
			return true
		}
	}
	return false
}
