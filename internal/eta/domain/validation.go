package domain

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultPersonIDThreshold is the document total from which a person receiver must carry a national ID.
const DefaultPersonIDThreshold = 45000

var (
	swiftPattern      = regexp.MustCompile(`^[A-Z]{6}[A-Z0-9]{2}([A-Z0-9]{3})?$`)
	nationalIDPattern = regexp.MustCompile(`^\d{14}$`)
	businessIDPattern = regexp.MustCompile(`^\d{9}$`)
	nonAlnum          = regexp.MustCompile(`[^0-9A-Za-z]`)
)

// Tags reported by the struct level rules.
const (
	tagNotBlank      = "notblank"
	tagSwift         = "swift"
	tagBusinessTaxID = "business_tax_id"
	tagNationalID    = "national_id"
	tagSigned        = "signed"
)

// ValidationOptions tunes the conditional rules of document validation.
type ValidationOptions struct {
	PersonIDThreshold float64
}

func (o ValidationOptions) threshold() float64 {
	if o.PersonIDThreshold <= 0 {
		return DefaultPersonIDThreshold
	}
	return o.PersonIDThreshold
}

type optionsKey struct{}

func optionsFrom(ctx context.Context) ValidationOptions {
	opts, _ := ctx.Value(optionsKey{}).(ValidationOptions)
	return opts
}

var documentValidator = newDocumentValidator()

func newDocumentValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, tagNotBlank, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, tagSwift, func(fl validator.FieldLevel) bool {
		return ValidSwiftCode(fl.Field().String())
	})
	v.RegisterStructValidationCtx(invoiceRules, Invoice{})
	v.RegisterStructValidationCtx(receiptRules, Receipt{})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// validateDocument runs the tag and struct level rules and converts every failure to a FieldError.
func validateDocument(doc any, opts ValidationOptions) error {
	ctx := context.WithValue(context.Background(), optionsKey{}, opts)
	err := documentValidator.StructCtx(ctx, doc)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make([]FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, toFieldError(fe))
	}
	return &ValidationError{Errors: out}
}

func toFieldError(fe validator.FieldError) FieldError {
	// the namespace starts with the document type name
	_, path, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		path = fe.Namespace()
	}
	code, message := describe(path, fe)
	return FieldError{Path: path, Code: code, Message: message, Label: FriendlyName(path)}
}

func describe(path string, fe validator.FieldError) (string, string) {
	switch fe.Tag() {
	case tagNotBlank, "required":
		return CodeRequired, fmt.Sprintf("Field '%s' is required", path)
	case "min":
		if fe.Kind() == reflect.Slice {
			return CodeRequired, fmt.Sprintf("Field '%s' is required", path)
		}
		return CodeOutOfRange, fmt.Sprintf("Field '%s' must be at least %s", path, fe.Param())
	case "oneof":
		return CodeInvalidChoice, fmt.Sprintf("Field '%s' has invalid value %q, allowed values are [%s]", path, fe.Value(), fe.Param())
	case "gte":
		return CodeOutOfRange, fmt.Sprintf("Field '%s' must be %s or more", path, fe.Param())
	case "lte", "max":
		return CodeOutOfRange, fmt.Sprintf("Field '%s' must be %s or less", path, fe.Param())
	case tagSwift:
		return CodeInvalidFormat, fmt.Sprintf("Field '%s' has invalid SWIFT/BIC format %q", path, fe.Value())
	case tagBusinessTaxID:
		return CodeInvalidFormat, fmt.Sprintf("Field '%s' must be a 9 digit tax registration number", path)
	case tagNationalID:
		return CodeInvalidFormat, fmt.Sprintf("Field '%s' must be a 14 digit national ID when the total is %s or more", path, fe.Param())
	case tagSigned:
		return CodeRequired, fmt.Sprintf("Field '%s' is required for document version %s", path, fe.Param())
	default:
		return CodeInvalidFormat, fmt.Sprintf("Field '%s' failed the %s rule", path, fe.Tag())
	}
}

func invoiceRules(ctx context.Context, sl validator.StructLevel) {
	inv := sl.Current().Interface().(Invoice)
	partyRules(sl, "receiver", inv.Receiver.Type, inv.Receiver.ID, inv.TotalAmount, inv.Receiver.Address, optionsFrom(ctx))
	if inv.DocumentTypeVersion == DocumentTypeVersionSigned && !inv.Signed() {
		sl.ReportError(inv.Signatures, "signatures", "Signatures", tagSigned, DocumentTypeVersionSigned)
	}
}

func receiptRules(ctx context.Context, sl validator.StructLevel) {
	r := sl.Current().Interface().(Receipt)
	if r.IsReturn() && strings.TrimSpace(r.Header.ReferenceUUID) == "" {
		sl.ReportError(r.Header.ReferenceUUID, "header.referenceUUID", "Header.ReferenceUUID", tagNotBlank, "")
	}
	partyRules(sl, "buyer", r.Buyer.Type, r.Buyer.ID, r.TotalAmount, struct{}{}, optionsFrom(ctx))
}

// partyRules applies the receiver/buyer identity rules shared by invoices and receipts.
// An invalid party type is already reported by the field tags.
func partyRules(sl validator.StructLevel, prefix, partyType, id string, total float64, address any, opts ValidationOptions) {
	if !contains(PartyTypes, partyType) {
		return
	}
	idField := prefix + ".id"
	blank := strings.TrimSpace(id) == ""
	switch PartyType(partyType) {
	case PartyBusiness:
		if blank {
			sl.ReportError(id, idField, "ID", tagNotBlank, "")
		} else if !ValidTaxID(id, PartyBusiness) {
			sl.ReportError(id, idField, "ID", tagBusinessTaxID, "")
		}
	case PartyPerson:
		if total < opts.threshold() {
			return
		}
		if blank {
			sl.ReportError(id, idField, "ID", tagNotBlank, "")
		} else if !nationalIDPattern.MatchString(id) {
			sl.ReportError(id, idField, "ID", tagNationalID, fmt.Sprintf("%v", opts.threshold()))
		}
	case PartyForeigner:
		if blank {
			sl.ReportError(id, idField, "ID", tagNotBlank, "")
		}
		if isNil(address) {
			sl.ReportError(address, prefix+".address", "Address", tagNotBlank, "")
		}
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

var friendlyNames = map[string]string{
	"issuer.id":                     "Company ETA Tax ID",
	"issuer.name":                   "Company ETA Issuer Name",
	"issuer.address.branchId":       "Branch ETA ID",
	"issuer.address.country":        "Branch Country",
	"issuer.address.governate":      "Branch Governate/State",
	"issuer.address.regionCity":     "Branch City",
	"issuer.address.street":         "Branch Street",
	"issuer.address.buildingNumber": "Branch Building Number",
	"taxpayerActivityCode":          "Company ETA Activity Code",
	"receiver.name":                 "Customer Name",
	"receiver.id":                   "Customer Tax ID",
	"receiver.address":              "Customer Address",
	"invoiceLines":                  "Invoice Items",
	"taxTotals":                     "Tax Information",
	"seller.rin":                    "Company ETA Tax ID",
	"seller.companyTradeName":       "Company ETA Issuer Name",
	"seller.branchCode":             "Branch ETA ID",
	"seller.activityCode":           "Company ETA Activity Code",
	"buyer.id":                      "Customer Tax ID",
	"itemData":                      "Receipt Items",
}

// FriendlyName maps a document path to an operator facing label. Unknown paths are returned unchanged.
func FriendlyName(path string) string {
	if label, ok := friendlyNames[path]; ok {
		return label
	}
	best := ""
	for key := range friendlyNames {
		if strings.HasPrefix(path, key) && len(key) > len(best) {
			best = key
		}
	}
	if best != "" {
		return friendlyNames[best]
	}
	return path
}

// NormalizeSwiftCode trims and upper-cases a SWIFT/BIC code.
func NormalizeSwiftCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidSwiftCode reports whether code is a well formed SWIFT/BIC code once normalized.
func ValidSwiftCode(code string) bool {
	return swiftPattern.MatchString(NormalizeSwiftCode(code))
}

// CleanTaxID strips every non alphanumeric character.
func CleanTaxID(taxID string) string {
	return nonAlnum.ReplaceAllString(taxID, "")
}

// ValidTaxID checks the length rule for the party type: 9 digits for businesses, 14 for persons.
func ValidTaxID(taxID string, partyType PartyType) bool {
	cleaned := CleanTaxID(taxID)
	switch partyType {
	case PartyBusiness:
		return businessIDPattern.MatchString(cleaned)
	case PartyPerson:
		return nationalIDPattern.MatchString(cleaned)
	default:
		return cleaned != ""
	}
}
