package builder

import (
	"strings"

	"github.com/smallbiznis/etabridge/internal/eta/domain"
)

// Receiver defaults used when the customer has no address or name.
const (
	WalkinCustomerName     = "Walkin Customer"
	defaultReceiverGov     = "Egypt"
	defaultReceiverCity    = "EG City"
	defaultReceiverStreet  = "Street 1"
	defaultBuildingNumber  = "B0"
	defaultIssuerPartyType = domain.PartyBusiness
)

func countryCode(codes ...string) string {
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			return strings.ToUpper(c)
		}
	}
	return domain.DefaultCountryCode
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func issuer(rec *domain.SalesRecord) domain.Issuer {
	c := rec.CompanyInfo
	a := rec.BranchAddress
	return domain.Issuer{
		Type: orDefault(c.IssuerType, string(defaultIssuerPartyType)),
		ID:   domain.CleanTaxID(c.TaxID),
		Name: orDefault(c.IssuerName, c.Name),
		Address: domain.IssuerAddress{
			BranchID:              rec.Branch.ETABranchID,
			Country:               countryCode(a.CountryCode, c.CountryCode),
			Governate:             a.State,
			RegionCity:            a.City,
			Street:                a.AddressLine1,
			BuildingNumber:        a.BuildingNumber,
			PostalCode:            a.Pincode,
			Floor:                 a.Floor,
			Room:                  a.Room,
			Landmark:              a.Landmark,
			AdditionalInformation: a.AdditionalInformation,
		},
	}
}

func receiverType(c domain.Customer) string {
	return orDefault(strings.ToUpper(strings.TrimSpace(c.ReceiverType)), string(domain.PartyPerson))
}

func receiver(rec *domain.SalesRecord) domain.Receiver {
	c := rec.Customer
	partyType := receiverType(c)

	name := orDefault(c.CustomerName, c.Name)
	if partyType == string(domain.PartyPerson) && strings.TrimSpace(name) == "" {
		name = WalkinCustomerName
	}

	out := domain.Receiver{
		Type: partyType,
		ID:   strings.ReplaceAll(strings.TrimSpace(c.TaxID), "-", ""),
		Name: name,
	}

	switch {
	case rec.CustomerAddress != nil:
		a := rec.CustomerAddress
		out.Address = &domain.ReceiverAddress{
			Country:               countryCode(a.CountryCode),
			Governate:             a.State,
			RegionCity:            a.City,
			Street:                a.AddressLine1,
			BuildingNumber:        orDefault(a.BuildingNumber, defaultBuildingNumber),
			PostalCode:            a.Pincode,
			Floor:                 a.Floor,
			Room:                  a.Room,
			Landmark:              a.Landmark,
			AdditionalInformation: a.AdditionalInformation,
		}
	case partyType != string(domain.PartyForeigner):
		out.Address = &domain.ReceiverAddress{
			Country:        domain.DefaultCountryCode,
			Governate:      defaultReceiverGov,
			RegionCity:     defaultReceiverCity,
			Street:         defaultReceiverStreet,
			BuildingNumber: defaultBuildingNumber,
		}
	}
	return out
}

func seller(rec *domain.SalesRecord, settings domain.Settings) domain.Seller {
	c := rec.CompanyInfo
	a := rec.BranchAddress
	return domain.Seller{
		Rin:                domain.CleanTaxID(c.TaxID),
		CompanyTradeName:   orDefault(c.IssuerName, c.Name),
		BranchCode:         rec.Branch.ETABranchID,
		DeviceSerialNumber: settings.DeviceSerialNumber,
		ActivityCode:       c.ActivityCode,
		BranchAddress: domain.BranchAddress{
			Country:               countryCode(a.CountryCode, c.CountryCode),
			Governate:             a.State,
			RegionCity:            a.City,
			Street:                a.AddressLine1,
			BuildingNumber:        a.BuildingNumber,
			PostalCode:            a.Pincode,
			Floor:                 a.Floor,
			Room:                  a.Room,
			Landmark:              a.Landmark,
			AdditionalInformation: a.AdditionalInformation,
		},
	}
}

// buyer falls back to the configured anonymous buyer ID unless the customer carries a usable one.
func buyer(rec *domain.SalesRecord, settings domain.Settings) domain.Buyer {
	c := rec.Customer
	partyType := receiverType(c)
	out := domain.Buyer{
		Type:          partyType,
		ID:            settings.DefaultBuyerID,
		Name:          orDefault(c.CustomerName, c.Name),
		MobileNumber:  c.MobileNo,
		PaymentNumber: c.PaymentNumber,
	}
	switch domain.PartyType(partyType) {
	case domain.PartyBusiness:
		out.ID = domain.CleanTaxID(c.TaxID)
	case domain.PartyForeigner:
		out.ID = strings.TrimSpace(c.TaxID)
	case domain.PartyPerson:
		if id := domain.CleanTaxID(c.TaxID); domain.ValidTaxID(id, domain.PartyPerson) {
			out.ID = id
		}
	}
	return out
}

// payment is only emitted when the first more-details row names a bank account.
func payment(rec *domain.SalesRecord) *domain.Payment {
	if strings.TrimSpace(rec.FirstMoreDetail().BankAccount) == "" || rec.BankAccount == nil {
		return nil
	}
	acc := rec.BankAccount
	return &domain.Payment{
		BankName:        acc.BankName,
		BankAddress:     acc.BankAddress,
		BankAccountNo:   acc.AccountNo,
		BankAccountIBAN: acc.IBAN,
		SwiftCode:       domain.NormalizeSwiftCode(acc.SwiftCode),
		Terms:           rec.Terms,
	}
}

func delivery(rec *domain.SalesRecord) *domain.Delivery {
	d := rec.Delivery
	if d == nil {
		return nil
	}
	return &domain.Delivery{
		Approach:        d.Approach,
		Packaging:       d.Packaging,
		DateValidity:    d.DateValidity,
		ExportPort:      d.ExportPort,
		CountryOfOrigin: d.CountryOfOrigin,
		GrossWeight:     d.GrossWeight,
		NetWeight:       d.NetWeight,
		Terms:           d.Terms,
	}
}
