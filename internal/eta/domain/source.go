package domain

import "context"

//go:generate mockgen -source=source.go -destination=mock/mock_source.go -package=mock

// RecordSource supplies raw sales records. Implementations return ErrRecordNotFound for unknown names.
type RecordSource interface {
	FetchRecord(ctx context.Context, kind DocumentKind, name string) (*SalesRecord, error)
}

// Settings are the global ETA defaults shared by every company.
type Settings struct {
	DefaultItemCode    string  `mapstructure:"default_item_code" json:"default_item_code"`
	DefaultItemType    string  `mapstructure:"default_item_type" json:"default_item_type"`
	DefaultUnitType    string  `mapstructure:"default_unit_type" json:"default_unit_type"`
	RoundingPrecision  int     `mapstructure:"rounding_precision" json:"rounding_precision"`
	DeviceSerialNumber string  `mapstructure:"device_serial_number" json:"device_serial_number"`
	DefaultBuyerID     string  `mapstructure:"default_buyer_id" json:"default_buyer_id"`
	Timezone           string  `mapstructure:"timezone" json:"timezone"`
	PersonIDThreshold  float64 `mapstructure:"person_id_threshold" json:"person_id_threshold"`
}

// DefaultSettings mirrors the values used when no settings file is present.
func DefaultSettings() Settings {
	return Settings{
		DefaultItemType:    ItemTypeGS1,
		DefaultUnitType:    "EA",
		RoundingPrecision:  2,
		DeviceSerialNumber: "SERIAL0101",
		DefaultBuyerID:     "29501023501952",
		Timezone:           "Africa/Cairo",
		PersonIDThreshold:  DefaultPersonIDThreshold,
	}
}

// WithDefaults fills blank values from DefaultSettings.
func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if s.DefaultItemType == "" {
		s.DefaultItemType = d.DefaultItemType
	}
	if s.DefaultUnitType == "" {
		s.DefaultUnitType = d.DefaultUnitType
	}
	if s.RoundingPrecision <= 0 {
		s.RoundingPrecision = d.RoundingPrecision
	}
	if s.DeviceSerialNumber == "" {
		s.DeviceSerialNumber = d.DeviceSerialNumber
	}
	if s.DefaultBuyerID == "" {
		s.DefaultBuyerID = d.DefaultBuyerID
	}
	if s.Timezone == "" {
		s.Timezone = d.Timezone
	}
	if s.PersonIDThreshold <= 0 {
		s.PersonIDThreshold = d.PersonIDThreshold
	}
	return s
}

// ValidationOptions derives the document validation options from the settings.
func (s Settings) ValidationOptions() ValidationOptions {
	return ValidationOptions{PersonIDThreshold: s.PersonIDThreshold}
}
