package domain

import "errors"

var (
	ErrInvalidCompany         = errors.New("invalid_company")
	ErrInvalidName            = errors.New("invalid_name")
	ErrInvalidKind            = errors.New("invalid_connector_kind")
	ErrInvalidEnvironment     = errors.New("invalid_environment")
	ErrInvalidCredentials     = errors.New("invalid_credentials")
	ErrInvalidGracePeriod     = errors.New("invalid_grace_period")
	ErrMissingPOSSerial       = errors.New("missing_pos_serial")
	ErrDefaultConnectorExists = errors.New("default_connector_exists")
	ErrNameTaken              = errors.New("connector_name_taken")
	ErrNotFound               = errors.New("connector_not_found")
	ErrNoDefaultConnector     = errors.New("no_default_connector")
)
