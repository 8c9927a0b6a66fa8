package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/smallbiznis/etabridge/internal/eta/domain"
	"github.com/smallbiznis/etabridge/internal/eta/rounding"
)

// DefaultGracePeriodHours bounds how long after posting a document may still be submitted.
const DefaultGracePeriodHours = 168

// ETASettings are the global defaults read from eta.yml.
type ETASettings struct {
	domain.Settings  `mapstructure:",squash"`
	GracePeriodHours int `mapstructure:"grace_period_hours" json:"grace_period_hours"`
}

// GracePeriod is the submission window used when a connector does not set its own.
func (s ETASettings) GracePeriod() time.Duration {
	return time.Duration(s.GracePeriodHours) * time.Hour
}

func DefaultETASettings() ETASettings {
	return ETASettings{
		Settings:         domain.DefaultSettings(),
		GracePeriodHours: DefaultGracePeriodHours,
	}
}

type SettingsHolder struct {
	current atomic.Value // holds ETASettings
}

// NewStaticSettingsHolder returns a holder that never reloads.
func NewStaticSettingsHolder(s ETASettings) *SettingsHolder {
	h := &SettingsHolder{}
	h.current.Store(s)
	return h
}

func NewSettingsHolder(log *zap.Logger) (*SettingsHolder, error) {
	v := viper.New()
	v.SetConfigName("eta")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/etabridge")
	v.AddConfigPath(".")
	return loadSettings(v, log)
}

func loadSettings(v *viper.Viper, log *zap.Logger) (*SettingsHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.settings")

	v.SetEnvPrefix("ETABRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setSettingsDefaults(v)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	cfg, err := decodeSettings(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticSettingsHolder(cfg)
	if !fileLoaded {
		log.Info("eta settings file not found, using defaults")
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeSettings(v)
		if err != nil {
			log.Warn("invalid eta settings ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("eta settings reloaded", zap.String("file", e.Name))
	})
	return holder, nil
}

func setSettingsDefaults(v *viper.Viper) {
	d := DefaultETASettings()
	v.SetDefault("eta.default_item_code", d.DefaultItemCode)
	v.SetDefault("eta.default_item_type", d.DefaultItemType)
	v.SetDefault("eta.default_unit_type", d.DefaultUnitType)
	v.SetDefault("eta.rounding_precision", d.RoundingPrecision)
	v.SetDefault("eta.device_serial_number", d.DeviceSerialNumber)
	v.SetDefault("eta.default_buyer_id", d.DefaultBuyerID)
	v.SetDefault("eta.timezone", d.Timezone)
	v.SetDefault("eta.person_id_threshold", d.PersonIDThreshold)
	v.SetDefault("eta.grace_period_hours", d.GracePeriodHours)
}

func decodeSettings(v *viper.Viper) (ETASettings, error) {
	var file struct {
		ETA ETASettings `mapstructure:"eta"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return ETASettings{}, err
	}
	if err := validateSettings(file.ETA); err != nil {
		return ETASettings{}, err
	}
	return file.ETA, nil
}

func validateSettings(cfg ETASettings) error {
	if cfg.RoundingPrecision < 0 || cfg.RoundingPrecision > rounding.MaxPlaces {
		return fmt.Errorf("eta.rounding_precision must be between 0 and %d", rounding.MaxPlaces)
	}
	switch cfg.DefaultItemType {
	case domain.ItemTypeGS1, domain.ItemTypeEGS:
	default:
		return fmt.Errorf("eta.default_item_type must be one of %v", domain.ItemTypes)
	}
	if cfg.GracePeriodHours <= 0 {
		return errors.New("eta.grace_period_hours must be positive")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("eta.timezone: %w", err)
	}
	return nil
}

func (h *SettingsHolder) Get() ETASettings {
	return h.current.Load().(ETASettings)
}
