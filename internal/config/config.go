package config

import (
	"errors"
	"regexp"
	"strings"

	"currentcost2mqtt/internal/core/domain"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel zapcore.Level
	Serial   SerialConfig `mapstructure:"serial"`
	MQTT     MQTTConfig   `mapstructure:"mqtt"`

	Tariff        TariffConfig  `mapstructure:"tariff"`
	MonitorConfig MonitorConfig `mapstructure:"monitor"`
	StateConfig   StateConfig   `mapstructure:"state"`
	Port          uint          `mapstructure:"port"`
	HttpLog       bool          `mapstructure:"http_log"`
}

type SerialConfig struct {
	Device            string
	BaudRate          int    `mapstructure:"baud_rate"`
	ReadTimeoutMillis uint32 `mapstructure:"read_timeout_millis"`
}

type MonitorConfig struct {
	TickIntervalSecs uint32 `mapstructure:"tick_interval_secs"`
	MaxFrameReads    int    `mapstructure:"max_frame_reads"`
}

type StateConfig struct {
	Path string
}

// TariffConfig holds the billing parameters. Rates are expressed in
// minor-currency-unit hundredths per kWh (e.g. 13.9 = 13.9 pence
// hundredths); NightRate == 0 disables the night tariff entirely.
type TariffConfig struct {
	CurrencySymbol string  `mapstructure:"currency_symbol"`
	Rate1          float64 `mapstructure:"rate1"`
	Rate1Threshold float64 `mapstructure:"rate1_threshold"`
	Rate2          float64 `mapstructure:"rate2"`
	NightRate      float64 `mapstructure:"night_rate"`
	NightWindow    string  `mapstructure:"night_window"`
	StandingCharge float64 `mapstructure:"standing_charge"`
}

func (t TariffConfig) NightRateEnabled() bool {
	return t.NightRate != 0
}

// Validate checks the tariff parameters at startup; any violation is a
// fatal ConfigError.
func (t TariffConfig) Validate() error {
	if t.Rate1 < 0 {
		return &domain.ConfigError{Param: "tariff.rate1", Err: errors.New("rate must be non-negative")}
	}
	if t.Rate2 < 0 {
		return &domain.ConfigError{Param: "tariff.rate2", Err: errors.New("rate must be non-negative")}
	}
	if t.NightRate < 0 {
		return &domain.ConfigError{Param: "tariff.night_rate", Err: errors.New("rate must be non-negative")}
	}
	if t.StandingCharge < 0 {
		return &domain.ConfigError{Param: "tariff.standing_charge", Err: errors.New("charge must be non-negative")}
	}
	if t.Rate1Threshold < 0 {
		return &domain.ConfigError{Param: "tariff.rate1_threshold", Err: errors.New("threshold must be >= 0")}
	}
	if t.NightRateEnabled() {
		if _, err := domain.ParseNightWindow(t.NightWindow); err != nil {
			return &domain.ConfigError{Param: "tariff.night_window", Err: err}
		}
	}
	return nil
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
