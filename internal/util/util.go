package util

import (
	"currentcost2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Serial: config.SerialConfig{
			Device:            "/dev/null",
			BaudRate:          57600,
			ReadTimeoutMillis: 1000,
		},
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "currentcost",
		},
		Tariff: config.TariffConfig{
			CurrencySymbol: "£",
			Rate1:          13.9,
			Rate1Threshold: 900,
			Rate2:          8.2,
			NightRate:      5.0,
			NightWindow:    "23:30-06:30",
		},
		MonitorConfig: config.MonitorConfig{
			TickIntervalSecs: 360,
			MaxFrameReads:    50,
		},
		StateConfig: config.StateConfig{
			Path: "/tmp/currentcost2mqtt-test-state.json",
		},
		Port: 8080,
	}
}
