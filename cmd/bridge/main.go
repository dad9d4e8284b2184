package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "currentcost2mqtt/internal/adapter/actor"
	"currentcost2mqtt/internal/config"
	"currentcost2mqtt/internal/core/actor"
	"currentcost2mqtt/internal/core/domain"
	"currentcost2mqtt/internal/core/service"
	"currentcost2mqtt/internal/server"
	"currentcost2mqtt/internal/state"
	"currentcost2mqtt/internal/util/actorutil"
	"currentcost2mqtt/pkg/currentcost"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	// init meter actor provider
	meterProv, err := meterActorProvider(cfg, logger)
	if err != nil {
		panic(err)
	}

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, meterProv, mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		return
	}

	server := server.NewServer(*cfg, ctx, pid)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => CCMETER_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("CCMETER_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("ccmeter")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := config.CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	// check bounds
	if cfg.Serial.Device == "" {
		return nil, errors.New("config param serial.device is required")
	}
	if cfg.Serial.BaudRate <= 0 {
		return nil, errors.New("config param serial.baud_rate should be > 0")
	}
	if cfg.MonitorConfig.TickIntervalSecs < 1 {
		return nil, errors.New("config param monitor.tick_interval_secs should be >= 1")
	}
	if cfg.MonitorConfig.MaxFrameReads <= 0 {
		return nil, errors.New("config param monitor.max_frame_reads should be > 0")
	}
	if cfg.StateConfig.Path == "" {
		return nil, errors.New("config param state.path is required")
	}
	if err := cfg.Tariff.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func meterActorProvider(cfg *config.Config, logger *zap.Logger) (actor.MeterActorProvider, error) {

	reader, err := currentcost.CreateSerialCycleReader(cfg.Serial.Device, cfg.Serial.BaudRate,
		time.Duration(cfg.Serial.ReadTimeoutMillis)*time.Millisecond, cfg.MonitorConfig.MaxFrameReads, logger)
	if err != nil {
		return nil, err
	}

	store, err := state.NewFileStore(cfg.StateConfig.Path, logger)
	if err != nil {
		return nil, err
	}

	tariff := &service.TariffCalculator{
		Currency:       cfg.Tariff.CurrencySymbol,
		Rate1:          cfg.Tariff.Rate1,
		Rate1Threshold: cfg.Tariff.Rate1Threshold,
		Rate2:          cfg.Tariff.Rate2,
		NightRate:      cfg.Tariff.NightRate,
		StandingCharge: cfg.Tariff.StandingCharge,
	}
	if cfg.Tariff.NightRateEnabled() {
		window, err := domain.ParseNightWindow(cfg.Tariff.NightWindow)
		if err != nil {
			return nil, err
		}
		tariff.Window = &window
	}

	return func(es *eventstream.EventStream) *adactor.MeterActor {
		poller := &service.Poller{
			Reader:       reader,
			Store:        store,
			Tariff:       tariff,
			TickInterval: time.Duration(cfg.MonitorConfig.TickIntervalSecs) * time.Second,
			Logger:       logger,
		}
		return adactor.NewMeterActor(cfg, poller, es, logger)
	}, nil
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.base_topic", "currentcost")
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("serial.device", "/dev/ttyUSB0")
	viper.SetDefault("serial.baud_rate", 57600)
	viper.SetDefault("serial.read_timeout_millis", 10000)
	viper.SetDefault("monitor.tick_interval_secs", 360)
	viper.SetDefault("monitor.max_frame_reads", 50)
	viper.SetDefault("state.path", "currentcost-state.json")
	viper.SetDefault("tariff.currency_symbol", "£")
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
