// Package config loads notifier settings from an optional JSON file and flags.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/temperature-notifier/internal/gpio"
	"github.com/sweeney/temperature-notifier/internal/logic"
	"github.com/sweeney/temperature-notifier/internal/notify"
	"github.com/sweeney/temperature-notifier/internal/sensor"
	"github.com/sweeney/temperature-notifier/internal/state"
)

// Sensor kinds.
const (
	SensorTMP75B = "tmp75b"
	SensorFake   = "fake"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// MQTTConfig selects the broker and topic for the MQTT notifier.
type MQTTConfig struct {
	Broker   string `json:"broker"`
	Topic    string `json:"topic"`
	ClientID string `json:"client_id"`
}

// KafkaConfig lists the seed brokers and topic for the Kafka notifier.
type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}

// Config is the runtime configuration, read from an optional JSON file and
// then overridden by command-line flags. Interval zero means run one cycle
// and exit.
type Config struct {
	Setpoints  logic.Setpoints `json:"setpoints"`
	StateFile  string          `json:"state_file"`
	Sensor     string          `json:"sensor"`
	I2CBus     string          `json:"i2c_bus"`
	I2CAddress int             `json:"i2c_address"`
	OneShot    bool            `json:"one_shot"`
	Settle     Duration        `json:"settle"`
	FakeRaw    uint16          `json:"fake_raw"`
	AlertPin   int             `json:"alert_pin"`
	GPIOChip   string          `json:"gpio_chip"`
	Notifier   string          `json:"notifier"`
	MQTT       MQTTConfig      `json:"mqtt"`
	Kafka      KafkaConfig     `json:"kafka"`
	Interval   Duration        `json:"interval"`
	HTTPAddr   string          `json:"http"`
	PrintTemp  bool            `json:"-"`
	LogLevel   string          `json:"log_level"`
	LogFormat  string          `json:"log_format"`
}

// Duration is a time.Duration that reads and writes JSON as "1h30m".
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText parses a time.ParseDuration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns the built-in configuration: setpoints 18/24 with 0.5
// hysteresis, a one-shot TMP75B on bus 1 and the MQTT notifier.
func Default() Config {
	return Config{
		Setpoints:  logic.DefaultSetpoints(),
		StateFile:  state.DefaultPath,
		Sensor:     SensorTMP75B,
		I2CBus:     "1",
		I2CAddress: int(sensor.DefaultAddress),
		OneShot:    true,
		Settle:     Duration(sensor.DefaultSettle),
		FakeRaw:    sensor.RawFromCelsius(20),
		AlertPin:   gpio.DisabledPin,
		GPIOChip:   gpio.DefaultChip,
		Notifier:   notify.KindMQTT,
		MQTT: MQTTConfig{
			Broker:   notify.DefaultBroker,
			Topic:    notify.DefaultTopic,
			ClientID: notify.DefaultClientID,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   notify.DefaultKafkaTopic,
		},
		HTTPAddr:  ":8080",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load parses args (without the program name). A JSON file named by -config
// is applied over the defaults, then any flag set explicitly overrides it.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("temperature-notifier", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	def := Default()
	cfgPath := fs.String("config", "", "Path to JSON config file")
	sp1 := fs.Float64("sp1", def.Setpoints.Low, "Lower setpoint (°C)")
	sp2 := fs.Float64("sp2", def.Setpoints.High, "Upper setpoint (°C)")
	hys := fs.Float64("hysteresis", def.Setpoints.Margin, "Dead-band either side of each setpoint (°C)")
	stateFile := fs.String("state-file", def.StateFile, "Persisted state record path")
	sensorKind := fs.String("sensor", def.Sensor, "Sensor: tmp75b|fake")
	fakeRaw := fs.String("fake-raw", "", "Raw word returned by the fake sensor (decimal or 0x hex)")
	i2cBus := fs.String("i2c-bus", def.I2CBus, "I2C bus (e.g. '1' -> /dev/i2c-1)")
	i2cAddr := fs.String("i2c-address", "", "I2C address (decimal or 0x hex)")
	oneShot := fs.Bool("one-shot", def.OneShot, "Keep the sensor in shutdown and trigger one conversion per read")
	settle := fs.Duration("settle", time.Duration(def.Settle), "One-shot conversion wait")
	alertPin := fs.Int("alert-pin", def.AlertPin, "GPIO line offset wired to the sensor ALERT pin (-1 disables)")
	gpioChip := fs.String("gpio-chip", def.GPIOChip, "GPIO chip for the alert pin")
	notifier := fs.String("notifier", def.Notifier, "Notifier: "+strings.Join(notify.Kinds, "|"))
	broker := fs.String("broker", def.MQTT.Broker, "MQTT broker address")
	topic := fs.String("topic", def.MQTT.Topic, "MQTT notification topic")
	clientID := fs.String("client-id", def.MQTT.ClientID, "MQTT client id")
	kafkaBrokers := fs.String("kafka-brokers", strings.Join(def.Kafka.Brokers, ","), "Comma-separated Kafka brokers")
	kafkaTopic := fs.String("kafka-topic", def.Kafka.Topic, "Kafka notification topic")
	interval := fs.Duration("interval", 0, "Sampling interval; 0 runs a single cycle and exits")
	httpAddr := fs.String("http", def.HTTPAddr, "HTTP status address in loop mode (empty to disable)")
	printTemp := fs.Bool("print-temp", false, "Print the current temperature and exit")
	logLevel := fs.String("log-level", def.LogLevel, "Log level: debug|info|warn|error")
	logFormat := fs.String("log-format", def.LogFormat, "Log format: text|json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(os.Stderr)
			fs.PrintDefaults()
		}
		return def, err
	}
	if fs.NArg() > 0 {
		return def, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg := def
	if *cfgPath != "" {
		b, err := os.ReadFile(*cfgPath)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["sp1"] {
		cfg.Setpoints.Low = *sp1
	}
	if set["sp2"] {
		cfg.Setpoints.High = *sp2
	}
	if set["hysteresis"] {
		cfg.Setpoints.Margin = *hys
	}
	if set["state-file"] {
		cfg.StateFile = *stateFile
	}
	if set["sensor"] {
		cfg.Sensor = *sensorKind
	}
	if set["fake-raw"] {
		v, err := parseIntOrHex(*fakeRaw)
		if err != nil || v < 0 || v > 0xFFFF {
			return cfg, fmt.Errorf("%w: fake-raw %q", ErrInvalid, *fakeRaw)
		}
		cfg.FakeRaw = uint16(v)
	}
	if set["i2c-bus"] {
		cfg.I2CBus = *i2cBus
	}
	if set["i2c-address"] {
		v, err := parseIntOrHex(*i2cAddr)
		if err != nil {
			return cfg, fmt.Errorf("i2c-address: %w", err)
		}
		cfg.I2CAddress = v
	}
	if set["one-shot"] {
		cfg.OneShot = *oneShot
	}
	if set["settle"] {
		cfg.Settle = Duration(*settle)
	}
	if set["alert-pin"] {
		cfg.AlertPin = *alertPin
	}
	if set["gpio-chip"] {
		cfg.GPIOChip = *gpioChip
	}
	if set["notifier"] {
		cfg.Notifier = *notifier
	}
	if set["broker"] {
		cfg.MQTT.Broker = *broker
	}
	if set["topic"] {
		cfg.MQTT.Topic = *topic
	}
	if set["client-id"] {
		cfg.MQTT.ClientID = *clientID
	}
	if set["kafka-brokers"] {
		cfg.Kafka.Brokers = parseCSV(*kafkaBrokers)
	}
	if set["kafka-topic"] {
		cfg.Kafka.Topic = *kafkaTopic
	}
	if set["interval"] {
		cfg.Interval = Duration(*interval)
	}
	if set["http"] {
		cfg.HTTPAddr = *httpAddr
	}
	if set["log-level"] {
		cfg.LogLevel = *logLevel
	}
	if set["log-format"] {
		cfg.LogFormat = *logFormat
	}
	cfg.PrintTemp = *printTemp

	return cfg, cfg.Validate()
}

// Validate checks the settings that would otherwise fail deep inside a cycle.
func (c Config) Validate() error {
	if err := c.Setpoints.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.StateFile == "" {
		return fmt.Errorf("%w: state-file must not be empty", ErrInvalid)
	}
	if c.Sensor != SensorTMP75B && c.Sensor != SensorFake {
		return fmt.Errorf("%w: sensor %q: want %s or %s", ErrInvalid, c.Sensor, SensorTMP75B, SensorFake)
	}
	if c.I2CAddress < 0 || c.I2CAddress > 0x7F {
		return fmt.Errorf("%w: i2c-address %#x out of range", ErrInvalid, c.I2CAddress)
	}
	if !slices.Contains(notify.Kinds, c.Notifier) {
		return fmt.Errorf("%w: notifier %q: want one of %v", ErrInvalid, c.Notifier, notify.Kinds)
	}
	if c.Notifier == notify.KindKafka && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("%w: kafka notifier needs at least one broker", ErrInvalid)
	}
	if c.Interval < 0 {
		return fmt.Errorf("%w: interval must be >= 0", ErrInvalid)
	}
	return nil
}

// NotifyOptions maps the config onto notify.Options.
func (c Config) NotifyOptions(out io.Writer) notify.Options {
	return notify.Options{
		Kind:         c.Notifier,
		Broker:       c.MQTT.Broker,
		Topic:        c.MQTT.Topic,
		ClientID:     c.MQTT.ClientID,
		KafkaBrokers: c.Kafka.Brokers,
		KafkaTopic:   c.Kafka.Topic,
		Out:          out,
	}
}

func parseIntOrHex(s string) (int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseInt(s[2:], 16, 0)
		return int(v), err
	}
	return strconv.Atoi(s)
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
