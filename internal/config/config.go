package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"content-tracker/internal/apperrors"
)

const (
	RoleScheduler = "scheduler"
	RoleNotifier  = "notifier"
	RoleIndexer   = "indexer"

	DeliveryDirect = "direct"
	DeliveryOutbox = "outbox"

	SourceFake = "fake"
	SourceHTTP = "http"

	SinkLog   = "log"
	SinkEmail = "email"
)

type Config struct {
	App        `yaml:"app"`
	Logger     `yaml:"log"`
	Database   `yaml:"database"`
	Redis      `yaml:"redis"`
	HTTPServer `yaml:"http_server"`
	Key        `yaml:"key"`
	Kafka      `yaml:"kafka"`
	Discovery  `yaml:"discovery"`
	Source     `yaml:"source"`
	Sink       `yaml:"sink"`
	Mailer     `yaml:"mailer"`
	Elastic    `yaml:"elastic"`
}

type App struct {
	ServiceName string   `yaml:"service_name" env:"APP_SERVICE_NAME" env-default:"content-tracker"`
	Version     string   `yaml:"version" env:"APP_VERSION" env-default:"0.1.0"`
	Roles       []string `yaml:"roles" env:"APP_ROLES" env-separator:"," env-default:"scheduler,notifier"`
}

// HasRole reports whether this process runs the given part of the pipeline.
func (a App) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}

	return false
}

type Logger struct {
	Level      string   `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	FormatJSON bool     `yaml:"format_json" env:"LOG_FORMAT_JSON" env-default:"true"`
	Rotation   Rotation `yaml:"rotation"`
}

type Rotation struct {
	File       string `yaml:"file" env:"LOG_FILE"`
	MaxSize    int    `yaml:"max_size" env-default:"100"`
	MaxBackups int    `yaml:"max_backups" env-default:"3"`
	MaxAge     int    `yaml:"max_age" env-default:"28"`
}

type Database struct {
	Host      string    `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port      uint16    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User      string    `yaml:"user" env:"DB_USER" env-default:"tracker"`
	Password  string    `yaml:"password" env:"DB_PASSWORD"`
	Name      string    `yaml:"name" env:"DB_NAME" env-default:"tracker"`
	SSLMode   string    `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`
	MaxConns  int32     `yaml:"max_conns" env-default:"10"`
	MinConns  int32     `yaml:"min_conns" env-default:"1"`
	Migration Migration `yaml:"migration"`
}

type Migration struct {
	Path      string `yaml:"path" env:"DB_MIGRATION_PATH" env-default:"migrations"`
	AutoApply bool   `yaml:"auto_apply" env:"DB_MIGRATION_AUTO_APPLY" env-default:"true"`
}

type Redis struct {
	Enable   bool          `yaml:"enable" env:"REDIS_ENABLE" env-default:"false"`
	Host     string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     uint16        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	LockKey  string        `yaml:"lock_key" env-default:"content-tracker:sweep"`
	LockTTL  time.Duration `yaml:"lock_ttl" env-default:"10m"`
}

type HTTPServer struct {
	Enable   bool    `yaml:"enable" env:"HTTP_ENABLE" env-default:"true"`
	Host     string  `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port     uint16  `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	BasePath string  `yaml:"base_path" env-default:"/api"`
	Timeout  Timeout `yaml:"timeout"`
	CORS     CORS    `yaml:"cors"`
}

type Timeout struct {
	Request time.Duration `yaml:"request" env-default:"30s"`
	Read    time.Duration `yaml:"read" env-default:"10s"`
	Write   time.Duration `yaml:"write" env-default:"60s"`
	Idle    time.Duration `yaml:"idle" env-default:"60s"`
}

type CORS struct {
	Enabled          bool          `yaml:"enabled"`
	AllowAllOrigins  bool          `yaml:"allow_all_origins"`
	AllowOrigins     []string      `yaml:"allow_origins"`
	AllowMethods     []string      `yaml:"allow_methods"`
	AllowHeaders     []string      `yaml:"allow_headers"`
	ExposeHeaders    []string      `yaml:"expose_headers"`
	AllowCredentials bool          `yaml:"allow_credentials"`
	MaxAge           time.Duration `yaml:"max_age"`
	AllowWebSockets  bool          `yaml:"allow_websockets"`
	AllowFiles       bool          `yaml:"allow_files"`
}

// Key holds the ECDSA public key that verifies ops tokens. Empty disables ops routes.
type Key struct {
	PublicKey string `yaml:"public" env:"KEY_PUBLIC"`
}

type Kafka struct {
	Brokers   []string      `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092"`
	ClientID  string        `yaml:"client_id" env-default:"content-tracker"`
	Producer  Producer      `yaml:"producer"`
	Consumer  Consumer      `yaml:"consumer"`
	Outbox    Outbox        `yaml:"outbox"`
	Readiness time.Duration `yaml:"readiness_timeout" env-default:"3s"`
}

type Producer struct {
	RetryMax     int           `yaml:"retry_max" env-default:"3"`
	RetryBackoff time.Duration `yaml:"retry_backoff" env-default:"250ms"`
	Timeout      time.Duration `yaml:"timeout" env-default:"10s"`
}

type Consumer struct {
	Topic           string        `yaml:"topic" env:"KAFKA_TOPIC" env-default:"video.found"`
	GroupID         string        `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"notifications_service"`
	MaxAttempts     int           `yaml:"max_attempts" env-default:"5"`
	InitialBackoff  time.Duration `yaml:"initial_backoff" env-default:"500ms"`
	MaxBackoff      time.Duration `yaml:"max_backoff" env-default:"30s"`
	DeadLetterTopic string        `yaml:"dead_letter_topic"`
}

// Outbox configures the relay used when discovery.delivery is "outbox".
type Outbox struct {
	WorkerCount  int           `yaml:"worker_count" env-default:"2"`
	PollInterval time.Duration `yaml:"poll_interval" env-default:"1s"`
	BatchSize    int           `yaml:"batch_size" env-default:"100"`
}

type Discovery struct {
	Interval       time.Duration `yaml:"interval" env:"DISCOVERY_INTERVAL" env-default:"5m"`
	Concurrency    int           `yaml:"concurrency" env-default:"4"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout" env-default:"30s"`
	Delivery       string        `yaml:"delivery" env:"DISCOVERY_DELIVERY" env-default:"direct"`
	RunImmediately bool          `yaml:"run_immediately" env-default:"true"`
}

type Source struct {
	Driver  string        `yaml:"driver" env:"SOURCE_DRIVER" env-default:"fake"`
	BaseURL string        `yaml:"base_url" env:"SOURCE_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env-default:"15s"`
	Fake    FakeSource    `yaml:"fake"`
}

type FakeSource struct {
	Seed         uint64 `yaml:"seed" env-default:"0"`
	ItemsPerPoll int    `yaml:"items_per_poll" env-default:"3"`
}

type Sink struct {
	Driver string `yaml:"driver" env:"SINK_DRIVER" env-default:"log"`
}

type Mailer struct {
	Host     string `yaml:"host" env:"MAILER_HOST"`
	Port     int    `yaml:"port" env:"MAILER_PORT" env-default:"587"`
	Username string `yaml:"username" env:"MAILER_USERNAME"`
	Password string `yaml:"password" env:"MAILER_PASSWORD"`
	From     string `yaml:"from" env:"MAILER_FROM" env-default:"Content Tracker <no-reply@content-tracker.local>"`
	UseTLS   bool   `yaml:"use_tls" env:"MAILER_USE_TLS"`
}

type Elastic struct {
	Enable    bool          `yaml:"enable" env:"ELASTIC_ENABLE" env-default:"false"`
	Addresses []string      `yaml:"addresses" env:"ELASTIC_ADDRESSES" env-separator:","`
	Username  string        `yaml:"username" env:"ELASTIC_USERNAME"`
	Password  string        `yaml:"password" env:"ELASTIC_PASSWORD"`
	CloudID   string        `yaml:"cloud_id"`
	APIKey    string        `yaml:"api_key" env:"ELASTIC_API_KEY"`
	Timeout   time.Duration `yaml:"timeout" env-default:"10s"`
	Index     string        `yaml:"index" env-default:"videos"`
	GroupID   string        `yaml:"group_id" env-default:"content_indexer"`
}

func MustLoadConfig() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}

	return cfg
}

// LoadConfig reads the file from -config or CONFIG_PATH. Without either, only the environment is used.
func LoadConfig() (*Config, error) {
	path := fetchConfigPath()
	if path == "" {
		var config Config

		if err := cleanenv.ReadEnv(&config); err != nil {
			return nil, fmt.Errorf("%w, failed to read env: %w", apperrors.ErrConfigPathIsEmpty, err)
		}

		return validate(&config)
	}

	return Load(path)
}

func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var config Config

	if err := cleanenv.ReadConfig(path, &config); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return validate(&config)
}

func validate(cfg *Config) (*Config, error) {
	if cfg.Kafka.Consumer.DeadLetterTopic == "" {
		cfg.Kafka.Consumer.DeadLetterTopic = cfg.Kafka.Consumer.Topic + ".dlq"
	}

	switch cfg.Discovery.Delivery {
	case DeliveryDirect, DeliveryOutbox:
	default:
		return nil, fmt.Errorf("unknown discovery delivery %q", cfg.Discovery.Delivery)
	}

	switch cfg.Source.Driver {
	case SourceFake:
	case SourceHTTP:
		if cfg.Source.BaseURL == "" {
			return nil, fmt.Errorf("source.base_url is required for the http driver")
		}
	default:
		return nil, fmt.Errorf("unknown source driver %q", cfg.Source.Driver)
	}

	switch cfg.Sink.Driver {
	case SinkLog:
	case SinkEmail:
		if cfg.Mailer.Host == "" {
			return nil, fmt.Errorf("mailer.host is required for the email sink")
		}
	default:
		return nil, fmt.Errorf("unknown sink driver %q", cfg.Sink.Driver)
	}

	// elastic.enable is shorthand for running the indexer role.
	if cfg.Elastic.Enable && !cfg.HasRole(RoleIndexer) {
		cfg.Roles = append(cfg.Roles, RoleIndexer)
	}

	if cfg.HasRole(RoleIndexer) && len(cfg.Elastic.Addresses) == 0 && cfg.Elastic.CloudID == "" {
		return nil, fmt.Errorf("elastic.addresses or elastic.cloud_id is required for the indexer role")
	}

	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("kafka.brokers is empty")
	}

	if cfg.Discovery.Interval <= 0 {
		return nil, fmt.Errorf("discovery.interval must be positive, got %s", cfg.Discovery.Interval)
	}

	if cfg.Kafka.Outbox.PollInterval <= 0 {
		return nil, fmt.Errorf("kafka.outbox.poll_interval must be positive, got %s", cfg.Kafka.Outbox.PollInterval)
	}

	if cfg.Discovery.Concurrency < 1 {
		cfg.Discovery.Concurrency = 1
	}

	if cfg.Kafka.Consumer.MaxAttempts < 1 {
		cfg.Kafka.Consumer.MaxAttempts = 1
	}

	return cfg, nil
}

func MustPrintConfig(cfg *Config) {
	if err := PrintConfig(cfg); err != nil {
		panic(err)
	}
}

// PrintConfig dumps the effective config with secrets masked.
func PrintConfig(cfg *Config) error {
	masked := *cfg
	masked.Database.Password = mask(masked.Database.Password)
	masked.Redis.Password = mask(masked.Redis.Password)
	masked.Mailer.Password = mask(masked.Mailer.Password)
	masked.Elastic.Password = mask(masked.Elastic.Password)
	masked.Elastic.APIKey = mask(masked.Elastic.APIKey)

	data, err := yaml.Marshal(&masked)
	if err != nil {
		return err
	}

	println(string(data))

	return nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}

	return "******"
}

func fetchConfigPath() string {
	var result string

	flag.StringVar(&result, "config", "", "Path to config file")
	flag.Parse()

	if result == "" {
		result = os.Getenv("CONFIG_PATH")
	}

	return result
}
