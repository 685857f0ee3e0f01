// README: Config loader: viper defaults, optional config file and COURIER_* env overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"courier/internal/logger"
)

const EnvPrefix = "COURIER"

// Backend modes.
const (
	BackendSim  = "sim"
	BackendHTTP = "http"
)

// Auth modes for the local API.
const (
	AuthNone     = "none"
	AuthJWT      = "jwt"
	AuthFirebase = "firebase"
)

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type PartnerConfig struct {
	ID    string `mapstructure:"id"`
	Token string `mapstructure:"token"`
}

type BackendConfig struct {
	Mode              string        `mapstructure:"mode"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	SimLatency        time.Duration `mapstructure:"sim_latency"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	DashboardInterval time.Duration `mapstructure:"dashboard_interval"`
	HistoryPages      int           `mapstructure:"history_pages"`
}

type OfferConfig struct {
	Window       time.Duration `mapstructure:"window"`
	Tick         time.Duration `mapstructure:"tick"`
	Demo         bool          `mapstructure:"demo"`
	DemoInterval time.Duration `mapstructure:"demo_interval"`
	Synthetic    bool          `mapstructure:"synthetic"`
}

type LocationConfig struct {
	TransitInterval time.Duration `mapstructure:"transit_interval"`
	TransitStep     float64       `mapstructure:"transit_step"`
	ReportInterval  time.Duration `mapstructure:"report_interval"`
	ReportMinMeters float64       `mapstructure:"report_min_meters"`
}

type StorageConfig struct {
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type RedisConfig struct {
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type RabbitConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type EventsConfig struct {
	Kafka    KafkaConfig  `mapstructure:"kafka"`
	RabbitMQ RabbitConfig `mapstructure:"rabbitmq"`
}

type MapsConfig struct {
	APIKey string `mapstructure:"api_key"`
	Region string `mapstructure:"region"`
}

type FirebaseConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	DatabaseURL     string `mapstructure:"database_url"`
}

type AuthConfig struct {
	Mode      string `mapstructure:"mode"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

type AIConfig struct {
	GeminiKey string        `mapstructure:"gemini_key"`
	Model     string        `mapstructure:"model"`
	TipTTL    time.Duration `mapstructure:"tip_ttl"`
}

type ExportConfig struct {
	Dir      string `mapstructure:"dir"`
	S3Bucket string `mapstructure:"s3_bucket"`
	S3Region string `mapstructure:"s3_region"`
	S3Prefix string `mapstructure:"s3_prefix"`
}

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Partner  PartnerConfig  `mapstructure:"partner"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Offer    OfferConfig    `mapstructure:"offer"`
	Location LocationConfig `mapstructure:"location"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Events   EventsConfig   `mapstructure:"events"`
	Maps     MapsConfig     `mapstructure:"maps"`
	Firebase FirebaseConfig `mapstructure:"firebase"`
	Auth     AuthConfig     `mapstructure:"auth"`
	AI       AIConfig       `mapstructure:"ai"`
	Log      logger.Config  `mapstructure:"log"`
	Export   ExportConfig   `mapstructure:"export"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")

	v.SetDefault("partner.id", "partner-1")
	v.SetDefault("partner.token", "")

	v.SetDefault("backend.mode", BackendSim)
	v.SetDefault("backend.base_url", "https://khaaonow-be.azurewebsites.net/api")
	v.SetDefault("backend.timeout", "30s")
	v.SetDefault("backend.max_attempts", 3)
	v.SetDefault("backend.retry_delay", "1s")
	v.SetDefault("backend.sim_latency", "300ms")
	v.SetDefault("backend.poll_interval", "30s")
	v.SetDefault("backend.dashboard_interval", "60s")
	v.SetDefault("backend.history_pages", 5)

	v.SetDefault("offer.window", "20s")
	v.SetDefault("offer.tick", "1s")
	v.SetDefault("offer.demo", true)
	v.SetDefault("offer.demo_interval", "45s")
	v.SetDefault("offer.synthetic", false)

	v.SetDefault("location.transit_interval", "2s")
	v.SetDefault("location.transit_step", 0.1)
	v.SetDefault("location.report_interval", "30s")
	v.SetDefault("location.report_min_meters", 50.0)

	v.SetDefault("storage.sqlite_path", "courier.db")
	v.SetDefault("storage.postgres_dsn", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.session_ttl", "0s")

	v.SetDefault("events.kafka.brokers", []string{})
	v.SetDefault("events.kafka.topic", "courier.order-events")
	v.SetDefault("events.rabbitmq.url", "")
	v.SetDefault("events.rabbitmq.exchange", "courier_events")

	v.SetDefault("maps.api_key", "")
	v.SetDefault("maps.region", "in")

	v.SetDefault("firebase.project_id", "")
	v.SetDefault("firebase.credentials_file", "")
	v.SetDefault("firebase.database_url", "")

	v.SetDefault("auth.mode", AuthNone)
	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("ai.gemini_key", "")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.tip_ttl", "1h")

	d := logger.DefaultConfig()
	v.SetDefault("log.level", string(d.Level))
	v.SetDefault("log.format", d.Format)
	v.SetDefault("log.output", d.Output)
	v.SetDefault("log.enable_caller", d.EnableCaller)
	v.SetDefault("log.component", d.Component)

	v.SetDefault("export.dir", ".")
	v.SetDefault("export.s3_bucket", "")
	v.SetDefault("export.s3_region", "ap-south-1")
	v.SetDefault("export.s3_prefix", "ledger")
}

// Load reads defaults, then cfgFile (or ./courier.yaml when present), then
// COURIER_* environment variables such as COURIER_BACKEND_MODE.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("ai.gemini_key", EnvPrefix+"_AI_GEMINI_KEY", "GEMINI_API_KEY")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("courier")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	hooks := viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err := v.Unmarshal(&cfg, hooks); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Backend.Mode {
	case BackendSim, BackendHTTP:
	default:
		return fmt.Errorf("backend.mode must be %q or %q, got %q", BackendSim, BackendHTTP, c.Backend.Mode)
	}
	switch c.Auth.Mode {
	case AuthNone:
	case AuthFirebase:
		if c.Firebase.ProjectID == "" {
			return errors.New("firebase.project_id is required when auth.mode is firebase")
		}
	case AuthJWT:
		if c.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is required when auth.mode is jwt")
		}
	default:
		return fmt.Errorf("unknown auth.mode %q", c.Auth.Mode)
	}
	if c.Partner.ID == "" {
		return errors.New("partner.id is required")
	}
	if c.Offer.Window <= 0 {
		return errors.New("offer.window must be positive")
	}
	return nil
}
