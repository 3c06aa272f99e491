package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	Region        string
	CDNBaseURL    string
	UploadTimeout time.Duration
	DeleteTimeout time.Duration
}

type SecurityConfig struct {
	JWTAccessSecret string
	JWTAccessTTL    time.Duration
}

// ModerationConfig controls the initial status of newly created entities.
// A disabled gate means entities are born Accepted.
type ModerationConfig struct {
	Images  bool
	Tags    bool
	Artists bool
}

// UploadConfig bounds accepted image dimensions and sets the duplicate
// detection threshold in Hamming-distance bits.
type UploadConfig struct {
	MinWidth      int
	MinHeight     int
	MaxWidth      int
	MaxHeight     int
	MaxSizeBytes  int64
	DedupDistance int
}

type SweepConfig struct {
	Enabled     bool
	Schedule    string
	GracePeriod time.Duration
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	Moderation       ModerationConfig
	Upload           UploadConfig
	Sweep            SweepConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("ARTBOARD")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucket", "artboard-images")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.uploadtimeout", "30s")
	v.SetDefault("storage.deletetimeout", "10s")

	v.SetDefault("security.jwtaccessttl", "15m")

	v.SetDefault("moderation.images", true)
	v.SetDefault("moderation.tags", true)
	v.SetDefault("moderation.artists", true)

	v.SetDefault("upload.minwidth", 100)
	v.SetDefault("upload.minheight", 100)
	v.SetDefault("upload.maxwidth", 16000)
	v.SetDefault("upload.maxheight", 16000)
	v.SetDefault("upload.maxsizebytes", 64<<20)
	v.SetDefault("upload.dedupdistance", 4)

	v.SetDefault("sweep.enabled", true)
	v.SetDefault("sweep.schedule", "0 0 */6 * * *") // every six hours
	v.SetDefault("sweep.graceperiod", "1h")
}
