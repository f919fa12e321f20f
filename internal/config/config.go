package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Log         LogConfig
	Store       StoreConfig
	Database    DatabaseConfig
	Firebase    FirebaseConfig
	Feed        FeedConfig
	Alert       AlertConfig
	Notify      NotifyConfig
	Auth        AuthConfig
	Twilio      TwilioConfig
	CallRoute   CallRouteConfig
	EditRequest EditRequestConfig
}

type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

const (
	StoreDriverFirebase = "firebase"
	StoreDriverMySQL    = "mysql"
)

type StoreConfig struct {
	Driver       string
	OrdersPath   string
	PollInterval time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type FirebaseConfig struct {
	DatabaseURL string
	AuthToken   string
	Timeout     time.Duration
}

type FeedConfig struct {
	Window        time.Duration
	Timezone      string
	UpdateTimeout time.Duration
}

type AlertConfig struct {
	SoundPath string
	SoundURL  string
}

type NotifyConfig struct {
	WebhookURL   string
	Timeout      time.Duration
	KafkaBrokers []string
	KafkaTopic   string
}

type AuthConfig struct {
	Username     string
	Password     string
	PasswordHash string
	JWTSecret    string
	SessionTTL   time.Duration
}

type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	PhoneNumber    string
	PhoneNumberSID string
}

type CallRouteConfig struct {
	WebhookURL  string
	FallbackURL string
	StatePath   string
}

type EditRequestConfig struct {
	HookURL string
	Timeout time.Duration
}

// Load reads configuration from the environment and, when CONFIG_FILE is
// set, from that file. Environment values win over file values.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORE_DRIVER", StoreDriverFirebase)
	v.SetDefault("ORDERS_PATH", "orders")
	v.SetDefault("STORE_POLL_INTERVAL", "2s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "cafedash")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "cafedash")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")

	v.SetDefault("FIREBASE_DATABASE_URL", "")
	v.SetDefault("FIREBASE_AUTH_TOKEN", "")
	v.SetDefault("FIREBASE_TIMEOUT", "10s")

	v.SetDefault("FEED_WINDOW", "24h")
	v.SetDefault("DISPLAY_TIMEZONE", "Local")
	v.SetDefault("FEED_UPDATE_TIMEOUT", "10s")

	v.SetDefault("ALERT_SOUND_PATH", "assets/order-alert.mp3")
	v.SetDefault("ALERT_SOUND_URL", "/static/order-alert.mp3")

	v.SetDefault("WEBHOOK_STATUS_URL", "")
	v.SetDefault("WEBHOOK_TIMEOUT", "5s")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "order-status")

	v.SetDefault("AUTH_USERNAME", "")
	v.SetDefault("AUTH_PASSWORD", "")
	v.SetDefault("AUTH_PASSWORD_HASH", "")
	v.SetDefault("AUTH_JWT_SECRET", "")
	v.SetDefault("AUTH_SESSION_TTL", "12h")

	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_PHONE_NUMBER", "")
	v.SetDefault("TWILIO_PHONE_NUMBER_SID", "")

	v.SetDefault("CALL_ROUTE_WEBHOOK_URL", "https://api.us.elevenlabs.io/twilio/inbound_call")
	v.SetDefault("CALL_ROUTE_FALLBACK_URL", "")
	v.SetDefault("CALL_ROUTE_STATE_PATH", "call_route.yaml")

	v.SetDefault("EDIT_REQUEST_HOOK_URL", "")
	v.SetDefault("EDIT_REQUEST_TIMEOUT", "10s")

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var parseErr error
	duration := func(key string) time.Duration {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil && parseErr == nil {
			parseErr = fmt.Errorf("parsing %s: %w", key, err)
		}
		return d
	}

	driver := strings.ToLower(v.GetString("STORE_DRIVER"))
	if driver != StoreDriverFirebase && driver != StoreDriverMySQL {
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", driver)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetInt("SERVER_PORT"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Store: StoreConfig{
			Driver:       driver,
			OrdersPath:   strings.Trim(v.GetString("ORDERS_PATH"), "/"),
			PollInterval: duration("STORE_POLL_INTERVAL"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: duration("DB_CONN_MAX_LIFETIME"),
		},
		Firebase: FirebaseConfig{
			DatabaseURL: strings.TrimRight(v.GetString("FIREBASE_DATABASE_URL"), "/"),
			AuthToken:   v.GetString("FIREBASE_AUTH_TOKEN"),
			Timeout:     duration("FIREBASE_TIMEOUT"),
		},
		Feed: FeedConfig{
			Window:        duration("FEED_WINDOW"),
			Timezone:      v.GetString("DISPLAY_TIMEZONE"),
			UpdateTimeout: duration("FEED_UPDATE_TIMEOUT"),
		},
		Alert: AlertConfig{
			SoundPath: v.GetString("ALERT_SOUND_PATH"),
			SoundURL:  v.GetString("ALERT_SOUND_URL"),
		},
		Notify: NotifyConfig{
			WebhookURL:   v.GetString("WEBHOOK_STATUS_URL"),
			Timeout:      duration("WEBHOOK_TIMEOUT"),
			KafkaBrokers: splitList(v.GetString("KAFKA_BROKERS")),
			KafkaTopic:   v.GetString("KAFKA_TOPIC"),
		},
		Auth: AuthConfig{
			Username:     v.GetString("AUTH_USERNAME"),
			Password:     v.GetString("AUTH_PASSWORD"),
			PasswordHash: v.GetString("AUTH_PASSWORD_HASH"),
			JWTSecret:    v.GetString("AUTH_JWT_SECRET"),
			SessionTTL:   duration("AUTH_SESSION_TTL"),
		},
		Twilio: TwilioConfig{
			AccountSID:     v.GetString("TWILIO_ACCOUNT_SID"),
			AuthToken:      v.GetString("TWILIO_AUTH_TOKEN"),
			PhoneNumber:    v.GetString("TWILIO_PHONE_NUMBER"),
			PhoneNumberSID: v.GetString("TWILIO_PHONE_NUMBER_SID"),
		},
		CallRoute: CallRouteConfig{
			WebhookURL:  v.GetString("CALL_ROUTE_WEBHOOK_URL"),
			FallbackURL: v.GetString("CALL_ROUTE_FALLBACK_URL"),
			StatePath:   v.GetString("CALL_ROUTE_STATE_PATH"),
		},
		EditRequest: EditRequestConfig{
			HookURL: v.GetString("EDIT_REQUEST_HOOK_URL"),
			Timeout: duration("EDIT_REQUEST_TIMEOUT"),
		},
	}
	if parseErr != nil {
		return nil, parseErr
	}

	return cfg, nil
}

// Location resolves the display timezone, falling back to UTC.
func (c FeedConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
