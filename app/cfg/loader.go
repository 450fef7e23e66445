package cfg

import (
	"cmp"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Article backend
	Source      string `long:"source" env:"ARTICLE_SOURCE" default:"supabase" choice:"supabase" choice:"postgres" description:"Where articles are read from"`
	SupabaseURL string `long:"supabase-url" env:"SUPABASE_URL" description:"Supabase project URL (e.g., https://xyz.supabase.co)"`
	SupabaseKey string `long:"supabase-key" env:"SUPABASE_ANON_KEY" description:"Supabase anon key"`

	// Direct database source
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"postgres" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" description:"Database password"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"postgres" description:"Database name"`

	// Local state
	StorePath string `long:"store-path" env:"STORE_PATH" default:"./data/news-relay.db" description:"SQLite file for preferences and notification history"`
	RedisAddr string `long:"redis-addr" env:"REDIS_ADDR" description:"Keep preferences in Redis instead of SQLite (optional)"`

	// HTTP server
	Port          string  `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl       string  `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://news.example.com)"`
	APIAccessKey  string  `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	PushRateLimit float64 `long:"push-rate-limit" env:"PUSH_RATE_LIMIT" default:"5" description:"Push events accepted per second per client"`
	PushRateBurst int     `long:"push-rate-burst" env:"PUSH_RATE_BURST" default:"10" description:"Burst size for push events per client"`

	// Push
	NewsAPIURL     string `long:"news-api-url" env:"NEWS_API_URL" description:"News API base URL used for device token registration"`
	NewsAPIToken   string `long:"news-api-token" env:"NEWS_API_TOKEN" description:"Bearer token for the news API (optional)"`
	DeviceType     string `long:"device-type" env:"DEVICE_TYPE" default:"android" description:"Device type reported with the push token"`
	UserID         string `long:"user-id" env:"USER_ID" description:"User the device belongs to (empty for guests)"`
	FCMServerKey   string `long:"fcm-server-key" env:"FCM_SERVER_KEY" description:"FCM server key for topic management"`
	FCMDeviceToken string `long:"fcm-device-token" env:"FCM_DEVICE_TOKEN" description:"Provisioned device token (optional)"`
	TopicsFile     string `long:"topics-file" env:"TOPICS_FILE" default:"./topics.yml" description:"YAML file listing topics to subscribe at startup"`

	// Kafka push events
	KafkaBrokers []string `long:"kafka-broker" env:"KAFKA_BROKERS" env-delim:"," description:"Kafka brokers for push events (optional)"`
	KafkaTopic   string   `long:"kafka-topic" env:"KAFKA_TOPIC" default:"push-events" description:"Kafka topic carrying push events"`
	KafkaGroup   string   `long:"kafka-group" env:"KAFKA_GROUP" default:"news-relay" description:"Kafka consumer group"`

	// Telegram relay
	TelegramBotToken string `long:"telegram-bot-token" env:"TELEGRAM_BOT_TOKEN" description:"Relay notifications to Telegram (optional)"`
	TelegramChatID   string `long:"telegram-chat-id" env:"TELEGRAM_CHAT_ID" description:"Telegram chat receiving notifications"`

	// Background tasks
	WorkerCount       int `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers"`
	SchedulerInterval int `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"3600" description:"Seconds between push token checks"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Ho_Chi_Minh)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	cfg, err := Parse(os.Args[1:])
	if err != nil || cfg == nil {
		return cfg, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

// Parse reads flags from args and the environment. It returns nil, nil when
// help was requested.
func Parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Source:            raw.Source,
		SupabaseURL:       raw.SupabaseURL,
		SupabaseKey:       raw.SupabaseKey,
		DBHost:            raw.DBHost,
		DBPort:            raw.DBPort,
		DBUser:            raw.DBUser,
		DBPassword:        raw.DBPassword,
		DBName:            raw.DBName,
		StorePath:         raw.StorePath,
		RedisAddr:         raw.RedisAddr,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		APIAccessKey:      raw.APIAccessKey,
		PushRateLimit:     raw.PushRateLimit,
		PushRateBurst:     raw.PushRateBurst,
		NewsAPIURL:        raw.NewsAPIURL,
		NewsAPIToken:      raw.NewsAPIToken,
		DeviceType:        raw.DeviceType,
		UserID:            raw.UserID,
		FCMServerKey:      raw.FCMServerKey,
		FCMDeviceToken:    raw.FCMDeviceToken,
		TopicsFile:        raw.TopicsFile,
		KafkaBrokers:      raw.KafkaBrokers,
		KafkaTopic:        raw.KafkaTopic,
		KafkaGroup:        raw.KafkaGroup,
		TelegramBotToken:  raw.TelegramBotToken,
		TelegramChatID:    raw.TelegramChatID,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func (c *Cfg) validate() error {
	if c.WorkerCount < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.SchedulerInterval < 0 {
		return fmt.Errorf("scheduler interval must be non-negative")
	}
	if c.PushRateLimit <= 0 || c.PushRateBurst < 1 {
		return fmt.Errorf("push rate limit and burst must be positive")
	}
	if (c.TelegramBotToken == "") != (c.TelegramChatID == "") {
		return fmt.Errorf("telegram bot token and chat id must be set together")
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
