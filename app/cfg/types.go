package cfg

type Cfg struct {
	// Article backend
	Source      string
	SupabaseURL string
	SupabaseKey string

	// Direct database source
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Local state
	StorePath string
	RedisAddr string

	// HTTP server
	Port          string
	BaseUrl       string
	APIAccessKey  string
	PushRateLimit float64
	PushRateBurst int

	// Push
	NewsAPIURL     string
	NewsAPIToken   string
	DeviceType     string
	UserID         string
	FCMServerKey   string
	FCMDeviceToken string
	TopicsFile     string

	// Kafka push events
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string

	// Telegram relay
	TelegramBotToken string
	TelegramChatID   string

	// Background tasks
	WorkerCount       int
	SchedulerInterval int

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}

const (
	SourceSupabase = "supabase"
	SourcePostgres = "postgres"
)

// Topic is one entry of the topics file.
type Topic struct {
	Name    string `yaml:"name"`
	Enabled *bool  `yaml:"enabled"`
}

type TopicsFile struct {
	Topics []Topic `yaml:"topics"`
}
