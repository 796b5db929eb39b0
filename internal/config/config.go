package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App    AppConfig
	Store  StoreConfig
	Remote RemoteConfig
	Assets AssetConfig
	Sync   SyncConfig
	Events EventConfig
	Server ServerConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
}

type StoreConfig struct {
	Driver string // "sqlite" or "postgres"
	DSN    string
}

type RemoteConfig struct {
	Driver     string // "memory", "postgres", "sqlite" or "redis"
	DSN        string
	RedisURL   string
	KeyPrefix  string
	RecordType string
}

type AssetConfig struct {
	Driver                string // "local" or "azure"
	Dir                   string
	AzureConnectionString string
	AzureContainer        string
}

type SyncConfig struct {
	TempDir            string
	CleanupConcurrency int
	ConflictPolicy     string // "surface" or "last-writer-wins"
	DeepLinkScheme     string
	ListLimit          int
}

type EventConfig struct {
	NatsURL            string
	ChangeTopic        string
	ReplicationLogPath string
}

// ServerConfig drives the HTTP API. An empty JWTSecret leaves the API open.
type ServerConfig struct {
	Port               string
	CorsAllowedOrigins string
	JWTSecret          string
	HubRedisURL        string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "promptsync.log"),
		},
		Store: StoreConfig{
			Driver: getEnv("STORE_DRIVER", "sqlite"),
			DSN:    getEnv("STORE_DSN", "prompts.db"),
		},
		Remote: RemoteConfig{
			Driver:     getEnv("REMOTE_DRIVER", "sqlite"),
			DSN:        getEnv("REMOTE_DSN", "remote.db"),
			KeyPrefix:  getEnv("REMOTE_KEY_PREFIX", "promptsync"),
			RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379"),
			RecordType: getEnv("REMOTE_RECORD_TYPE", "SharedCreationRecord"),
		},
		Assets: AssetConfig{
			Driver:                getEnv("ASSET_DRIVER", "local"),
			Dir:                   getEnv("ASSET_DIR", "assets"),
			AzureConnectionString: getEnv("AZURE_STORAGE_CONNECTION_STRING", ""),
			AzureContainer:        getEnv("AZURE_STORAGE_CONTAINER", "shared-creations"),
		},
		Sync: SyncConfig{
			TempDir:            getEnv("SYNC_TEMP_DIR", os.TempDir()),
			CleanupConcurrency: getEnvAsInt("SYNC_CLEANUP_CONCURRENCY", 4),
			ConflictPolicy:     getEnv("SYNC_CONFLICT_POLICY", "surface"),
			DeepLinkScheme:     getEnv("DEEPLINK_SCHEME", "sharedprompt"),
			ListLimit:          getEnvAsInt("SYNC_LIST_LIMIT", 50),
		},
		Events: EventConfig{
			NatsURL:            getEnv("NATS_URL", ""),
			ChangeTopic:        getEnv("CHANGE_TOPIC", "store.changes"),
			ReplicationLogPath: getEnv("REPLICATION_LOG_PATH", "logs/replication.log"),
		},
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
			HubRedisURL:        getEnv("HUB_REDIS_URL", ""),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
