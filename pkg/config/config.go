package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	GeminiAPIKey		string
	GeminiBaseURL		string
	ChatModel		string
	TitleModel		string
	Temperature		float32
	TranslateAPIKey		string
	TranslateEndpoint	string
	GoogleCredentials	string
	ServerHost		string
	ServerPort		string
	AllowedOrigin		string
	RequestTimeout		time.Duration
	LogLevel		string

	APIBaseURL		string
	ClientTimeout		time.Duration
	FreeMessageLimit	int
	GuestChatLimit		int

	StateDriver		string
	StatePath		string
	StateNamespace		string
	StatePollInterval	time.Duration
	RedisAddr		string
	RedisPassword		string
	PostgresHost		string
	PostgresPort		string
	PostgresUser		string
	PostgresPassword	string
	PostgresDB		string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("Не найден файл .env")
	}

	geminiKey := getEnv("GEMINI_API_KEY", "")

	return &Config{
		GeminiAPIKey:		geminiKey,
		GeminiBaseURL:		getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai"),
		ChatModel:		getEnv("CHAT_MODEL", "gemini-2.0-flash"),
		TitleModel:		getEnv("TITLE_MODEL", "gemini-2.0-flash"),
		Temperature:		float32(getEnvFloat("CHAT_TEMPERATURE", 0.7)),
		TranslateAPIKey:	getEnv("TRANSLATE_API_KEY", geminiKey),
		TranslateEndpoint:	getEnv("TRANSLATE_ENDPOINT", ""),
		GoogleCredentials:	getEnv("GOOGLE_CREDENTIALS", ""),
		ServerHost:		getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:		getEnv("SERVER_PORT", "8080"),
		AllowedOrigin:		getEnv("ALLOWED_ORIGIN", "*"),
		RequestTimeout:		getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),
		LogLevel:		getEnv("LOG_LEVEL", "info"),

		APIBaseURL:		getEnv("API_BASE_URL", "http://localhost:8080"),
		ClientTimeout:		getEnvDuration("CLIENT_TIMEOUT", 90*time.Second),
		FreeMessageLimit:	getEnvInt("FREE_MESSAGE_LIMIT", 10),
		GuestChatLimit:		getEnvInt("GUEST_CHAT_LIMIT", 5),

		StateDriver:		getEnv("STATE_DRIVER", "sqlite"),
		StatePath:		getEnv("STATE_PATH", defaultStatePath()),
		StateNamespace:		getEnv("STATE_NAMESPACE", "eduglobe"),
		StatePollInterval:	getEnvDuration("STATE_POLL_INTERVAL", 2*time.Second),
		RedisAddr:		getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:		getEnv("REDIS_PASSWORD", ""),
		PostgresHost:		getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:		getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:		getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword:	getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:		getEnv("POSTGRES_DB", "eduglobe"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		logrus.Warnf("Некорректное значение %s=%q, используется %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 32)
	if err != nil {
		logrus.Warnf("Некорректное значение %s=%q, используется %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logrus.Warnf("Некорректное значение %s=%q, используется %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "eduglobe-state.db"
	}
	return dir + string(os.PathSeparator) + "eduglobe" + string(os.PathSeparator) + "state.db"
}
