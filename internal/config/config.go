package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Ai        AIConfig
	Knowledge KnowledgeConfig
	Gmail     GmailConfig
	Backup    BackupConfig
}

type AppConfig struct {
	Port                string
	BaseURL             string
	ClientURL           string
	Environment         string
	LogFilePath         string
	CorsAllowedOrigins  string
	NatsURL             string
	RedisURL            string
	ThinkingStepDelayMs int
}

type AIConfig struct {
	LLMProvider        string // "ollama" or "huggingface"
	LLMModel           string // e.g. "mistral", "llama3"
	OllamaBaseURL      string
	HuggingFaceKey     string
	GenerateTimeoutSec int
}

type KnowledgeConfig struct {
	DataDir          string
	BackupFile       string
	ConversationFile string
}

type GmailConfig struct {
	CredentialsFile string
	TokenFile       string
	LookbackDays    int
}

type BackupConfig struct {
	RepoPath    string
	Branch      string
	GitHubToken string
	GitHubOwner string
	GitHubRepo  string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:                getEnv("APP_PORT", "8000"),
			BaseURL:             getEnv("APP_BASE_URL", "http://localhost:8000"),
			ClientURL:           getEnv("CLIENT_URL", "http://localhost:8501"),
			Environment:         getEnv("GO_ENV", "development"),
			LogFilePath:         getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins:  getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:             getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:            getEnv("REDIS_URL", ""),
			ThinkingStepDelayMs: getEnvAsInt("THINKING_STEP_DELAY_MS", 500),
		},
		Ai: AIConfig{
			LLMProvider:        getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:           getEnv("LLM_MODEL", "mistral"),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			HuggingFaceKey:     getEnv("HUGGINGFACE_API_KEY", ""),
			GenerateTimeoutSec: getEnvAsInt("LLM_GENERATE_TIMEOUT_SEC", 30),
		},
		Knowledge: KnowledgeConfig{
			DataDir:          getEnv("DATA_DIR", "data"),
			BackupFile:       getEnv("KNOWLEDGE_BACKUP_FILE", "backup.json"),
			ConversationFile: getEnv("CONVERSATION_LOG_FILE", "conversations.json"),
		},
		Gmail: GmailConfig{
			CredentialsFile: getEnv("GMAIL_CREDENTIALS_FILE", "credentials.json"),
			TokenFile:       getEnv("GMAIL_TOKEN_FILE", "token.json"),
			LookbackDays:    getEnvAsInt("GMAIL_LOOKBACK_DAYS", 7),
		},
		Backup: BackupConfig{
			RepoPath:    getEnv("BACKUP_REPO_PATH", "."),
			Branch:      getEnv("BACKUP_BRANCH", "main"),
			GitHubToken: getEnv("GITHUB_TOKEN", ""),
			GitHubOwner: getEnv("GITHUB_OWNER", ""),
			GitHubRepo:  getEnv("GITHUB_REPO", ""),
		},
	}
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
