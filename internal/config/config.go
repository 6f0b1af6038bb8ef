package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultOpenAIBaseURL is the OpenAI-compatible gateway used when no base URL is configured.
const DefaultOpenAIBaseURL = "https://ai.gateway.lovable.dev/v1"

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string
	DBPool      DBPoolConfig
	RedisURL    string
	NATSURL     string
	EventPrefix string
	JWTSecret   string

	AI         AIConfig
	Plagiarism PlagiarismConfig
	Quiz       QuizConfig
	RateLimit  RateLimitConfig

	FileFetchTimeout      time.Duration
	FileFetchMaxBytes     int64
	FileFetchAllowedHosts []string
}

// DBPoolConfig tunes the postgres connection pool.
type DBPoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// AIConfig describes how the LLM gateway is reached and how each task is sampled.
type AIConfig struct {
	Provider     string
	BaseURL      string
	APIKey       string
	Model        string
	MaxTokens    int
	Generation   TaskSettings
	Evaluation   TaskSettings
	Plagiarism   TaskSettings
	LearningPath TaskSettings
}

// TaskSettings tunes sampling for a single prompt family.
type TaskSettings struct {
	Temperature float32
	Seed        *int
}

// PlagiarismConfig bounds the comparison set sent upstream.
type PlagiarismConfig struct {
	FlagThreshold   float64
	SiblingMaxChars int
	TargetMaxChars  int
	MaxComparisons  int
}

// QuizConfig holds defaults for generated quizzes.
type QuizConfig struct {
	DefaultQuestions   int
	DefaultAssignments int
	TimeLimitMinutes   int
}

// RateLimitConfig throttles the AI routes per caller.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "GEMA Academic API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("events.prefix", "gema.academic")

	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.model", "google/gemini-2.5-flash")
	v.SetDefault("ai.max_tokens", 2048)
	v.SetDefault("ai.generation.temperature", 0.7)
	v.SetDefault("ai.evaluation.temperature", 0.3)
	v.SetDefault("ai.plagiarism.temperature", 0.0)
	v.SetDefault("ai.plagiarism.seed", 42)
	v.SetDefault("ai.learning_path.temperature", 0.7)

	v.SetDefault("plagiarism.flag_threshold", 40.0)
	v.SetDefault("plagiarism.sibling_max_chars", 500)
	v.SetDefault("plagiarism.target_max_chars", 4000)
	v.SetDefault("plagiarism.max_comparisons", 20)

	v.SetDefault("quiz.default_questions", 5)
	v.SetDefault("quiz.default_assignments", 3)
	v.SetDefault("quiz.time_limit_minutes", 30)

	v.SetDefault("rate_limit.max", 30)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("file_fetch.timeout", "10s")
	v.SetDefault("file_fetch.max_bytes", 2<<20)
	v.SetDefault("file_fetch.allowed_hosts", "res.cloudinary.com")
}

func fromViper(v *viper.Viper) (Config, error) {
	window, err := parseDuration(v.GetString("rate_limit.window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	fetchTimeout, err := parseDuration(v.GetString("file_fetch.timeout"), 10*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid file fetch timeout: %w", err)
	}

	connLifetime, err := parseDuration(v.GetString("database.conn_max_lifetime"), 30*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid database connection lifetime: %w", err)
	}

	cfg := Config{
		AppName:     v.GetString("app.name"),
		AppEnv:      v.GetString("app.env"),
		AppPort:     v.GetString("app.port"),
		DatabaseURL: v.GetString("database.url"),
		DBPool: DBPoolConfig{
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connLifetime,
		},
		RedisURL:    v.GetString("redis.url"),
		NATSURL:     v.GetString("nats.url"),
		EventPrefix: v.GetString("events.prefix"),
		JWTSecret:   v.GetString("jwt.secret"),
		AI: AIConfig{
			Provider:  strings.ToLower(strings.TrimSpace(v.GetString("ai.provider"))),
			BaseURL:   v.GetString("ai.base_url"),
			APIKey:    v.GetString("ai.api_key"),
			Model:     v.GetString("ai.model"),
			MaxTokens: v.GetInt("ai.max_tokens"),
			Generation: TaskSettings{
				Temperature: float32(v.GetFloat64("ai.generation.temperature")),
			},
			Evaluation: TaskSettings{
				Temperature: float32(v.GetFloat64("ai.evaluation.temperature")),
			},
			Plagiarism: TaskSettings{
				Temperature: float32(v.GetFloat64("ai.plagiarism.temperature")),
				Seed:        optionalInt(v, "ai.plagiarism.seed"),
			},
			LearningPath: TaskSettings{
				Temperature: float32(v.GetFloat64("ai.learning_path.temperature")),
			},
		},
		Plagiarism: PlagiarismConfig{
			FlagThreshold:   v.GetFloat64("plagiarism.flag_threshold"),
			SiblingMaxChars: v.GetInt("plagiarism.sibling_max_chars"),
			TargetMaxChars:  v.GetInt("plagiarism.target_max_chars"),
			MaxComparisons:  v.GetInt("plagiarism.max_comparisons"),
		},
		Quiz: QuizConfig{
			DefaultQuestions:   v.GetInt("quiz.default_questions"),
			DefaultAssignments: v.GetInt("quiz.default_assignments"),
			TimeLimitMinutes:   v.GetInt("quiz.time_limit_minutes"),
		},
		RateLimit: RateLimitConfig{
			Max:    v.GetInt("rate_limit.max"),
			Window: window,
		},
		FileFetchTimeout:      fetchTimeout,
		FileFetchMaxBytes:     v.GetInt64("file_fetch.max_bytes"),
		FileFetchAllowedHosts: splitList(v.GetString("file_fetch.allowed_hosts")),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.AI.APIKey == "" {
		return Config{}, fmt.Errorf("ai api key must be provided")
	}

	switch cfg.AI.Provider {
	case "openai":
		if cfg.AI.BaseURL == "" {
			cfg.AI.BaseURL = DefaultOpenAIBaseURL
		}
	case "anthropic":
	default:
		return Config{}, fmt.Errorf("unknown ai provider %q", cfg.AI.Provider)
	}

	if cfg.Plagiarism.FlagThreshold < 0 || cfg.Plagiarism.FlagThreshold > 100 {
		return Config{}, fmt.Errorf("plagiarism flag threshold must be within 0-100")
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func optionalInt(v *viper.Viper, key string) *int {
	if !v.IsSet(key) || v.GetString(key) == "" {
		return nil
	}
	value := v.GetInt(key)
	return &value
}
