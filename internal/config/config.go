// Package config provides configuration loading and validation for the screener.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every setting when read from the environment.
const EnvPrefix = "SCREENER"

// Config is the complete runtime configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Store     StoreConfig     `mapstructure:"store"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Speech    SpeechConfig    `mapstructure:"speech"`
	Audio     AudioConfig     `mapstructure:"audio"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Interview InterviewConfig `mapstructure:"interview"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Org       OrgConfig       `mapstructure:"org"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Workers   WorkerConfig    `mapstructure:"workers"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port           int             `mapstructure:"port"`
	AllowedOrigins []string        `mapstructure:"allowed_origins"`
	MaxUploadMB    int64           `mapstructure:"max_upload_mb"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LogConfig selects the log encoding and level.
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// LLMConfig selects the language model provider and model names per tier.
type LLMConfig struct {
	Provider       string `mapstructure:"provider"`
	APIKey         string `mapstructure:"api_key"`
	APIKeyFile     string `mapstructure:"api_key_file"`
	Backend        string `mapstructure:"backend"`
	Project        string `mapstructure:"project"`
	Location       string `mapstructure:"location"`
	LiteModel      string `mapstructure:"lite_model"`
	StandardModel  string `mapstructure:"standard_model"`
	AdvancedModel  string `mapstructure:"advanced_model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

// SpeechConfig selects the transcription backend.
type SpeechConfig struct {
	Backend         string        `mapstructure:"backend"`
	LanguageCode    string        `mapstructure:"language_code"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// AudioConfig controls upload storage and conversion.
type AudioConfig struct {
	Dir        string `mapstructure:"dir"`
	FFmpegPath string `mapstructure:"ffmpeg_path"`
}

// ArchiveConfig controls where converted answers are kept.
type ArchiveConfig struct {
	Backend       string `mapstructure:"backend"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	SecretKeyFile string `mapstructure:"secret_key_file"`
	Bucket        string `mapstructure:"bucket"`
	UseSSL        bool   `mapstructure:"use_ssl"`
}

// RetrievalConfig controls the per-candidate resume index.
type RetrievalConfig struct {
	Dir        string `mapstructure:"dir"`
	Role       string `mapstructure:"role"`
	TopK       int    `mapstructure:"top_k"`
	ChunkWords int    `mapstructure:"chunk_words"`
}

// InterviewConfig controls question supply and session lifetime.
type InterviewConfig struct {
	QuestionCount int           `mapstructure:"question_count"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	ResumeScore   float64       `mapstructure:"resume_score"`
}

// ScoringConfig controls the answer scorer.
type ScoringConfig struct {
	Retries int           `mapstructure:"retries"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// FetchConfig controls resume retrieval from URLs.
type FetchConfig struct {
	UseBrowser bool          `mapstructure:"use_browser"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// SMTPConfig configures outgoing mail. An empty host disables sending.
type SMTPConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	PasswordFile string `mapstructure:"password_file"`
	From         string `mapstructure:"from"`
}

// OrgConfig holds the single organization account.
type OrgConfig struct {
	Email        string `mapstructure:"email"`
	Password     string `mapstructure:"password"`
	PasswordHash string `mapstructure:"password_hash"`
}

// AuthConfig holds token and password hashing settings.
type AuthConfig struct {
	JWTSecret          string `mapstructure:"jwt_secret"`
	JWTSecretFile      string `mapstructure:"jwt_secret_file"`
	JWTExpirationHours int    `mapstructure:"jwt_expiration_hours"`
	BcryptCost         int    `mapstructure:"bcrypt_cost"`
	Pepper             string `mapstructure:"pepper"`
}

// WorkerConfig sizes the background pool used for notifications.
type WorkerConfig struct {
	Count     int `mapstructure:"count"`
	QueueSize int `mapstructure:"queue_size"`
}

var defaults = map[string]any{
	"server.port":                           8080,
	"server.allowed_origins":                []string{"http://localhost:3000"},
	"server.max_upload_mb":                  25,
	"server.rate_limit.enabled":             true,
	"server.rate_limit.requests_per_second": 5.0,
	"server.rate_limit.burst":               20,
	"log.json":                              false,
	"log.debug":                             false,
	"store.driver":                          "sqlite",
	"store.dsn":                             "answers.db",
	"llm.provider":                          "generative-ai",
	"llm.api_key":                           "",
	"llm.api_key_file":                      "",
	"llm.backend":                           "gemini",
	"llm.project":                           "",
	"llm.location":                          "",
	"llm.lite_model":                        "gemini-2.5-flash-lite",
	"llm.standard_model":                    "gemini-2.5-flash",
	"llm.advanced_model":                    "gemini-2.5-pro",
	"llm.embedding_model":                   "text-embedding-004",
	"speech.backend":                        "llm",
	"speech.language_code":                  "en-US",
	"speech.credentials_file":               "",
	"speech.timeout":                        "120s",
	"audio.dir":                             "audio",
	"audio.ffmpeg_path":                     "ffmpeg",
	"archive.backend":                       "local",
	"archive.endpoint":                      "",
	"archive.access_key":                    "",
	"archive.secret_key":                    "",
	"archive.secret_key_file":               "",
	"archive.bucket":                        "screener-answers",
	"archive.use_ssl":                       false,
	"retrieval.dir":                         "vectorstore",
	"retrieval.role":                        "candidate",
	"retrieval.top_k":                       3,
	"retrieval.chunk_words":                 500,
	"interview.question_count":              5,
	"interview.session_ttl":                 "2h",
	"interview.resume_score":                50.0,
	"scoring.retries":                       1,
	"scoring.timeout":                       "60s",
	"fetch.use_browser":                     false,
	"fetch.timeout":                         "30s",
	"smtp.host":                             "",
	"smtp.port":                             465,
	"smtp.username":                         "",
	"smtp.password":                         "",
	"smtp.password_file":                    "",
	"smtp.from":                             "",
	"org.email":                             "",
	"org.password":                          "",
	"org.password_hash":                     "",
	"auth.jwt_secret":                       "",
	"auth.jwt_secret_file":                  "",
	"auth.jwt_expiration_hours":             24,
	"auth.bcrypt_cost":                      12,
	"auth.pepper":                           "",
	"workers.count":                         2,
	"workers.queue_size":                    64,
}

// legacyEnv lists unprefixed environment names accepted for a setting.
var legacyEnv = map[string][]string{
	"store.dsn":                 {"DATABASE_URL"},
	"llm.api_key":               {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"llm.standard_model":        {"GEMINI_MODEL"},
	"retrieval.top_k":           {"RAG_TOP_K"},
	"auth.jwt_secret":           {"JWT_SECRET"},
	"auth.jwt_expiration_hours": {"JWT_EXPIRATION_HOURS"},
	"auth.bcrypt_cost":          {"BCRYPT_COST"},
	"auth.pepper":               {"PASSWORD_PEPPER"},
	"smtp.host":                 {"SMTP_HOST"},
	"smtp.port":                 {"SMTP_PORT"},
	"smtp.username":             {"SMTP_USER"},
	"smtp.password":             {"SMTP_PASS"},
	"smtp.from":                 {"FROM_EMAIL"},
	"archive.endpoint":          {"MINIO_ENDPOINT"},
	"archive.access_key":        {"MINIO_ACCESS_KEY"},
	"archive.secret_key":        {"MINIO_SECRET_KEY"},
	"archive.bucket":            {"MINIO_BUCKET"},
	"speech.credentials_file":   {"GOOGLE_APPLICATION_CREDENTIALS"},
}

// envName returns the prefixed environment variable for a dotted key.
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Bind registers defaults and environment bindings on v.
func Bind(v *viper.Viper) error {
	for key, value := range defaults {
		v.SetDefault(key, value)
		names := append([]string{envName(key)}, legacyEnv[key]...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("binding env for %s: %w", key, err)
		}
	}
	return nil
}

// ReadFile reads an explicit config file, or screener.yaml from the working
// directory when path is empty. A missing default file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.AddConfigPath(".")
	v.SetConfigName("screener")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Decode converts the merged viper settings into a Config.
func Decode(v *viper.Viper) (*Config, error) {
	settings := make(map[string]any, len(defaults))
	for key := range defaults {
		setNested(settings, key, v.Get(key))
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			stringToSliceHook(","),
		),
		WeaklyTypedInput: true,
		Result:           &cfg,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// setNested writes value into m under the dotted key path.
func setNested(m map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// stringToSliceHook splits comma-separated strings from the environment and trims entries.
func stringToSliceHook(sep string) mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.Slice {
			return data, nil
		}
		raw := data.(string)
		if strings.TrimSpace(raw) == "" {
			return []string{}, nil
		}
		parts := strings.Split(raw, sep)
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	}
}

// Load builds a Config from defaults, an optional file and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	if err := Bind(v); err != nil {
		return nil, err
	}
	if err := ReadFile(v, path); err != nil {
		return nil, err
	}
	cfg, err := Decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.ResolveSecrets(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and backend-specific requirements.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' out of range: %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("config error: 'server.max_upload_mb' must be positive")
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RequestsPerSecond <= 0 || c.Server.RateLimit.Burst < 1) {
		return fmt.Errorf("config error: rate limit needs positive 'requests_per_second' and 'burst'")
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config error: unsupported 'store.driver' %q", c.Store.Driver)
	}
	if c.Store.DSN == "" {
		return fmt.Errorf("config error: 'store.dsn' is required")
	}

	switch c.LLM.Provider {
	case "generative-ai", "genai":
	default:
		return fmt.Errorf("config error: unsupported 'llm.provider' %q", c.LLM.Provider)
	}
	if c.LLM.Provider == "genai" && c.LLM.Backend == "vertex" && (c.LLM.Project == "" || c.LLM.Location == "") {
		return fmt.Errorf("config error: vertex backend requires 'llm.project' and 'llm.location'")
	}

	switch c.Speech.Backend {
	case "llm", "google", "none":
	default:
		return fmt.Errorf("config error: unsupported 'speech.backend' %q", c.Speech.Backend)
	}

	switch c.Archive.Backend {
	case "local", "none":
	case "minio":
		if c.Archive.Endpoint == "" || c.Archive.Bucket == "" {
			return fmt.Errorf("config error: minio archive requires 'archive.endpoint' and 'archive.bucket'")
		}
	default:
		return fmt.Errorf("config error: unsupported 'archive.backend' %q", c.Archive.Backend)
	}

	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("config error: 'retrieval.top_k' must be at least 1")
	}
	if c.Retrieval.ChunkWords < 1 {
		return fmt.Errorf("config error: 'retrieval.chunk_words' must be at least 1")
	}
	if c.Interview.QuestionCount < 1 {
		return fmt.Errorf("config error: 'interview.question_count' must be at least 1")
	}
	if c.Interview.SessionTTL <= 0 {
		return fmt.Errorf("config error: 'interview.session_ttl' must be positive")
	}
	if c.Scoring.Retries < 0 {
		return fmt.Errorf("config error: 'scoring.retries' must be non-negative")
	}
	if c.Scoring.Timeout <= 0 || c.Speech.Timeout <= 0 {
		return fmt.Errorf("config error: scoring and speech timeouts must be positive")
	}
	if c.Workers.Count < 1 || c.Workers.QueueSize < 1 {
		return fmt.Errorf("config error: 'workers.count' and 'workers.queue_size' must be positive")
	}
	return nil
}

// Address returns the HTTP listen address.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
