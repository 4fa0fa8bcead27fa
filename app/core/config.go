package core

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/forptiter/study-assistant/pkg/i18n"
	"github.com/forptiter/study-assistant/pkg/types"
)

func MustLoadBaseConfig(path string) CoreConfig {
	if path == "" {
		return LoadBaseConfigFromENV()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	conf := &CoreConfig{}
	if err = toml.Unmarshal(raw, conf); err != nil {
		panic(err)
	}
	conf.applyDefaults()

	return *conf
}

func LoadBaseConfigFromENV() CoreConfig {
	var c CoreConfig
	c.FromENV()
	c.applyDefaults()
	return c
}

type CoreConfig struct {
	Log           Log                 `toml:"log"`
	Postgres      PGConfig            `toml:"postgres"`
	Redis         RedisConfig         `toml:"redis"`
	Auth          AuthConfig          `toml:"auth"`
	ChatAPI       ChatAPIConfig       `toml:"chat_api"`
	Chat          ChatConfig          `toml:"chat"`
	Drive         DriveConfig         `toml:"drive"`
	ObjectStorage ObjectStorageDriver `toml:"object_storage"`
	Metrics       MetricsConfig       `toml:"metrics"`
}

type ObjectStorageDriver struct {
	S3 *S3Config `toml:"s3"`
}

type S3Config struct {
	Bucket       string `toml:"bucket"`
	Region       string `toml:"region"`
	Endpoint     string `toml:"endpoint"`
	AccessKey    string `toml:"access_key"`
	SecretKey    string `toml:"secret_key"`
	UsePathStyle bool   `toml:"use_path_style"`
}

// Duration reads "2s" style values from toml.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

type AuthConfig struct {
	// Endpoint of the GoTrue service, e.g. https://<project>.supabase.co/auth/v1
	Endpoint  string `toml:"endpoint"`
	AnonKey   string `toml:"anon_key"`
	JWTSecret string `toml:"jwt_secret"`
	// SessionFile keeps the signed in user between CLI runs.
	SessionFile string `toml:"session_file"`
}

type ChatAPIConfig struct {
	Endpoint      string   `toml:"endpoint"`
	Timeout       Duration `toml:"timeout"` // non streaming calls only
	AgentCacheTTL Duration `toml:"agent_cache_ttl"`
}

type ChatConfig struct {
	SessionCap          int      `toml:"session_cap"`
	ThinkingSuffix      string   `toml:"thinking_suffix"`
	ThinkingAgentPrefix string   `toml:"thinking_agent_prefix"`
	ReconcileDelay      Duration `toml:"reconcile_delay"`
	ReconcileTimeout    Duration `toml:"reconcile_timeout"`
	Language            string   `toml:"language"`
	MaxUploadBytes      int64    `toml:"max_upload_bytes"`
}

type DriveConfig struct {
	ClientID     string  `toml:"client_id"`
	ClientSecret string  `toml:"client_secret"`
	CallbackPort int     `toml:"callback_port"`
	TokenFile    string  `toml:"token_file"`
	RateLimit    float64 `toml:"rate_limit"` // requests per second
}

func (d DriveConfig) Enabled() bool {
	return d.ClientID != ""
}

type MetricsConfig struct {
	Addr string `toml:"addr"`
}

func (c *CoreConfig) applyDefaults() {
	if c.Chat.SessionCap <= 0 {
		c.Chat.SessionCap = 10
	}
	if c.Chat.ThinkingSuffix == "" {
		c.Chat.ThinkingSuffix = " /no_thinking"
	}
	if c.Chat.ThinkingAgentPrefix == "" {
		c.Chat.ThinkingAgentPrefix = "qwen"
	}
	if c.Chat.ReconcileDelay.Duration <= 0 {
		c.Chat.ReconcileDelay.Duration = 2 * time.Second
	}
	if c.Chat.ReconcileTimeout.Duration < c.Chat.ReconcileDelay.Duration {
		c.Chat.ReconcileTimeout.Duration = 5 * c.Chat.ReconcileDelay.Duration
	}
	if !i18n.ALLOW_LANG[c.Chat.Language] {
		c.Chat.Language = i18n.DEFAULT_LANG
	}
	if c.Chat.MaxUploadBytes <= 0 {
		c.Chat.MaxUploadBytes = types.DEFAULT_MAX_FILE
	}
	if c.ChatAPI.Endpoint == "" {
		c.ChatAPI.Endpoint = "http://localhost:8000"
	}
	if c.ChatAPI.Timeout.Duration <= 0 {
		c.ChatAPI.Timeout.Duration = 30 * time.Second
	}
	if c.ChatAPI.AgentCacheTTL.Duration <= 0 {
		c.ChatAPI.AgentCacheTTL.Duration = 10 * time.Minute
	}
	if c.Drive.CallbackPort == 0 {
		c.Drive.CallbackPort = 8765
	}
	if c.Drive.RateLimit <= 0 {
		c.Drive.RateLimit = 5
	}
}

func (c *CoreConfig) FromENV() {
	c.Log.FromENV()
	c.Postgres.FromENV()
	c.Redis.FromENV()

	c.Auth.Endpoint = os.Getenv("STUDY_AUTH_ENDPOINT")
	c.Auth.AnonKey = os.Getenv("STUDY_AUTH_ANON_KEY")
	c.Auth.JWTSecret = os.Getenv("STUDY_AUTH_JWT_SECRET")
	c.Auth.SessionFile = os.Getenv("STUDY_AUTH_SESSION_FILE")

	c.ChatAPI.Endpoint = os.Getenv("STUDY_CHAT_API_ENDPOINT")
	c.Chat.Language = os.Getenv("STUDY_CHAT_LANGUAGE")
	if v := os.Getenv("STUDY_CHAT_SESSION_CAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Chat.SessionCap = n
		}
	}
	if v := os.Getenv("STUDY_CHAT_RECONCILE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Chat.ReconcileDelay.Duration = d
		}
	}

	c.Drive.ClientID = os.Getenv("STUDY_DRIVE_CLIENT_ID")
	c.Drive.ClientSecret = os.Getenv("STUDY_DRIVE_CLIENT_SECRET")
	c.Drive.TokenFile = os.Getenv("STUDY_DRIVE_TOKEN_FILE")

	c.Metrics.Addr = os.Getenv("STUDY_METRICS_ADDR")
}

type PGConfig struct {
	DSN string `toml:"dsn"`
}

func (m *PGConfig) FromENV() {
	m.DSN = os.Getenv("STUDY_POSTGRESQL_DSN")
}

func (c PGConfig) FormatDSN() string {
	return c.DSN
}

type RedisConfig struct {
	Addr     string `toml:"addr"`     // host:port, empty disables redis
	Password string `toml:"password"`
	DB       int    `toml:"db"`

	PoolSize    int `toml:"pool_size"`
	DialTimeout int `toml:"dial_timeout"` // seconds

	KeyPrefix string `toml:"key_prefix"`
}

func (r *RedisConfig) FromENV() {
	r.Addr = os.Getenv("STUDY_REDIS_ADDR")
	r.Password = os.Getenv("STUDY_REDIS_PASSWORD")
	if dbStr := os.Getenv("STUDY_REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			r.DB = db
		}
	}
	r.KeyPrefix = os.Getenv("STUDY_REDIS_KEY_PREFIX")
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

func (l *Log) FromENV() {
	l.Level = os.Getenv("STUDY_LOG_LEVEL")
	l.Path = os.Getenv("STUDY_LOG_PATH")
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
