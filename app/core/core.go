package core

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/forptiter/study-assistant/app/store"
	"github.com/forptiter/study-assistant/app/store/sqlstore"
	"github.com/forptiter/study-assistant/pkg/auth"
	"github.com/forptiter/study-assistant/pkg/chatapi"
	"github.com/forptiter/study-assistant/pkg/i18n"
	"github.com/forptiter/study-assistant/pkg/object-storage/s3"
	"github.com/forptiter/study-assistant/pkg/types"
)

type Core struct {
	cfg CoreConfig

	stores  store.Provider
	cache   types.Cache
	metrics *Metrics
	i18n    i18n.Localizer

	chatAPI *chatapi.Client
	auth    *auth.Client
	s3      *s3.S3

	closers []func() error
}

type Option func(*Core)

func WithStore(p store.Provider) Option {
	return func(c *Core) { c.stores = p }
}

func WithCache(cache types.Cache) Option {
	return func(c *Core) { c.cache = cache }
}

func WithS3(cli *s3.S3) Option {
	return func(c *Core) { c.s3 = cli }
}

func WithChatAPI(cli *chatapi.Client) Option {
	return func(c *Core) { c.chatAPI = cli }
}

func WithAuth(cli *auth.Client) Option {
	return func(c *Core) { c.auth = cli }
}

// NewCore builds a core without opening external connections beyond the
// defaults derived from cfg. Options replace individual dependencies.
func NewCore(cfg CoreConfig, opts ...Option) *Core {
	cfg.applyDefaults()

	core := &Core{
		cfg:     cfg,
		metrics: NewMetrics("study_assistant", "client"),
		i18n:    i18n.NewLocalizer("vi", "en"),
		chatAPI: chatapi.New(cfg.ChatAPI.Endpoint, cfg.ChatAPI.Timeout.Duration),
		auth:    auth.NewClient(cfg.Auth.Endpoint, cfg.Auth.AnonKey, cfg.ChatAPI.Timeout.Duration),
	}
	for _, opt := range opts {
		opt(core)
	}
	if core.cache == nil {
		core.cache = NewMemoryCache()
	}
	return core
}

func MustSetupCore(cfg CoreConfig) *Core {
	setupLogger(cfg.Log)

	var opts []Option

	provider := sqlstore.MustSetup(cfg.Postgres)
	if err := provider.Install(context.Background()); err != nil {
		panic(err)
	}
	opts = append(opts, WithStore(provider))

	var closers []func() error
	closers = append(closers, provider.Close)

	if cfg.Redis.Addr != "" {
		cli := redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: time.Duration(cfg.Redis.DialTimeout) * time.Second,
		})
		opts = append(opts, WithCache(NewRedisCache(cli, cfg.Redis.KeyPrefix)))
		closers = append(closers, cli.Close)
	}

	if c := cfg.ObjectStorage.S3; c != nil && c.Bucket != "" {
		opts = append(opts, WithS3(s3.NewS3Client(c.Endpoint, c.Region, c.Bucket, c.AccessKey, c.SecretKey, s3.WithPathStyle(c.UsePathStyle))))
	}

	core := NewCore(cfg, opts...)
	core.closers = closers
	slog.Debug("core setup done", slog.Bool("redis", cfg.Redis.Addr != ""), slog.Bool("s3", core.s3 != nil))
	return core
}

func setupLogger(cfg Log) {
	var writer io.Writer = os.Stdout
	if cfg.Path != "" {
		writer = &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     28, //days
			Compress:   true,
		}
	}
	l := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(l)
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) Store() store.Provider {
	return s.stores
}

func (s *Core) Cache() types.Cache {
	return s.cache
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

func (s *Core) ChatAPI() *chatapi.Client {
	return s.chatAPI
}

func (s *Core) Auth() *auth.Client {
	return s.auth
}

// S3 is nil unless object storage is configured.
func (s *Core) S3() *s3.S3 {
	return s.s3
}

// Text renders a localized notice in the configured language.
func (s *Core) Text(id string, data map[string]interface{}) string {
	lang := s.i18n.Lang(s.cfg.Chat.Language)
	if data == nil {
		return s.i18n.Get(lang, id)
	}
	return s.i18n.GetWithData(lang, id, data)
}

func (s *Core) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
