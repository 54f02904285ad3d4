package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	DB       DBConfig       `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Feed     FeedConfig     `mapstructure:"feed"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	Log      LogConfig      `mapstructure:"log"`
	TimeZone string         `mapstructure:"timezone"`
}

type TelegramConfig struct {
	Token   string `mapstructure:"token"`
	AdminID int64  `mapstructure:"admin_id"`
}

type DBConfig struct {
	Address  string        `mapstructure:"address"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Debug    bool          `mapstructure:"debug"`
}

// RedisConfig points at the lock server. An empty address keeps locks in
// process.
type RedisConfig struct {
	Address string `mapstructure:"address"`
}

type FeedConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type HTTPConfig struct {
	Address string `mapstructure:"address"`
}

type RefreshConfig struct {
	OnStart bool `mapstructure:"on_start"`
}

type NotifierConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	IdleInterval time.Duration `mapstructure:"idle_interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const envPrefix = "KAPBOT"

// Load reads the configuration. Environment variables override the file,
// the file overrides the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("db.address", ":5432")
	v.SetDefault("db.user", "bot")
	v.SetDefault("db.database", "bot")
	v.SetDefault("db.timeout", "1m")
	v.SetDefault("db.debug", false)
	v.SetDefault("redis.address", "")
	v.SetDefault("feed.url", "http://webapps.kaplan.com.sg/schedule/schedules2.json")
	v.SetDefault("feed.timeout", "30s")
	v.SetDefault("http.address", ":42069")
	v.SetDefault("refresh.on_start", true)
	v.SetDefault("notifier.poll_interval", "15s")
	v.SetDefault("notifier.idle_interval", "60s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("timezone", "Asia/Singapore")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only sees keys viper already knows about.
	for _, key := range []string{"telegram.token", "telegram.admin_id", "db.password"} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, errors.Wrapf(err, "unable to bind env for %v", key)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return Config{}, errors.Wrap(err, "unable to read config file")
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "unable to unmarshal config")
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.Telegram.Token == "" {
		return errors.New("telegram.token is required")
	}
	if c.Feed.URL == "" {
		return errors.New("feed.url is required")
	}
	if c.DB.Timeout <= 0 {
		return errors.New("db.timeout must be positive")
	}
	if c.Feed.Timeout <= 0 {
		return errors.New("feed.timeout must be positive")
	}
	if c.Notifier.PollInterval <= 0 || c.Notifier.IdleInterval <= 0 {
		return errors.New("notifier intervals must be positive")
	}
	return nil
}

// SetConfigFile with a path that does not exist yields a plain fs error
// rather than ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}
