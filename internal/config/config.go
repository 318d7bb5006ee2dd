package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

type (
	Config struct {
		TelegramAPIToken string   `env:"TOKEN,required"`
		AdminLogChatID   int64    `env:"ADMIN_LOG_CHAT_ID"`
		EnabledHandlers  []string `env:"HANDLERS,default=admin,moderation,greeter"`
		LogLevel         int      `env:"LOG_LEVEL,default=4"`
		DotPath          string   `env:"DOT_PATH,default=~/.modbot"`
		MetricsAddr      string   `env:"METRICS_ADDR,default=:2112"`
		Moderation       Moderation
	}

	Moderation struct {
		FloodLimit          int           `env:"FLOOD_LIMIT,default=5"`
		FloodWindow         time.Duration `env:"FLOOD_WINDOW,default=8s"`
		WarnBeforeMute      int           `env:"WARN_BEFORE_MUTE,default=2"`
		MuteDuration        time.Duration `env:"MUTE_DURATION,default=10m"`
		AdScoreThreshold    int           `env:"AD_SCORE_THRESHOLD,default=3"`
		RestrictionDuration time.Duration `env:"RESTRICTION_DURATION,default=72h"`
		BannedWords         []string      `env:"BANNED_WORDS"`
		LinkFilter          bool          `env:"LINK_FILTER,default=true"`
		AdminBypass         bool          `env:"ADMIN_BYPASS,default=true"`
		// OffenseScope selects the key for per-user moderation state:
		// "global" tracks a user across all chats, "chat" per chat.
		OffenseScope  string        `env:"OFFENSE_SCOPE,default=global"`
		SignalsPath   string        `env:"SIGNALS_PATH"`
		AdminCacheTTL time.Duration `env:"ADMIN_CACHE_TTL,default=5m"`
	}
)

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

func Load() (Config, error) {
	once.Do(func() {
		cfg := &Config{}
		envcfg := envconfig.Config{
			Lookuper: envconfig.PrefixLookuper("MB_", envconfig.OsLookuper()),
			Target:   cfg,
		}
		if err := envconfig.ProcessWith(context.Background(), &envcfg); err != nil {
			globalErr = fmt.Errorf("process env config: %w", err)
			return
		}
		home, err := os.UserHomeDir()
		if err != nil {
			globalErr = fmt.Errorf("get user home directory: %w", err)
			return
		}
		cfg.DotPath = strings.Replace(cfg.DotPath, "~", home, 1)
		log.Traceln("loaded config")
		globalConfig = cfg
	})
	return *globalConfig, globalErr
}

func Get() Config {
	cfg, err := Load()
	if err != nil {
		log.WithField("error", err.Error()).Error("cant load config")
	}
	return cfg
}
