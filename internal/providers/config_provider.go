package providers

import (
	"dmr/internal/structures"
	"fmt"
	"github.com/spf13/viper"
	"path/filepath"
	"strings"
	"time"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "DMR_LOG_LEVEL")
	viper.BindEnv("discord.token", "DMR_DISCORD_TOKEN")
	viper.BindEnv("fetcher.channelId", "DMR_CHANNEL_ID")
	viper.BindEnv("fetcher.rateLimitDelay", "DMR_RATE_LIMIT_DELAY")
	viper.BindEnv("storage.encrypt", "DMR_ENCRYPT")
	viper.BindEnv("storage.keyFile", "DMR_KEY_FILE")
	viper.BindEnv("cache.enabled", "DMR_CACHE_ENABLED")
	viper.BindEnv("cache.size", "DMR_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	if flags.ChannelID != "" {
		conf.Fetcher.ChannelID = flags.ChannelID
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	if conf.Fetcher.StartTime, err = parseBoundary(conf.Fetcher.StartDate); err != nil {
		return nil, fmt.Errorf("invalid fetcher.startDate: %w", err)
	}
	if conf.Fetcher.EndTime, err = parseBoundary(conf.Fetcher.EndDate); err != nil {
		return nil, fmt.Errorf("invalid fetcher.endDate: %w", err)
	}
	if !conf.Fetcher.StartTime.IsZero() && !conf.Fetcher.EndTime.IsZero() &&
		conf.Fetcher.EndTime.Before(conf.Fetcher.StartTime) {
		return nil, fmt.Errorf("fetcher.endDate %s is before fetcher.startDate %s",
			conf.Fetcher.EndDate, conf.Fetcher.StartDate)
	}

	conf.AppName = "DiscordMessageRetriever"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}

// parseBoundary accepts RFC3339 or a plain date, empty means unset.
func parseBoundary(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
