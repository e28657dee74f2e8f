package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Game   GameConfig   `mapstructure:"game"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"` // debug, release
}

type RedisConfig struct {
	// Addr empty means parties live in process memory only.
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type GameConfig struct {
	BotMinDelayMs  int     `mapstructure:"botMinDelayMs"`
	BotMaxDelayMs  int     `mapstructure:"botMaxDelayMs"`
	BotPassChance  float64 `mapstructure:"botPassChance"`
	PartyTTLHours  int     `mapstructure:"partyTtlHours"`
	PollIntervalMs int     `mapstructure:"pollIntervalMs"`
}

var GlobalConfig *Config

// LoadConfig reads the YAML file at path and fills GlobalConfig.
// Environment variables prefixed BIGTWO_ override file values. A
// missing file is fine; defaults apply.
func LoadConfig(path string) {
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("game.botMinDelayMs", 1000)
	viper.SetDefault("game.botMaxDelayMs", 2000)
	viper.SetDefault("game.botPassChance", 0.3)
	viper.SetDefault("game.partyTtlHours", 24)
	viper.SetDefault("game.pollIntervalMs", 2000)

	viper.SetEnvPrefix("bigtwo")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		viper.SetConfigFile(path)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			log.Fatalf("Error reading config file, %s", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
	GlobalConfig = &cfg
}
