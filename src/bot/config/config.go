package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Token     string   `mapstructure:"token"`
	MySQLDSN  string   `mapstructure:"mysql_dsn"`
	RedisURL  string   `mapstructure:"redis_url"`
	Guilds    []string `mapstructure:"guilds"`
	AdminAddr string   `mapstructure:"admin_addr"` // empty disables the ops API
	JWTSecret string   `mapstructure:"jwt_secret"`
}

// Load reads config.yaml from the working directory; every key can be
// overridden from the environment (TOKEN, MYSQL_DSN, ...).
func Load() (Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	viper.SetDefault("mysql_dsn", "suggestbox:suggestbox@tcp(127.0.0.1:3306)/suggestbox?parseTime=true")
	viper.SetDefault("redis_url", "redis://127.0.0.1:6379/0")

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine when the environment carries the values.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
