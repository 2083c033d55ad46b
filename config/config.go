package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"` // "development" or "production"
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		// Backend selects the storage implementation: "postgres" or "memory".
		Backend  string `mapstructure:"backend"`
		Postgres struct {
			Host     string `mapstructure:"host"`
			Password string `mapstructure:"password"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Auth struct {
		JWTSecretKey  string        `mapstructure:"jwtSecretKey"`
		JWTIssuer     string        `mapstructure:"jwtIssuer"`
		JWTExpiry     time.Duration `mapstructure:"jwtExpiry"`
		SessionExpiry time.Duration `mapstructure:"sessionExpiry"`
		SessionCookie string        `mapstructure:"sessionCookie"`
		SecureCookies bool          `mapstructure:"secureCookies"`
	} `mapstructure:"auth"`
	Catalog struct {
		CacheTTL time.Duration `mapstructure:"cacheTTL"`
	} `mapstructure:"catalog"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Environment overrides, e.g. THEMEHUB_AUTH_JWTSECRETKEY
	v.SetEnvPrefix("THEMEHUB")
	v.AutomaticEnv()

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	return config, nil
}
