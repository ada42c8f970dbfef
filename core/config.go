package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		Port            string
		DebugHost       string
		ShutdownTimeout time.Duration
		CORSOrigins     []string
	}

	AuthConfig struct {
		AccessTokenSecret     string
		RefreshTokenSecret    string
		ActivationTokenSecret string

		AccessTokenExpirationDelta     time.Duration
		RefreshTokenExpirationDelta    time.Duration
		ActivationTokenExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		URI  string
		Name string
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	MediaConfig struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		Bucket    string
		UseSSL    bool
	}

	Config struct {
		Debug    bool
		TestMode bool
		Env      string
		Build    string
		AppName  string
		WorkDir  string

		DefaultFromEmail mail.Address
		FrontendBaseURL  string
		SendgridApiKey   string
		RollbarToken     string

		// course cache entries expire after this delta; session entries have no TTL
		CourseCacheExpirationDelta time.Duration

		Server   ServerConfig
		Auth     AuthConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Media    MediaConfig
	}
)

func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// NewConfig loads the configuration; defaults first, then an optional
// config/.env.<env> file, then ENV-prefixed environment variables.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Soma")
	v.SetDefault("workDir", Getwd())
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("serverHost", "0.0.0.0")
	v.SetDefault("serverPort", "8000")
	v.SetDefault("serverDebugHost", "0.0.0.0:4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("corsOrigins", "http://localhost:3000")
	v.SetDefault("accessTokenSecret", "access-dev-secret")
	v.SetDefault("refreshTokenSecret", "refresh-dev-secret")
	v.SetDefault("activationTokenSecret", "activation-dev-secret")
	v.SetDefault("accessTokenExpirationDelta", 5*time.Minute)
	v.SetDefault("refreshTokenExpirationDelta", 3*24*time.Hour)
	v.SetDefault("activationTokenExpirationDelta", 5*time.Minute)
	v.SetDefault("courseCacheExpirationDelta", 7*24*time.Hour)
	v.SetDefault("databaseURI", "mongodb://localhost:27017")
	v.SetDefault("databaseName", "soma")
	v.SetDefault("redisAddr", "localhost:6379")
	v.SetDefault("redisPassword", "")
	v.SetDefault("redisDB", 0)
	v.SetDefault("mediaEndpoint", "localhost:9000")
	v.SetDefault("mediaAccessKey", "")
	v.SetDefault("mediaSecretKey", "")
	v.SetDefault("mediaBucket", "soma-media")
	v.SetDefault("mediaUseSSL", false)
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "PROD":
		v.SetDefault("debug", false)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		WorkDir:          v.GetString("workDir"),
		DefaultFromEmail: mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),

		CourseCacheExpirationDelta: v.GetDuration("courseCacheExpirationDelta"),

		Server: ServerConfig{
			Host:            v.GetString("serverHost"),
			Port:            v.GetString("serverPort"),
			DebugHost:       v.GetString("serverDebugHost"),
			ShutdownTimeout: v.GetDuration("serverShutdownTimeout"),
			CORSOrigins:     strings.Split(v.GetString("corsOrigins"), ","),
		},
		Auth: AuthConfig{
			AccessTokenSecret:              v.GetString("accessTokenSecret"),
			RefreshTokenSecret:             v.GetString("refreshTokenSecret"),
			ActivationTokenSecret:          v.GetString("activationTokenSecret"),
			AccessTokenExpirationDelta:     v.GetDuration("accessTokenExpirationDelta"),
			RefreshTokenExpirationDelta:    v.GetDuration("refreshTokenExpirationDelta"),
			ActivationTokenExpirationDelta: v.GetDuration("activationTokenExpirationDelta"),
		},
		Database: DatabaseConfig{
			URI:  v.GetString("databaseURI"),
			Name: v.GetString("databaseName"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redisAddr"),
			Password: v.GetString("redisPassword"),
			DB:       v.GetInt("redisDB"),
		},
		Media: MediaConfig{
			Endpoint:  v.GetString("mediaEndpoint"),
			AccessKey: v.GetString("mediaAccessKey"),
			SecretKey: v.GetString("mediaSecretKey"),
			Bucket:    v.GetString("mediaBucket"),
			UseSSL:    v.GetBool("mediaUseSSL"),
		},
	}
}
