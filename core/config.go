package core

import (
	"crypto/rand"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// devSecretKey is only ever used in DEV/TEST. In PROD, a missing SECRETKEY results
// in a random per-process key; tokens issued before a restart become invalid.
const devSecretKey = "q0d(m#b$+57=dz&u0xh2(h!x)#*c2(#yg4h^$cegm2emy-n00dle"

type Config struct {
	Env      string // DEV (default) | TEST | QA | PROD
	AppName  string
	Build    string
	Debug    bool
	TestMode bool

	SecretKey          []byte
	JWTExpirationDelta time.Duration

	DefaultFromEmail string
	SendgridAPIKey   string
	RollbarToken     string

	Server struct {
		Host            string
		Addr            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	Database DatabaseConfig
}

type DatabaseConfig struct {
	Engine        string
	Name          string
	User          string
	Password      string
	AdminUser     string
	AdminPassword string
	Host          string
	Port          string
	DisableTLS    bool
}

// Address returns the host:port the database listens on.
func (c DatabaseConfig) Address() string { return net.JoinHostPort(c.Host, c.Port) }

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Noodle")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", devSecretKey)
	v.SetDefault("jwtExpirationDelta", 12*time.Hour)
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("serverDebugHost", "localhost:4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbName", "noodle")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbDisableTLS", true)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
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

	conf := &Config{
		Env:                env,
		AppName:            v.GetString("appName"),
		Build:              v.GetString("build"),
		Debug:              v.GetBool("debug"),
		TestMode:           v.GetBool("testMode"),
		SecretKey:          []byte(v.GetString("secretKey")),
		JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		DefaultFromEmail:   v.GetString("defaultFromEmail"),
		SendgridAPIKey:     v.GetString("sendgridApiKey"),
		RollbarToken:       v.GetString("rollbarToken"),
	}
	conf.Server.Host = v.GetString("serverHost")
	conf.Server.Addr = v.GetString("serverAddr")
	conf.Server.DebugHost = v.GetString("serverDebugHost")
	conf.Server.ShutdownTimeout = v.GetDuration("serverShutdownTimeout")
	conf.Database.Engine = v.GetString("dbEngine")
	conf.Database.Name = v.GetString("dbName")
	conf.Database.User = v.GetString("dbUser")
	conf.Database.Password = v.GetString("dbPassword")
	conf.Database.AdminUser = v.GetString("dbAdminUser")
	conf.Database.AdminPassword = v.GetString("dbAdminPassword")
	conf.Database.Host = v.GetString("dbHost")
	conf.Database.Port = v.GetString("dbPort")
	conf.Database.DisableTLS = v.GetBool("dbDisableTLS")

	// the dev key never signs tokens outside DEV/TEST; generate a process-lifetime
	// key instead when none was provided
	if env == "QA" || env == "PROD" {
		if string(conf.SecretKey) == devSecretKey {
			conf.SecretKey = randomSecretKey()
		}
	}
	return conf
}

func randomSecretKey() []byte {
	key := make([]byte, 64)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("config.randomSecretKey: %v", err)
	}
	return key
}
