// Package config loads service settings from an optional .env file and the
// environment.
package config

import (
	"crypto/rand"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const envPrefix = "LIBRARY_"

type Config struct {
	Addr           string
	DBPath         string
	JWTSecret      []byte
	PasswordHasher string
	StrictStatus   bool
	CacheMaxAge    int
	LogLevel       logrus.Level
	LogFormat      string
	CORSOrigins    []string

	// SecretGenerated is set when no secret was configured and a random one
	// was created for this process.
	SecretGenerated bool
}

func defaults() Config {
	return Config{
		Addr:           ":5000",
		DBPath:         "library.db",
		PasswordHasher: "sha256",
		StrictStatus:   true,
		CacheMaxAge:    300,
		LogLevel:       logrus.InfoLevel,
		LogFormat:      "json",
		CORSOrigins:    []string{"*"},
	}
}

// Load reads .env files (if present) into the environment without
// overriding variables that are already set, then builds a Config.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return Config{}, errors.Wrapf(err, "load %s", f)
			}
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config using lookup for every variable.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := defaults()
	get := func(key string) (string, bool) {
		v, ok := lookup(envPrefix + key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("ADDR"); ok {
		cfg.Addr = v
	}
	if v, ok := get("DB"); ok {
		cfg.DBPath = v
	}
	if v, ok := get("JWT_SECRET"); ok {
		cfg.JWTSecret = []byte(v)
	}
	if v, ok := get("PASSWORD_HASHER"); ok {
		v = strings.ToLower(v)
		if v != "sha256" && v != "bcrypt" {
			return Config{}, errors.Errorf("%sPASSWORD_HASHER: unknown hasher %q", envPrefix, v)
		}
		cfg.PasswordHasher = v
	}
	if v, ok := get("STRICT_STATUS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, errors.Wrapf(err, "%sSTRICT_STATUS", envPrefix)
		}
		cfg.StrictStatus = b
	}
	if v, ok := get("CACHE_MAX_AGE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, errors.Errorf("%sCACHE_MAX_AGE: want a non-negative integer, got %q", envPrefix, v)
		}
		cfg.CacheMaxAge = n
	}
	if v, ok := get("LOG_LEVEL"); ok {
		lvl, err := logrus.ParseLevel(v)
		if err != nil {
			return Config{}, errors.Wrapf(err, "%sLOG_LEVEL", envPrefix)
		}
		cfg.LogLevel = lvl
	}
	if v, ok := get("LOG_FORMAT"); ok {
		v = strings.ToLower(v)
		if v != "json" && v != "text" {
			return Config{}, errors.Errorf("%sLOG_FORMAT: want json or text, got %q", envPrefix, v)
		}
		cfg.LogFormat = v
	}
	if v, ok := get("CORS_ORIGINS"); ok {
		var origins []string
		for _, p := range strings.Split(v, ",") {
			if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSOrigins = origins
	}
	return cfg, nil
}

// EnsureSecret fills JWTSecret with 32 random bytes when none is configured.
// It must run once at startup; regenerating the secret invalidates every
// token issued so far.
func (c *Config) EnsureSecret() error {
	if len(c.JWTSecret) > 0 {
		return nil
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return errors.Wrap(err, "generate signing secret")
	}
	c.JWTSecret = secret
	c.SecretGenerated = true
	return nil
}

// NewLogger builds the process logger.
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	if c.LogFormat == "text" {
		log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	} else {
		log.Formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "severity",
				logrus.FieldKeyMsg:   "message",
			},
		}
	}
	log.Out = os.Stdout
	log.SetLevel(c.LogLevel)
	return log
}
