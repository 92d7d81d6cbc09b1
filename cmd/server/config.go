package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/chatapp/chatapp/remote"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const defaultMaxUploadBytes = 4 * 1024 * 1024

type serverConfig struct {
	debug            bool
	listenAddr       string
	postgresDsn      string
	buntdbPath       string
	allowOrigins     string
	profileImageRoot string
	publicBaseUrl    string
	servicePath      string
	connectTimeout   time.Duration
	readTimeout      time.Duration
	maxUploadBytes   int
}

// Load .env from working directory if present. Real environment wins.
func loadDotEnv() {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warningln("Could not load .env file.")
	}
}

type envLookup = func(key string) (string, bool)

func serverConfigFromEnv(lookupEnv envLookup) (serverConfig, error) {
	get := func(key string, fallback string) string {
		if value, ok := lookupEnv(key); ok && value != "" {
			return value
		}
		return fallback
	}
	var missing []string
	require := func(key string) string {
		value, _ := lookupEnv(key)
		if value == "" {
			missing = append(missing, key)
		}
		return value
	}

	cfg := serverConfig{
		debug:            get("DEBUG", "") == "true",
		postgresDsn:      require("POSTGRES_DSN"),
		profileImageRoot: require("PROFILE_IMAGE_ROOT"),
		publicBaseUrl:    require("PUBLIC_BASE_URL"),
		buntdbPath:       get("BUNTDB_PATH", "kv.db"),
		allowOrigins:     get("ALLOW_ORIGINS", "*"),
		servicePath:      get("SERVICE_PATH", remote.DefaultServicePath),
	}
	if len(missing) != 0 {
		return serverConfig{}, fmt.Errorf("environment variables not set: %v", missing)
	}

	defaultAddr := ":8080"
	if cfg.debug {
		defaultAddr = "127.0.0.1:8080"
	}
	cfg.listenAddr = get("LISTEN_ADDR", defaultAddr)

	var err error
	cfg.connectTimeout, err = parsePositiveDuration(get("PROBE_CONNECT_TIMEOUT", remote.DefaultConnectTimeout.String()))
	if err != nil {
		return serverConfig{}, fmt.Errorf("PROBE_CONNECT_TIMEOUT: %w", err)
	}
	cfg.readTimeout, err = parsePositiveDuration(get("PROBE_READ_TIMEOUT", remote.DefaultReadTimeout.String()))
	if err != nil {
		return serverConfig{}, fmt.Errorf("PROBE_READ_TIMEOUT: %w", err)
	}
	cfg.maxUploadBytes, err = strconv.Atoi(get("MAX_UPLOAD_BYTES", strconv.Itoa(defaultMaxUploadBytes)))
	if err != nil || cfg.maxUploadBytes <= 0 {
		return serverConfig{}, fmt.Errorf("MAX_UPLOAD_BYTES: invalid value")
	}
	return cfg, nil
}

func parsePositiveDuration(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", d)
	}
	return d, nil
}

func (c serverConfig) imageLocator() *remote.ImageLocator {
	return &remote.ImageLocator{
		BaseUrl:        c.publicBaseUrl,
		ServicePath:    c.servicePath,
		ConnectTimeout: c.connectTimeout,
		ReadTimeout:    c.readTimeout,
	}
}
