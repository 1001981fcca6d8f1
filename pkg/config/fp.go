// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package config

import (
	"errors"
	"strings"
	"time"
)

const (
	envListenAddr       = "LISTEN_ADDRESS"
	envListenPort       = "LISTEN_PORT"
	envLogLevel         = "LOG_LEVEL"
	envLogFormat        = "LOG_FORMAT"
	envLogPath          = "LOG_PATH"
	envLogFilename      = "LOG_FILENAME"
	envJWTKey           = "JWT_VIRTUAL_CONNECTION_KEY"
	envJWTExpHours      = "JWT_EXP_IN_HOURS"
	envAuthAccessToken  = "AUTH_ACCESS_TOKEN"
	envAuthCertURL      = "AUTH_GET_CERTIFICATE_URL"
	envSweepInterval    = "SESSION_SWEEP_INTERVAL"
	envMaxBodyBytes     = "MAX_BODY_BYTES"
	envUpstreamTimeout  = "UPSTREAM_TIMEOUT"
	envServerReadWrite  = "SERVER_TIMEOUT"
	envServerIdle       = "SERVER_IDLE_TIMEOUT"
	envGracefulShutdown = "GRACEFUL_SHUTDOWN_TIMEOUT"

	defaultListenAddr  = "0.0.0.0"
	defaultListenPort  = "8443"
	defaultLogLevel    = "info"
	defaultLogFormat   = "json"
	defaultLogPath     = "console"
	defaultJWTExpHours = 24
)

// FPConfig carries the immutable-after-construction settings for the
// forward proxy node: JWT signing material, the auth-server cert lookup
// endpoint, and the ambient logging/server knobs.
type FPConfig struct {
	ListenAddr string
	ListenPort string

	LogLevel    string
	LogFormat   string
	LogPath     string
	LogFilename string

	TLS TLS

	JWTKey        []byte
	JWTExpInHours int64

	AuthAccessToken string
	AuthCertURL     string

	SessionSweepInterval time.Duration
	MaxBodyBytes         int64
	UpstreamTimeout      time.Duration

	ServerTimeout           time.Duration
	ServerIdleTimeout       time.Duration
	GracefulShutdownTimeout time.Duration

	Telemetry Telemetry
}

// LoadFP reads forward-proxy configuration from the environment and
// validates the required values.
func LoadFP() (FPConfig, error) {
	jwtKey := strings.TrimSpace(getString(envJWTKey, ""))
	if jwtKey == "" {
		return FPConfig{}, errors.New("JWT_VIRTUAL_CONNECTION_KEY is required")
	}

	authToken := strings.TrimSpace(getString(envAuthAccessToken, ""))
	if authToken == "" {
		return FPConfig{}, errors.New("AUTH_ACCESS_TOKEN is required")
	}

	certURL := strings.TrimSpace(getString(envAuthCertURL, ""))
	if certURL == "" {
		return FPConfig{}, errors.New("AUTH_GET_CERTIFICATE_URL is required")
	}

	cfg := FPConfig{
		ListenAddr:  getString(envListenAddr, defaultListenAddr),
		ListenPort:  getString(envListenPort, defaultListenPort),
		LogLevel:    strings.ToLower(getString(envLogLevel, defaultLogLevel)),
		LogFormat:   strings.ToLower(getString(envLogFormat, defaultLogFormat)),
		LogPath:     getString(envLogPath, defaultLogPath),
		LogFilename: getString(envLogFilename, "forward-proxy.log"),

		TLS: loadTLS(),

		JWTKey:        []byte(jwtKey),
		JWTExpInHours: getInt(envJWTExpHours, defaultJWTExpHours),

		AuthAccessToken: authToken,
		AuthCertURL:     certURL,

		SessionSweepInterval: getDuration(envSweepInterval, defaultSweepInterval),
		MaxBodyBytes:         getInt(envMaxBodyBytes, defaultMaxBodyBytes),
		UpstreamTimeout:      getDuration(envUpstreamTimeout, defaultUpstreamCall),

		ServerTimeout:           getDuration(envServerReadWrite, defaultServerTimeout),
		ServerIdleTimeout:       getDuration(envServerIdle, defaultServerIdle),
		GracefulShutdownTimeout: getDuration(envGracefulShutdown, defaultGracefulWindow),

		Telemetry: loadTelemetry(),
	}

	return cfg, nil
}

// Addr returns the "host:port" the forward proxy should bind.
func (c FPConfig) Addr() string {
	return c.ListenAddr + ":" + c.ListenPort
}
