// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	envNtorServerID     = "NTOR_SERVER_ID"
	envNtorStaticSecret = "NTOR_STATIC_SECRET"
	envBackendURL       = "BACKEND_URL"
	envFPBaseURL        = "FP_BASE_URL"

	ntorSecretLen = 32
)

// RPConfig carries the immutable-after-construction settings for the
// reverse proxy node: the nTor server identity/secret, the JWT signing
// material shared with the forward proxy, and the backend to reconstruct
// requests against.
type RPConfig struct {
	ListenAddr string
	ListenPort string

	LogLevel    string
	LogFormat   string
	LogPath     string
	LogFilename string

	TLS TLS

	JWTKey        []byte
	JWTExpInHours int64

	NtorServerID     string
	NtorStaticSecret []byte

	BackendURL string
	FPBaseURL  string

	SessionSweepInterval time.Duration
	MaxBodyBytes         int64
	UpstreamTimeout      time.Duration

	ServerTimeout           time.Duration
	ServerIdleTimeout       time.Duration
	GracefulShutdownTimeout time.Duration

	Telemetry Telemetry
}

// LoadRP reads reverse-proxy configuration from the environment and
// validates the required values.
func LoadRP() (RPConfig, error) {
	jwtKey := strings.TrimSpace(getString(envJWTKey, ""))
	if jwtKey == "" {
		return RPConfig{}, errors.New("JWT_VIRTUAL_CONNECTION_KEY is required")
	}

	serverID := strings.TrimSpace(getString(envNtorServerID, ""))
	if serverID == "" {
		return RPConfig{}, errors.New("NTOR_SERVER_ID is required")
	}

	staticSecret := getString(envNtorStaticSecret, "")
	if len(staticSecret) != ntorSecretLen {
		return RPConfig{}, fmt.Errorf("NTOR_STATIC_SECRET must be %d bytes, got %d", ntorSecretLen, len(staticSecret))
	}

	backendURL := strings.TrimSpace(getString(envBackendURL, ""))
	if backendURL == "" {
		return RPConfig{}, errors.New("BACKEND_URL is required")
	}

	cfg := RPConfig{
		ListenAddr:  getString(envListenAddr, defaultListenAddr),
		ListenPort:  getString(envListenPort, defaultListenPort),
		LogLevel:    strings.ToLower(getString(envLogLevel, defaultLogLevel)),
		LogFormat:   strings.ToLower(getString(envLogFormat, defaultLogFormat)),
		LogPath:     getString(envLogPath, defaultLogPath),
		LogFilename: getString(envLogFilename, "reverse-proxy.log"),

		TLS: loadTLS(),

		JWTKey:        []byte(jwtKey),
		JWTExpInHours: getInt(envJWTExpHours, defaultJWTExpHours),

		NtorServerID:     serverID,
		NtorStaticSecret: []byte(staticSecret),

		BackendURL: backendURL,
		FPBaseURL:  getString(envFPBaseURL, ""),

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

// Addr returns the "host:port" the reverse proxy should bind.
func (c RPConfig) Addr() string {
	return c.ListenAddr + ":" + c.ListenPort
}
