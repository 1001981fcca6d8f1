// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package config

const (
	envEnableTLS = "ENABLE_TLS"
	envCACert    = "CA_CERT"
	envCert      = "CERT"
	envKey       = "KEY"
)

// TLS carries the PEM material for the mTLS hop between the forward and
// reverse proxy. All material arrives as PEM strings in configuration;
// nothing is read from disk inside the request path.
type TLS struct {
	Enabled bool
	CACert  string
	Cert    string
	Key     string
}

func loadTLS() TLS {
	return TLS{
		Enabled: getBool(envEnableTLS, false),
		CACert:  getString(envCACert, ""),
		Cert:    getString(envCert, ""),
		Key:     getString(envKey, ""),
	}
}
