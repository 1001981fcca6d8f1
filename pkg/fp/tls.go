// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package fp

import (
	"crypto/tls"

	"github.com/go-core-stack/l8-proxy-chain/pkg/config"
	"github.com/go-core-stack/l8-proxy-chain/pkg/tlsconfig"
)

// buildClientTLS builds the base client-side mTLS config the forward
// proxy presents to every reverse proxy it dials. ServerName is left
// blank here and set per-connection in forwardOnce, since the bound
// reverse proxy's SNI is only known once a session's upstream_sni scratch
// value is resolved (spec §4.4).
func buildClientTLS(cfg config.TLS) (*tls.Config, error) {
	return tlsconfig.Client(cfg.CACert, cfg.Cert, cfg.Key, "")
}
