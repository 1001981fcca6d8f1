// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package proxyutil

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/rs/dnscache"
)

// hostResolver is the subset of *dnscache.Resolver's API SocketAddrs needs,
// narrowed to an interface so tests can swap in a fake without touching
// real DNS.
type hostResolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// resolver backs real address enumeration with an in-process DNS cache,
// the same resolver shape the provider-proxy example wires into its
// dialer's DialContext.
var resolver hostResolver = &dnscache.Resolver{}

// SocketAddrs resolves a base URL to the "host:port" candidate list spec
// §4.1 phase 3 reads from Context.upstream_address, enumerating every A/AAAA
// record behind the host so the fail-to-connect retry phase (spec §4.1
// phase 7, §8 property 7) has real alternates to fall through to, not just
// a single repeated address. A URL with no explicit port gets the scheme's
// default port.
func SocketAddrs(ctx context.Context, rawURL string) ([]string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("proxyutil: invalid upstream URL %q: %w", rawURL, err)
	}
	if u.Host == "" {
		return nil, "", fmt.Errorf("proxyutil: upstream URL %q has no host", rawURL)
	}

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "https":
			port = "443"
		default:
			port = "80"
		}
	}

	ips, err := resolver.LookupHost(ctx, host)
	if err != nil {
		return nil, "", fmt.Errorf("proxyutil: resolve %q: %w", host, err)
	}

	addrs := make([]string, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, net.JoinHostPort(ip, port))
	}

	return addrs, host, nil
}

// PopAddr removes the first address from a comma-separated list, returning
// the remaining list and the address that was removed. Used by the
// fail-to-connect retry phase (spec §4.1 phase 7).
func PopAddr(addrList string) (remaining, popped string) {
	parts := strings.Split(addrList, ",")
	if len(parts) == 0 {
		return "", ""
	}
	popped = parts[0]
	if len(parts) == 1 {
		return "", popped
	}
	return strings.Join(parts[1:], ","), popped
}
