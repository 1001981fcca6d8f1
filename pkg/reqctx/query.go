// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package reqctx

import (
	"strings"
)

// ParseQuery splits a raw query string on "&" then the first "=" into a
// flat param map, the same naive way the phase machine this is modeled on
// builds its request summary: unparseable pairs (no "=") are dropped, only
// the first "=" in a pair is significant, and no percent-decoding is
// applied. This is deliberately not url.ParseQuery: the only params
// consumed downstream (backend_url, error) never contain characters that
// would need unescaping.
func ParseQuery(raw string) map[string]string {
	params := make(map[string]string)
	if raw == "" {
		return params
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		params[key] = value
	}
	return params
}
