// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package config

const (
	envInfluxURL   = "INFLUXDB_URL"
	envInfluxOrg   = "INFLUXDB_ORG"
	envInfluxBkt   = "INFLUXDB_BUCKET"
	envInfluxToken = "INFLUXDB_AUTH_TOKEN"
)

// Telemetry carries the InfluxDB push settings shared by both nodes. A zero
// value (empty URL) disables the InfluxDB sink; the Prometheus registry is
// always enabled regardless.
type Telemetry struct {
	InfluxURL   string
	InfluxOrg   string
	InfluxBkt   string
	InfluxToken string
}

func loadTelemetry() Telemetry {
	return Telemetry{
		InfluxURL:   getString(envInfluxURL, ""),
		InfluxOrg:   getString(envInfluxOrg, ""),
		InfluxBkt:   getString(envInfluxBkt, ""),
		InfluxToken: getString(envInfluxToken, ""),
	}
}

// Enabled reports whether InfluxDB push is configured.
func (t Telemetry) Enabled() bool {
	return t.InfluxURL != "" && t.InfluxBkt != ""
}
