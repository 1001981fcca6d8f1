// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package telemetry

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// InfluxSink pushes the same four counters as line protocol to an InfluxDB
// v2-style write endpoint. No InfluxDB client library is present in any
// complete example repo this project was built from, so this talks
// directly over net/http rather than introducing an unvetted dependency
// (see DESIGN.md).
type InfluxSink struct {
	WriteURL string
	Token    string
	Client   *http.Client
	Logger   zerolog.Logger
}

// NewInfluxSink builds the write URL from the InfluxDB org/bucket/URL
// triplet. Returns nil if url or bucket is empty, meaning InfluxDB push is
// disabled.
func NewInfluxSink(baseURL, org, bucket, token string, logger zerolog.Logger) *InfluxSink {
	if baseURL == "" || bucket == "" {
		return nil
	}

	q := url.Values{}
	q.Set("org", org)
	q.Set("bucket", bucket)
	q.Set("precision", "ns")

	return &InfluxSink{
		WriteURL: fmt.Sprintf("%s/api/v2/write?%s", baseURL, q.Encode()),
		Token:    token,
		Client:   &http.Client{Timeout: 5 * time.Second},
		Logger:   logger,
	}
}

func (s *InfluxSink) push(line string) {
	if s == nil {
		return
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, s.WriteURL, bytes.NewBufferString(line))
	if err != nil {
		s.Logger.Error().Err(err).Msg("build influxdb write request failed")
		return
	}
	req.Header.Set("Authorization", "Token "+s.Token)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := s.Client.Do(req)
	if err != nil {
		s.Logger.Error().Err(err).Msg("influxdb write failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		s.Logger.Error().Int("status", resp.StatusCode).Msg("influxdb write rejected")
	}
}

func (s *InfluxSink) IncRequest(clientID string) {
	s.push(fmt.Sprintf("total_request,client_id=%s value=1i", clientID))
}

func (s *InfluxSink) IncSuccess(clientID string) {
	s.push(fmt.Sprintf("total_success,client_id=%s value=1i", clientID))
}

func (s *InfluxSink) IncTunnelInitiated(clientID string) {
	s.push(fmt.Sprintf("total_tunnel_initiated,client_id=%s value=1i", clientID))
}

func (s *InfluxSink) AddBytesTransferred(clientID string, n int64) {
	s.push(fmt.Sprintf("total_byte_transferred,client_id=%s value=%di", clientID, n))
}
