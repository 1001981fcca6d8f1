// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package telemetry implements the per-request counter hook spec §4.6
// describes: four counters tagged with client_id, updated on a detached
// best-effort task after every completed request and never on the request
// path itself.
package telemetry

// Sink is the narrow interface the proxy phase machines depend on; it is
// the one external collaborator spec §1 allows telemetry to be.
type Sink interface {
	// IncRequest counts every completed request.
	IncRequest(clientID string)
	// IncSuccess counts a 200 /proxy response.
	IncSuccess(clientID string)
	// IncTunnelInitiated counts a 200 /init-tunnel response.
	IncTunnelInitiated(clientID string)
	// AddBytesTransferred adds request+response body bytes for a 200
	// /proxy response.
	AddBytesTransferred(clientID string, n int64)
}

// Update carries everything RecordRequest needs to know about one
// completed request to drive the four counters spec §4.6 names.
type Update struct {
	ClientID          string
	Path              string
	Status            int
	RequestBodyBytes  int64
	ResponseBodyBytes int64
}

// RecordRequest applies spec §4.6's rules for a completed request against
// sink: total_request always, total_success/total_tunnel_initiated/
// total_byte_transferred only on a 200 response to the matching path.
func RecordRequest(sink Sink, u Update) {
	sink.IncRequest(u.ClientID)

	if u.Status != 200 {
		return
	}

	switch u.Path {
	case "/proxy":
		sink.IncSuccess(u.ClientID)
		sink.AddBytesTransferred(u.ClientID, u.RequestBodyBytes+u.ResponseBodyBytes)
	case "/init-tunnel":
		sink.IncTunnelInitiated(u.ClientID)
	}
}
