// Package websocket streams high-risk alerts to connected dashboard
// clients. A single hub fans filtered-selection alerts out to every
// subscriber.
package websocket
