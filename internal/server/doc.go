// Package server exposes the REST surface over the media services: account
// sync, catalog browsing, episode structures, playback progress, settings,
// and a websocket feed of progress-change events.
//
// Key responsibilities:
//   - Route wiring with per-request correlation IDs, CORS, and rate limiting.
//   - Mapping service sentinel errors onto HTTP status codes.
//   - Lifecycle: bind, serve in the background, drain on context cancel.
package server
