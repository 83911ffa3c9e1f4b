// Package rest is the HTTP client the playback engine uses when it runs out
// of process from the server: episode fetch, progress read/commit, and
// settings access against the REST surface.
//
// The client maps 4xx responses onto the media package's sentinel errors so
// the session's retry policy treats a rejected commit the same whether the
// gateway is in-process or remote.
package rest
