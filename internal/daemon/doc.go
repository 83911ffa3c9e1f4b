// Package daemon assembles the long-running server process: it opens the
// store, builds the notification hub and the HTTP API, and ties their
// lifecycles together with flock-based locking to prevent multiple instances
// sharing one database.
package daemon
