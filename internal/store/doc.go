// Package store manages Interlude persistence backed by SQLite.
//
// One Store owns the catalog (games, characters, episodes, achievements),
// user accounts, per-(user, episode) playback progress, and per-user
// settings. Episode structures are validated through the structure package
// before they are written; afterwards the column is opaque JSON. Progress
// writes are single-statement upserts so callers never distinguish create
// from update, and foreign keys cascade so deleting a user removes their
// progress, settings, and achievement records in one operation.
package store
