// Package media implements the application services between the HTTP layer
// and the store: account sync, catalog management, playback progress, and
// user settings.
//
// Key responsibilities:
//   - Input validation ahead of persistence, including write-time integrity
//     checks on episode branching graphs.
//   - Translating store rows into response DTOs where the raw row is not the
//     right shape (episode detail with its decoded graph, game detail with
//     its episode list).
//   - Emitting progress-change events through the notify hub after each
//     successful commit.
//
// Services tag failures with the sentinel errors in errors.go so transport
// code can map them to status codes without string matching.
package media
