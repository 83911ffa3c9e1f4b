// Package player implements the playback traversal engine for branching
// episodes: a per-session state machine that walks the video-node graph,
// resolves subtitles, and commits progress through a persistence gateway.
//
// The engine is strictly sequential within a session. Transitions follow a
// commit-then-advance rule: a choice is persisted before the session moves to
// the next node, so the in-memory cursor and the stored cursor never diverge.
// While a commit is outstanding, further input is rejected rather than
// queued, which collapses rapid duplicate input to exactly one accepted
// transition per decision point.
//
// Each (user, episode) pair is assumed to have a single active session;
// nothing here coordinates across processes.
package player
