// Package structure models the branching episode graph.
//
// An episode is authored as a directed graph of video nodes. Each node plays
// one media asset and either ends the episode (no choices) or presents an
// ordered list of choices whose edges lead to further nodes. Structures are
// immutable at playback time: they are decoded and integrity-checked once at
// the storage boundary, and every consumer afterwards works with the typed
// form. Self-loops are legal and used for dead-end branches that replay the
// same node.
package structure
