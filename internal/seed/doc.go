// Package seed populates an empty catalog with a small sample game and one
// playable episode, so a fresh install has something to stream.
package seed
