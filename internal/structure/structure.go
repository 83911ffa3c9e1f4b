package structure

import (
	"fmt"

	"github.com/goccy/go-json"
)

// ChoiceType enumerates the closed set of choice presentation variants.
type ChoiceType string

const (
	// ChoiceDefault is a plain branch option with no timing behavior.
	ChoiceDefault ChoiceType = "default"
	// ChoiceQTE is a quick-time event: the option flashes and must be taken fast.
	ChoiceQTE ChoiceType = "qte"
	// ChoiceTimed is a branch option that expires after Duration seconds.
	ChoiceTimed ChoiceType = "timed"
)

var choiceTypes = map[ChoiceType]struct{}{
	ChoiceDefault: {},
	ChoiceQTE:     {},
	ChoiceTimed:   {},
}

// Valid reports whether the value is a member of the closed variant set.
// The empty string is accepted and treated as ChoiceDefault.
func (t ChoiceType) Valid() bool {
	if t == "" {
		return true
	}
	_, ok := choiceTypes[t]
	return ok
}

// Choice is a labeled edge from one node to another, presented after the
// node's video completes.
type Choice struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	NextNodeID string     `json:"nextNodeId"`
	Type       ChoiceType `json:"type,omitempty"`
	Duration   float64    `json:"duration,omitempty"`
}

// Subtitle is one cue window, node-relative and inclusive on both bounds.
type Subtitle struct {
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Text      string  `json:"text"`
}

// VideoNode is one playable unit: a media locator plus outgoing choices and
// subtitle cues. A node with no choices is terminal.
type VideoNode struct {
	VideoURL  string     `json:"videoUrl"`
	Choices   []Choice   `json:"choices,omitempty"`
	Subtitles []Subtitle `json:"subtitles,omitempty"`
}

// Terminal reports whether completing this node ends the episode.
func (n VideoNode) Terminal() bool {
	return len(n.Choices) == 0
}

// SubtitleAt returns the subtitle visible at elapsed time t. When cue windows
// overlap, the first matching cue in declaration order wins; this keeps
// resolution deterministic rather than leaving overlap behavior arbitrary.
func (n VideoNode) SubtitleAt(t float64) (Subtitle, bool) {
	for _, sub := range n.Subtitles {
		if sub.StartTime <= t && t <= sub.EndTime {
			return sub, true
		}
	}
	return Subtitle{}, false
}

// Choice returns the outgoing choice with the given id.
func (n VideoNode) Choice(id string) (Choice, bool) {
	for _, choice := range n.Choices {
		if choice.ID == id {
			return choice, true
		}
	}
	return Choice{}, false
}

// Structure is the authored branching graph for one episode.
type Structure struct {
	StartNodeID string               `json:"startNodeId"`
	Nodes       map[string]VideoNode `json:"nodes"`
}

// Node returns the node with the given id.
func (s *Structure) Node(id string) (VideoNode, bool) {
	node, ok := s.Nodes[id]
	return node, ok
}

// Decode parses and integrity-checks a structure document. This is the single
// entry point for raw structure JSON; storage and transport layers treat the
// payload as opaque and rely on Decode to reject malformed graphs.
func Decode(data []byte) (*Structure, error) {
	var s Structure
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse structure: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Encode serializes a structure back to its wire form.
func (s *Structure) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode structure: %w", err)
	}
	return data, nil
}
