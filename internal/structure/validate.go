package structure

import (
	"errors"
	"fmt"
	"sort"
)

// ErrIntegrity marks content-authoring defects: a broken graph is fatal to
// the session that hits it and must be fixed in the content, never retried.
var ErrIntegrity = errors.New("structure integrity")

// Validate checks graph well-formedness: the start node must exist, every
// choice edge must resolve to a node, choice ids must be unique within their
// node, choice types must belong to the closed variant set, and subtitle
// windows must be ordered. Validation runs at write time so playback never
// discovers a dangling edge mid-traversal.
func (s *Structure) Validate() error {
	if s.StartNodeID == "" {
		return fmt.Errorf("%w: startNodeId is empty", ErrIntegrity)
	}
	if len(s.Nodes) == 0 {
		return fmt.Errorf("%w: structure has no nodes", ErrIntegrity)
	}
	if _, ok := s.Nodes[s.StartNodeID]; !ok {
		return fmt.Errorf("%w: start node %q not present in nodes", ErrIntegrity, s.StartNodeID)
	}

	for _, nodeID := range sortedNodeIDs(s.Nodes) {
		node := s.Nodes[nodeID]
		if err := validateNode(s, nodeID, node); err != nil {
			return err
		}
	}
	return nil
}

func validateNode(s *Structure, nodeID string, node VideoNode) error {
	if node.VideoURL == "" {
		return fmt.Errorf("%w: node %q has no video url", ErrIntegrity, nodeID)
	}

	seen := make(map[string]struct{}, len(node.Choices))
	for i, choice := range node.Choices {
		if choice.ID == "" {
			return fmt.Errorf("%w: node %q choice %d has no id", ErrIntegrity, nodeID, i)
		}
		if _, dup := seen[choice.ID]; dup {
			return fmt.Errorf("%w: node %q has duplicate choice id %q", ErrIntegrity, nodeID, choice.ID)
		}
		seen[choice.ID] = struct{}{}

		if !choice.Type.Valid() {
			return fmt.Errorf("%w: node %q choice %q has unknown type %q", ErrIntegrity, nodeID, choice.ID, choice.Type)
		}
		if choice.Type == ChoiceTimed && choice.Duration <= 0 {
			return fmt.Errorf("%w: node %q timed choice %q needs a positive duration", ErrIntegrity, nodeID, choice.ID)
		}
		if _, ok := s.Nodes[choice.NextNodeID]; !ok {
			return fmt.Errorf("%w: node %q choice %q targets missing node %q", ErrIntegrity, nodeID, choice.ID, choice.NextNodeID)
		}
	}

	for i, sub := range node.Subtitles {
		if sub.StartTime < 0 || sub.EndTime < sub.StartTime {
			return fmt.Errorf("%w: node %q subtitle %d has invalid window [%v, %v]", ErrIntegrity, nodeID, i, sub.StartTime, sub.EndTime)
		}
	}
	return nil
}

// Unreachable returns the ids of nodes that no path from the start node can
// visit. Unreachable nodes are reported rather than rejected: they are dead
// content, not a traversal hazard.
func (s *Structure) Unreachable() []string {
	visited := make(map[string]struct{}, len(s.Nodes))
	stack := []string{s.StartNodeID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, done := visited[id]; done {
			continue
		}
		visited[id] = struct{}{}
		for _, choice := range s.Nodes[id].Choices {
			stack = append(stack, choice.NextNodeID)
		}
	}

	var unreachable []string
	for _, id := range sortedNodeIDs(s.Nodes) {
		if _, ok := visited[id]; !ok {
			unreachable = append(unreachable, id)
		}
	}
	return unreachable
}

func sortedNodeIDs(nodes map[string]VideoNode) []string {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
