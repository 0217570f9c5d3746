package annotate

import "golang.org/x/net/html"

// SkipSet records subtree roots that are permanently ineligible. Entries are
// never removed; a detached member simply stops matching live nodes.
type SkipSet struct {
	members map[*html.Node]struct{}
}

// NewSkipSet returns an empty set.
func NewSkipSet() *SkipSet {
	return &SkipSet{members: make(map[*html.Node]struct{})}
}

// Add marks n and everything below it as ineligible.
func (s *SkipSet) Add(n *html.Node) {
	if n != nil {
		s.members[n] = struct{}{}
	}
}

// Covers reports whether n or any of its ancestors is a member.
func (s *SkipSet) Covers(n *html.Node) bool {
	for c := n; c != nil; c = c.Parent {
		if _, ok := s.members[c]; ok {
			return true
		}
	}
	return false
}

// Len returns the number of members.
func (s *SkipSet) Len() int {
	return len(s.members)
}
