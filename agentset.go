package hivsim

// AgentSet is a membership container with O(1)
// add/remove/contains/iterate, optionally nested as a tree of named
// subsets that share members by reference (spec §3, §4.1). Mutations
// propagate upward on add (a member of a child is also a member of every
// ancestor) and downward on remove (removing from a parent removes from
// every descendant).
//
// Iteration order is insertion order, kept via a parallel slice alongside
// the membership map, satisfying the determinism contract in spec §5:
// given identical seeds, two runs must walk an AgentSet's members in the
// same sequence.
type AgentSet struct {
	Name     string
	parent   *AgentSet
	members  map[int]*Agent
	order    []int
	children map[string]*AgentSet
}

// NewAgentSet creates a root set with the given name. Use AddSubset to
// attach children.
func NewAgentSet(name string) *AgentSet {
	return &AgentSet{
		Name:     name,
		members:  make(map[int]*Agent),
		children: make(map[string]*AgentSet),
	}
}

// AddSubset attaches a new, currently-empty child set under this one and
// returns it.
func (s *AgentSet) AddSubset(name string) *AgentSet {
	child := NewAgentSet(name)
	child.parent = s
	s.children[name] = child
	return child
}

// Subset returns the named direct child, or nil if none exists.
func (s *AgentSet) Subset(name string) *AgentSet {
	return s.children[name]
}

// Add inserts agent into this set and every ancestor set. A no-op if the
// agent is already a member of this particular set.
func (s *AgentSet) Add(agent *Agent) {
	if _, ok := s.members[agent.ID]; ok {
		return
	}
	s.members[agent.ID] = agent
	s.order = append(s.order, agent.ID)
	if s.parent != nil {
		s.parent.Add(agent)
	}
}

// Remove deletes agent from this set and every descendant set. A no-op if
// the set does not contain the agent (spec §4.1).
func (s *AgentSet) Remove(agent *Agent) {
	if _, ok := s.members[agent.ID]; !ok {
		return
	}
	delete(s.members, agent.ID)
	for i, id := range s.order {
		if id == agent.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for _, child := range s.children {
		child.Remove(agent)
	}
}

// Contains reports set membership in O(1).
func (s *AgentSet) Contains(agent *Agent) bool {
	_, ok := s.members[agent.ID]
	return ok
}

// Get looks up a member by id in O(1).
func (s *AgentSet) Get(id int) (*Agent, bool) {
	a, ok := s.members[id]
	return a, ok
}

// Count returns the number of members.
func (s *AgentSet) Count() int {
	return len(s.members)
}

// Members returns the set's members in stable insertion order. The
// returned slice is a fresh copy; mutating it does not affect the set.
func (s *AgentSet) Members() []*Agent {
	out := make([]*Agent, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.members[id])
	}
	return out
}

// Iter calls fn for every member in stable insertion order. fn must not
// mutate this AgentSet; callers that need to add or remove members while
// iterating should snapshot via Members() first (design note in spec §9).
func (s *AgentSet) Iter(fn func(*Agent)) {
	for _, a := range s.Members() {
		fn(a)
	}
}
