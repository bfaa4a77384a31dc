package hivsim

// Relationship is an unordered pair of agents sharing one bond type, a
// remaining duration, and an accumulated sex-act count (spec §3, §4.2).
// Two relationships with the same unordered pair and bond type must never
// coexist — Population enforces that at creation time.
type Relationship struct {
	Agent1       *Agent
	Agent2       *Agent
	BondType     string
	Duration     int
	TotalSexActs int
	terminated   bool
}

// NewRelationship creates an active relationship between the two agents and
// bonds them bidirectionally (spec §4.2 invariant: "while active, both
// endpoints carry the relationship in their partner mapping for that bond
// type"). It does not register the relationship with a Population; callers
// (Population.formRelationship) own that.
func NewRelationship(a1, a2 *Agent, bondType string, duration int) *Relationship {
	rel := &Relationship{Agent1: a1, Agent2: a2, BondType: bondType, Duration: duration}
	a1.bond(a2, bondType, rel)
	a2.bond(a1, bondType, rel)
	return rel
}

// Other returns the endpoint of the relationship that isn't agent.
func (r *Relationship) Other(agent *Agent) *Agent {
	if r.Agent1 == agent {
		return r.Agent2
	}
	return r.Agent1
}

// Active reports whether the relationship is still live.
func (r *Relationship) Active() bool {
	return !r.terminated
}

// Progress advances the relationship's state machine by one step (spec
// §4.2). If force is true the relationship terminates unconditionally;
// otherwise its remaining duration is decremented and it terminates once
// that reaches zero. On termination it unbonds both endpoints itself.
// Returns true if this call caused termination — the caller (Population)
// is responsible for dropping the relationship from its bookkeeping,
// exactly once, when this returns true.
func (r *Relationship) Progress(force bool) bool {
	if r.terminated {
		return false
	}
	if force {
		r.terminated = true
	} else {
		r.Duration--
		if r.Duration <= 0 {
			r.terminated = true
		}
	}
	if r.terminated {
		r.Agent1.unbond(r.Agent2, r.BondType, r)
		r.Agent2.unbond(r.Agent1, r.BondType, r)
	}
	return r.terminated
}
