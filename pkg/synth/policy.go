package synth

import "fmt"

// Policy decides what happens to a new note when every voice is in use
type Policy int

const (
	// PolicyForget drops the new note
	PolicyForget Policy = iota
	// PolicyLowest steals the voice with the lowest frequency
	PolicyLowest
	// PolicyHighest steals the voice with the highest frequency
	PolicyHighest
	// PolicyOldest steals the voice that has been playing the longest
	PolicyOldest

	numPolicies
)

var policyIDs = [numPolicies]string{"forget", "lowest", "highest", "oldest"}

var policyNames = [numPolicies]string{
	"forget new note",
	"steal lowest voice",
	"steal highest voice",
	"steal oldest voice",
}

// Policies returns all policies in catalogue order
func Policies() []Policy {
	return []Policy{PolicyForget, PolicyLowest, PolicyHighest, PolicyOldest}
}

// String returns the short id of the policy
func (p Policy) String() string {
	if p < 0 || p >= numPolicies {
		return fmt.Sprintf("Policy(%d)", int(p))
	}
	return policyIDs[p]
}

// Name returns the human readable name
func (p Policy) Name() string {
	if p < 0 || p >= numPolicies {
		return "unknown"
	}
	return policyNames[p]
}

// ParsePolicy looks up a policy by its short id
func ParsePolicy(id string) (Policy, error) {
	for i, s := range policyIDs {
		if s == id {
			return Policy(i), nil
		}
	}
	return PolicyOldest, fmt.Errorf("unknown voice policy %q", id)
}
