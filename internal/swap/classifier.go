package swap

// Classifier decides whether a unit's shifts need the extra unit-head
// approval tier. The critical set comes from configuration, not code.
//
// Unknown unit codes classify as non-critical: a typo in a roster entry
// fails open toward the shorter approval path instead of blocking the swap
// on an approver that may not exist. This is a policy choice.
type Classifier struct {
	critical map[string]struct{}
}

func NewClassifier(criticalUnits []string) *Classifier {
	critical := make(map[string]struct{}, len(criticalUnits))
	for _, unit := range criticalUnits {
		critical[unit] = struct{}{}
	}
	return &Classifier{critical: critical}
}

func (c *Classifier) Classify(unitCode string) bool {
	_, ok := c.critical[unitCode]
	return ok
}
