package steps

import (
	"github.com/google/uuid"

	"stepagg/internal/domain"
)

// AssignIDs gives the event, and every meta-step above it, a fresh identifier
// when it has none. Identifiers set by other collaborators are left untouched.
func AssignIDs(event *domain.StepEvent) {
	AssignIDsWith(event, uuid.NewString)
}

// AssignIDsWith is AssignIDs with a caller supplied identifier source.
func AssignIDsWith(event *domain.StepEvent, newID func() string) {
	seen := make(map[*domain.StepEvent]struct{})
	for e := event; e != nil; e = e.Parent {
		if _, ok := seen[e]; ok {
			return
		}
		seen[e] = struct{}{}
		if e.ID == "" {
			e.ID = newID()
		}
	}
}
