package verify

import (
	"sort"

	"github.com/zulandar/incidentdesk/internal/models"
)

// ValidTransitions maps each message status to the statuses the verification
// workflow may move it to. Verified and Declined have no outgoing edges.
var ValidTransitions = map[models.MessageStatus][]models.MessageStatus{
	models.StatusNotConfirmed: {models.StatusVerifying, models.StatusDeclined},
	models.StatusNonVerified:  {models.StatusVerifying, models.StatusDeclined},
	models.StatusVerifying:    {models.StatusVerified, models.StatusDeclined},
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to models.MessageStatus) bool {
	for _, s := range ValidTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// sourcesOf returns, sorted, every status with an edge into to. The result
// is the expected set for a compare-and-swap on the status column.
func sourcesOf(to models.MessageStatus) []string {
	var out []string
	for from, targets := range ValidTransitions {
		for _, s := range targets {
			if s == to {
				out = append(out, string(from))
			}
		}
	}
	sort.Strings(out)
	return out
}
