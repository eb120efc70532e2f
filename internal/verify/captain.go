package verify

import (
	"context"
	"fmt"

	"github.com/zulandar/incidentdesk/internal/config"
	"github.com/zulandar/incidentdesk/internal/fault"
	"github.com/zulandar/incidentdesk/internal/models"
	"github.com/zulandar/incidentdesk/internal/store"
)

// CaptainPolicy decides what Begin does when a barangay has no captain.
type CaptainPolicy int

const (
	// RequireCaptain fails Begin with fault.ErrNoCaptainConfigured.
	RequireCaptain CaptainPolicy = iota
	// AllowMissingCaptain creates the request with no name or phone.
	AllowMissingCaptain
)

func (p CaptainPolicy) String() string {
	if p == AllowMissingCaptain {
		return config.PolicyAllowMissing
	}
	return config.PolicyRequire
}

// ParseCaptainPolicy maps the configuration value to a policy.
func ParseCaptainPolicy(s string) (CaptainPolicy, error) {
	switch s {
	case config.PolicyRequire, "":
		return RequireCaptain, nil
	case config.PolicyAllowMissing:
		return AllowMissingCaptain, nil
	}
	return RequireCaptain, fmt.Errorf("verify: unknown captain policy %q", s)
}

// CaptainFor returns the barangay captain for barangay. When several are
// on file the oldest entry wins.
func (c *Coordinator) CaptainFor(ctx context.Context, barangay string) (*models.Contact, error) {
	contacts, err := c.stores.Contacts.List(ctx, store.Filter{
		"barangay": barangay,
		"agency":   string(models.AgencyBarangayCaptain),
	})
	if err != nil {
		return nil, fmt.Errorf("verify: find captain for %s: %w", barangay, err)
	}
	if len(contacts) == 0 {
		return nil, fault.New(fault.ErrNoCaptainConfigured, "no barangay captain configured for %q", barangay)
	}
	return &contacts[0], nil
}

// ConfirmationPrompt builds the SMS sent to the captain. An empty name
// addresses the office instead of a person.
func ConfirmationPrompt(captainName, body, barangay string) string {
	if captainName == "" {
		captainName = "Barangay Captain"
	}
	return fmt.Sprintf("Good day %s, an incident was reported in %s: \"%s\". Reply YES to confirm or NO if this report is not accurate.",
		captainName, barangay, body)
}
