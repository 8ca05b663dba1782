package domain

// Tag names accepted by the tagging endpoint. Each maps to an
// externally-assigned CRM tag id via configuration.
const (
	TagContractor = "contractor"
	TagDIY        = "diy"
	TagWaitlist   = "waitlist"
)

// TagNames returns the allowed tag names in the order used by
// validation messages.
func TagNames() []string {
	return []string{TagContractor, TagDIY, TagWaitlist}
}
