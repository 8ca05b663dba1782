package domain

// Contact is a CRM person record, keyed by email once resolved.
type Contact struct {
	ID    string
	Email string
	Name  string
}
