package dto

// RelayError envelope returned when the forward attempt itself fails.
type RelayError struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}
