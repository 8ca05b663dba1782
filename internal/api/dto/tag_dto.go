package dto

// TagRequest payload for the tagging endpoint.
type TagRequest struct {
	Email string `json:"email"`
	Tag   string `json:"tag"`
}

// TagResponse standard envelope for the tagging endpoint.
type TagResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
