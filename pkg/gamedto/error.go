package gamedto

// Error codes returned by the HTTP API.
const (
	CodeSessionNotFound = "session_not_found"
	CodeGameNotFound    = "game_not_found"
	CodeGameFinished    = "game_finished"
	CodeInvalidRequest  = "invalid_request"
	CodeConflict        = "conflict"
	CodeUnavailable     = "unavailable"
	CodeInternal        = "internal"
)

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "board service error"
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type SessionsResponse struct {
	Success  bool            `json:"success"`
	Sessions []*SessionState `json:"sessions"`
}
