package responses

// Envelope wraps every successful payload as {"data": ...}.
type Envelope struct {
	Data any `json:"data"`
}

// ErrorBody is the public shape of a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps ErrorBody as {"error": {...}}.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}
