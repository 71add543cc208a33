package response

// Response is the envelope every API endpoint returns.
type Response struct {
	Status     string `json:"status"`      // "success" or "error"
	StatusCode int    `json:"status_code"` // HTTP status code
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Success wraps data in a success envelope.
func Success(statusCode int, data any) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error wraps an error message in an error envelope.
func Error(statusCode int, msg string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      msg,
	}
}
