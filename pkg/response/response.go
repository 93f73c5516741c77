package response

// Response represents the standard API response envelope
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success returns a success envelope wrapping the data
func Success(data interface{}) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// Error returns an error envelope wrapping the message
func Error(message string) Response {
	return Response{
		Success: false,
		Message: message,
	}
}

// ErrorCode returns an error envelope carrying a machine-readable code
// alongside the human message (e.g. MAINTENANCE_MODE)
func ErrorCode(code, message string) Response {
	return Response{
		Success: false,
		Code:    code,
		Message: message,
	}
}
