package types

type APIResponse struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Message string       `json:"message,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func SuccessResponse(data any, message string) APIResponse {
	return APIResponse{Success: true, Data: data, Message: message}
}

func ErrorResponse(message string, errs []FieldError) APIResponse {
	return APIResponse{Success: false, Message: message, Errors: errs}
}

type ListResponse[T any] struct {
	Items []T   `json:"items"`
	Count int64 `json:"count"`
}
