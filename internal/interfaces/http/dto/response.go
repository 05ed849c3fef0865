// Package dto defines the HTTP response envelope and the mapping from
// domain errors to status codes.
package dto

// Response is the standard API envelope.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo carries the machine-readable error code and a message.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta carries cursor pagination state. NextCursor is opaque; an empty
// value means the listing is exhausted.
type Meta struct {
	NextCursor string `json:"next_cursor,omitempty"`
	Count      int    `json:"count"`
}

// NewSuccessResponse wraps data in a success envelope.
func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewPageResponse wraps a page of items with its continuation cursor.
func NewPageResponse(data any, count int, nextCursor string) Response {
	return Response{
		Success: true,
		Data:    data,
		Meta:    &Meta{NextCursor: nextCursor, Count: count},
	}
}

// NewErrorResponse builds an error envelope.
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message},
	}
}
