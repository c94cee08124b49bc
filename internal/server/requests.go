package server

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// BroadcastRequest is the body of POST /topics/:name/broadcast.
type BroadcastRequest struct {
	Name    string `param:"name" json:"-" validate:"required,max=256"`
	// Payload may be empty; subscribers receive it as is.
	Payload string `json:"payload"`
	// Sender excludes the endpoint with this ID from delivery.
	Sender string `json:"sender"`
}

// TopicResponse describes one topic.
type TopicResponse struct {
	Name        string   `json:"name"`
	Exists      bool     `json:"exists"`
	Active      bool     `json:"active"`
	Subscribers []string `json:"subscribers"`
}

// ListResponse is the body of GET /topics.
type ListResponse struct {
	Topics []string `json:"topics"`
}
