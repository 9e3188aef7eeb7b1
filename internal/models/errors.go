package models

import (
	"errors"
	"fmt"
	"net/http"
)

// 错误码
const (
	ErrValidation       = "VALIDATION_ERROR"
	ErrAuthentication   = "AUTHENTICATION_ERROR"
	ErrAuthorization    = "AUTHORIZATION_ERROR"
	ErrNotFound         = "NOT_FOUND"
	ErrUnknownRecipient = "UNKNOWN_RECIPIENT"
	ErrOrphanComment    = "ORPHAN_COMMENT"
	ErrInternal         = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
	}
}

func NewAuthenticationError(message string) *AppError {
	return &AppError{
		Code:    ErrAuthentication,
		Message: message,
	}
}

func NewAuthorizationError(message string) *AppError {
	return &AppError{
		Code:    ErrAuthorization,
		Message: message,
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewUnknownRecipientError(userID interface{}) *AppError {
	return &AppError{
		Code:    ErrUnknownRecipient,
		Message: fmt.Sprintf("karma recipient %v does not exist", userID),
	}
}

// NewOrphanCommentError 表示评论数据结构已损坏（父评论缺失、重复 ID 或成环），属于服务端故障
func NewOrphanCommentError(commentID uint, parentID interface{}) *AppError {
	return &AppError{
		Code:    ErrOrphanComment,
		Message: fmt.Sprintf("comment %d references missing parent %v", commentID, parentID),
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// AsAppError 提取错误链上的 AppError；其他错误统一包装为内部错误
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err)
}

// IsCode reports whether err carries the given application error code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

var statusByCode = map[string]int{
	ErrValidation:       http.StatusBadRequest,
	ErrAuthentication:   http.StatusUnauthorized,
	ErrAuthorization:    http.StatusForbidden,
	ErrNotFound:         http.StatusNotFound,
	ErrUnknownRecipient: http.StatusUnprocessableEntity,
	ErrOrphanComment:    http.StatusInternalServerError,
	ErrInternal:         http.StatusInternalServerError,
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	if status, ok := statusByCode[AsAppError(err).Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
