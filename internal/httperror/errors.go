package httperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cheonmabigo/fintext-nlu-go/internal/exaone"
	"github.com/cheonmabigo/fintext-nlu-go/internal/pipeline"
	"github.com/cheonmabigo/fintext-nlu-go/internal/session"
)

// ErrorCode 는 API 오류 코드다.
type ErrorCode string

const (
	// ErrorCodeInternal 는 내부 오류 코드다.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrorCodeValidation 는 검증 오류 코드다.
	ErrorCodeValidation ErrorCode = "VALIDATION_ERROR"
	// ErrorCodeUnauthorized 는 인증 오류 코드다.
	ErrorCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrorCodeHTTPRateLimit 는 요청 제한 오류 코드다.
	ErrorCodeHTTPRateLimit ErrorCode = "HTTP_RATE_LIMIT"
	// ErrorCodeNetwork 는 모델 엔드포인트 네트워크 오류 코드다.
	ErrorCodeNetwork ErrorCode = "NETWORK_ERROR"
	// ErrorCodeModelUnavailable 는 모델 사용 불가 코드다.
	ErrorCodeModelUnavailable ErrorCode = "MODEL_UNAVAILABLE"
	// ErrorCodeModelTimeout 는 모델 타임아웃 코드다.
	ErrorCodeModelTimeout ErrorCode = "MODEL_TIMEOUT"
	// ErrorCodeParsing 는 응답 파싱 오류 코드다.
	ErrorCodeParsing ErrorCode = "PARSING_ERROR"
	// ErrorCodeBusy 는 처리 중 재진입 코드다.
	ErrorCodeBusy ErrorCode = "PROCESSING_IN_FLIGHT"
	// ErrorCodeSessionNotFound 는 세션 미존재 코드다.
	ErrorCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	// ErrorCodeInvalidInput 는 입력 오류 코드다.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrorCodeMissingField 는 필드 누락 코드다.
	ErrorCodeMissingField ErrorCode = "MISSING_FIELD"
)

// ErrorResponse 는 API 오류 응답 본문이다.
type ErrorResponse struct {
	ErrorCode string         `json:"error_code"`
	ErrorType string         `json:"error_type"`
	Message   string         `json:"message"`
	RequestID *string        `json:"request_id"`
	Details   map[string]any `json:"details"`
}

// Error 는 내부 표준 오류 타입이다.
type Error struct {
	Code    ErrorCode
	Status  int
	Type    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

// Response 는 오류를 HTTP 응답으로 변환한다.
func Response(err error, requestID string) (int, ErrorResponse) {
	apiErr := FromError(err)
	if apiErr == nil {
		apiErr = NewInternalError("unknown error")
	}

	var requestIDPtr *string
	if requestID != "" {
		requestIDPtr = &requestID
	}

	return apiErr.Status, ErrorResponse{
		ErrorCode: string(apiErr.Code),
		ErrorType: apiErr.Type,
		Message:   apiErr.Message,
		RequestID: requestIDPtr,
		Details:   apiErr.Details,
	}
}

// FromError 는 오류를 내부 오류 타입으로 변환한다.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	if errors.Is(err, pipeline.ErrBusy) {
		return NewBusy()
	}

	if errors.Is(err, session.ErrSessionNotFound) {
		return NewSessionNotFound("")
	}

	if errors.Is(err, exaone.ErrModelRequest) {
		return NewModelError(err.Error())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewModelTimeout("model request timed out")
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return NewValidationError(err)
	}

	return NewInternalError(err.Error())
}

// NewInternalError 는 내부 오류를 생성한다.
func NewInternalError(message string) *Error {
	return &Error{
		Code:    ErrorCodeInternal,
		Status:  http.StatusInternalServerError,
		Type:    "InternalError",
		Message: message,
	}
}

// NewValidationError 는 검증 오류를 생성한다.
func NewValidationError(err error) *Error {
	return &Error{
		Code:    ErrorCodeValidation,
		Status:  http.StatusUnprocessableEntity,
		Type:    "ValidationError",
		Message: "Input validation failed",
		Details: validationDetails(err),
	}
}

// NewMissingField 는 누락 필드 오류를 생성한다.
func NewMissingField(field string) *Error {
	return &Error{
		Code:    ErrorCodeMissingField,
		Status:  http.StatusBadRequest,
		Type:    "MissingFieldError",
		Message: fmt.Sprintf("Field '%s' required", field),
		Details: map[string]any{"field": field},
	}
}

// NewInvalidInput 는 입력 오류를 생성한다.
func NewInvalidInput(message string) *Error {
	return &Error{
		Code:    ErrorCodeInvalidInput,
		Status:  http.StatusBadRequest,
		Type:    "InvalidInputError",
		Message: message,
	}
}

// NewUnauthorized 는 인증 오류를 생성한다.
func NewUnauthorized(details map[string]any) *Error {
	return &Error{
		Code:    ErrorCodeUnauthorized,
		Status:  http.StatusUnauthorized,
		Type:    "UnauthorizedError",
		Message: "Invalid API key",
		Details: details,
	}
}

// NewRateLimitExceeded 는 요청 제한 오류를 생성한다.
func NewRateLimitExceeded(details map[string]any) *Error {
	return &Error{
		Code:    ErrorCodeHTTPRateLimit,
		Status:  http.StatusTooManyRequests,
		Type:    "HTTPRateLimitExceededError",
		Message: "Rate limit exceeded",
		Details: details,
	}
}

// NewBusy 는 재진입 거절 오류를 생성한다.
func NewBusy() *Error {
	return &Error{
		Code:    ErrorCodeBusy,
		Status:  http.StatusConflict,
		Type:    "ProcessingInFlightError",
		Message: "A request is already being processed",
	}
}

// NewModelError 는 모델 호출 오류를 생성한다. 재시도 가능하다는 의미로 503 을 쓴다.
func NewModelError(message string) *Error {
	return &Error{
		Code:    ErrorCodeModelUnavailable,
		Status:  http.StatusServiceUnavailable,
		Type:    "ModelUnavailableError",
		Message: message,
	}
}

// NewModelTimeout 는 모델 타임아웃 오류를 생성한다.
func NewModelTimeout(message string) *Error {
	return &Error{
		Code:    ErrorCodeModelTimeout,
		Status:  http.StatusGatewayTimeout,
		Type:    "ModelTimeoutError",
		Message: message,
	}
}

// NewSessionNotFound 는 세션 미존재 오류를 생성한다.
func NewSessionNotFound(sessionID string) *Error {
	message := "Session not found"
	details := map[string]any(nil)
	if sessionID != "" {
		message = fmt.Sprintf("Session '%s' not found", sessionID)
		details = map[string]any{"session_id": sessionID}
	}
	return &Error{
		Code:    ErrorCodeSessionNotFound,
		Status:  http.StatusNotFound,
		Type:    "SessionNotFoundError",
		Message: message,
		Details: details,
	}
}

func validationDetails(err error) map[string]any {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields = append(fields, strings.ToLower(fieldErr.Field()))
	}
	return map[string]any{"fields": fields}
}
