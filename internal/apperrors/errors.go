package apperrors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError - основная структура ошибки приложения
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details,omitempty"`
	Err      error       `json:"-"`
	HTTPCode int         `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по коду, чтобы предопределённые переменные
// работали с errors.Is после WithDetails/WithError.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if !stderrors.As(target, &appErr) {
		return false
	}
	return e.Code == appErr.Code
}

// Конструктор
func New(code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: httpCode,
	}
}

// С цепочкой ошибок
func Wrap(err error, code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Err:      err,
		HTTPCode: httpCode,
	}
}

// WithDetails возвращает копию, чтобы не мутировать предопределённые переменные.
func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func (e *AppError) WithError(err error) *AppError {
	clone := *e
	clone.Err = err
	return &clone
}

// Для маршалинга в JSON
func (e *AppError) MarshalJSON() ([]byte, error) {
	type alias struct {
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}
	return json.Marshal(&alias{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

// Is - обертка над стандартной функцией errors.Is
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As - обертка над стандартной функцией errors.As
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Предопределенные ошибки
var (
	// Workflow
	ErrInvalidTransition      = New(CodeInvalidTransition, "Operation is not allowed in the current status", http.StatusConflict)
	ErrConcurrentModification = New(CodeConcurrentModification, "A competing update won the race, refresh and retry", http.StatusConflict)
	ErrAlreadyFinal           = New(CodeAlreadyFinal, "The final step is already reached", http.StatusConflict)

	// Квоты
	ErrQuotaExceeded      = New(CodeQuotaExceeded, "Respond limit reached, upgrade your plan", http.StatusForbidden)
	ErrNoActiveTariff     = New(CodeNoActiveTariff, "No active subscription", http.StatusForbidden)
	ErrTariffDeniesAccess = New(CodeTariffDeniesAccess, "Current tariff does not grant access to orders", http.StatusForbidden)

	// Расчёты
	ErrSettlementFailed = New(CodeSettlementFailed, "Payment step failed, record stays pending", http.StatusBadGateway)
	ErrRecordImmutable  = New(CodeRecordImmutable, "Reward record is terminal and cannot change", http.StatusConflict)

	// Ресурсы
	ErrOrderNotFound    = New(CodeOrderNotFound, "Order not found", http.StatusNotFound)
	ErrResponseNotFound = New(CodeResponseNotFound, "Response not found", http.StatusNotFound)
	ErrStepNotFound     = New(CodeStepNotFound, "Mediator step not found", http.StatusNotFound)
	ErrUserNotFound     = New(CodeUserNotFound, "User not found", http.StatusNotFound)

	// Валидация
	ErrValidationFailed = New(CodeValidationFailed, "Validation failed", http.StatusBadRequest)

	// Аутентификация
	ErrUnauthorized            = New(CodeUnauthorized, "Authentication required", http.StatusUnauthorized)
	ErrForbidden               = New(CodeForbidden, "Access denied", http.StatusForbidden)
	ErrInvalidToken            = New(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)
	ErrInvalidCredentials      = New(CodeInvalidCredentials, "Invalid email or password", http.StatusUnauthorized)
	ErrInsufficientPermissions = New(CodeInsufficientPermissions, "Insufficient permissions", http.StatusForbidden)
)

// Функции-помощники для создания ошибок с деталями
func ValidationError(details interface{}) *AppError {
	return ErrValidationFailed.WithDetails(details)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func InternalError(err error) *AppError {
	return Wrap(err, CodeInternalError, "Internal server error", http.StatusInternalServerError)
}

func NewBadRequestError(message string) *AppError {
	return New(CodeValidationFailed, message, http.StatusBadRequest)
}

func NewForbiddenError(message string) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden)
}

func NewUnauthorizedError(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}
