package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Коды ошибок валидации.
const (
	CodeRequired             = "required"
	CodeTooShort             = "too_short"
	CodeTooLong              = "too_long"
	CodeDuplicateName        = "duplicate_name"
	CodeEmptyEmail           = "empty_email"
	CodeInvalidEmail         = "invalid_email"
	CodeNotPositive          = "not_positive"
	CodeEndBeforeRelease     = "end_before_release"
	CodeCountryNotFound      = "country_not_found"
	CodeManufacturerNotFound = "manufacturer_not_found"
	CodeCarNotFound          = "car_not_found"
	CodeInvalid              = "invalid"
)

var (
	// ErrNotFound - запрошенная сущность не существует.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied - изменяющий запрос без валидного токена.
	ErrPermissionDenied = errors.New("permission denied")
)

// NotFoundError сообщает, какая именно сущность не найдена.
type NotFoundError struct {
	Kind Kind
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError - ошибка одного поля, которую может исправить клиент.
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func Invalid(field, code, message string) *ValidationError {
	return &ValidationError{Field: field, Code: code, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Code)
}

// ValidationErrors собирает ошибки по всем полям запроса.
type ValidationErrors []*ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Collect добавляет err в набор, если это ошибка валидации.
// Любую другую ошибку возвращает как есть, чтобы вызывающий прервал операцию.
func (errs *ValidationErrors) Collect(err error) error {
	if err == nil {
		return nil
	}
	var single *ValidationError
	if errors.As(err, &single) {
		*errs = append(*errs, single)
		return nil
	}
	var many ValidationErrors
	if errors.As(err, &many) {
		*errs = append(*errs, many...)
		return nil
	}
	return err
}

// Err возвращает nil для пустого набора.
func (errs ValidationErrors) Err() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// HasCode проверяет, есть ли в наборе ошибка с указанным полем и кодом.
func (errs ValidationErrors) HasCode(field, code string) bool {
	for _, e := range errs {
		if e.Field == field && e.Code == code {
			return true
		}
	}
	return false
}

// AsValidation извлекает ошибки валидации из цепочки err.
func AsValidation(err error) (ValidationErrors, bool) {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many, true
	}
	var single *ValidationError
	if errors.As(err, &single) {
		return ValidationErrors{single}, true
	}
	return nil, false
}
