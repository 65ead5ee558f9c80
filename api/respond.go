package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/UkralStul/car-reviews-service/internal/domain"
	"github.com/UkralStul/car-reviews-service/internal/logging"
)

// maxBodyBytes ограничивает размер тела запроса.
const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

// ErrorResponse - тело ответа для всех ошибок, кроме ошибок валидации.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// FieldError - одна ошибка поля в ответе 400.
type FieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

// validationBody группирует ошибки по полям: {"name": [{"code": ..., "message": ...}]}.
func validationBody(errs domain.ValidationErrors) map[string][]FieldError {
	body := make(map[string][]FieldError, len(errs))
	for _, e := range errs {
		body[e.Field] = append(body[e.Field], FieldError{Code: e.Code, Message: e.Message})
	}
	return body
}

// respondError переводит ошибку в HTTP-ответ и пишет её в лог.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.FromContext(r.Context())

	if errs, ok := domain.AsValidation(err); ok {
		logger.Debug("validation failed", "path", r.URL.Path, "error", err)
		writeJSON(w, r, http.StatusBadRequest, validationBody(errs))
		return
	}

	status, resp := http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal_error"}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, resp = http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"}
	case errors.Is(err, domain.ErrPermissionDenied):
		status, resp = http.StatusForbidden, ErrorResponse{Error: err.Error(), Code: "permission_denied"}
	case errors.Is(err, errBadRequest):
		status, resp = http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "bad_request"}
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request error",
			"path", r.URL.Path,
			"method", r.Method,
			"status", status,
			"error", err.Error(),
		)
	}
	writeJSON(w, r, status, resp)
}

// decode читает JSON-объект из тела запроса. Неизвестные поля игнорируются,
// поле неверного типа превращается в ошибку валидации этого поля.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(v)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return domain.ValidationErrors{
			domain.Invalid(typeErr.Field, domain.CodeInvalid, fmt.Sprintf("Expected a value of type %s.", typeErr.Type)),
		}
	}
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: request body is empty", errBadRequest)
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: request body exceeds %d bytes", errBadRequest, maxErr.Limit)
	}
	return fmt.Errorf("%w: malformed JSON: %v", errBadRequest, err)
}
