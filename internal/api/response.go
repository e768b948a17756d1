package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dafoe17/retail-platform-backend/internal/pkg/apperr"
	"github.com/rs/zerolog/log"
)

type Response struct {
	Data any `json:"data,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Fields  any    `json:"fields,omitempty"`
}

type ResponseError struct {
	Error ErrorBody `json:"error"`
}

// ErrRateLimited 不屬於領域錯誤, 只在 api 層出現
var ErrRateLimited = apperr.New(apperr.KindConflict, "rate_limited", "too many requests")

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("encode response failed")
	}
}

func SuccessJSON(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{Data: data})
}

func CreatedJSON(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// StatusOf kind -> http status
func StatusOf(err error) int {
	if errors.Is(err, ErrRateLimited) {
		return http.StatusTooManyRequests
	}
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

/*
ErrorJSON 依錯誤種類回應.
未分類的錯誤一律回 internal_error, 原始錯誤只寫 log 不回給 client.
*/
func ErrorJSON(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	e, ok := apperr.As(err)
	if !ok || status == http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("url", r.URL.String()).
			Msg("request failed")
		e = apperr.ErrInternal
	}
	WriteJSON(w, status, ResponseError{Error: ErrorBody{Code: e.Code, Message: e.Message}})
}

// ValidationJSON 422, 附上欄位錯誤
func ValidationJSON(w http.ResponseWriter, message string, fields map[string]string) {
	WriteJSON(w, http.StatusUnprocessableEntity, ResponseError{Error: ErrorBody{
		Code:    apperr.ErrValidation.Code,
		Message: message,
		Fields:  fields,
	}})
}
