package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Response bodies follow the platform API: a top level "detail" (and optional
// "code") for request level failures, {field: [messages]} for validation.
const (
	detailBadCredentials    = "No active account found with the given credentials"
	detailTokenInvalid      = "Token is invalid or expired"
	detailNotAuthenticated  = "Authentication credentials were not provided."
	detailGivenTokenInvalid = "Given token not valid for any token type"
	detailForbidden         = "You do not have permission to perform this action."
	detailMalformed         = "JSON parse error."

	codeTokenNotValid = "token_not_valid"
)

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("write response")
	}
}

func writeDetail(w http.ResponseWriter, statusCode int, detail, code string) {
	body := map[string]string{"detail": detail}
	if code != "" {
		body["code"] = code
	}
	writeJSON(w, statusCode, body)
}

// fieldErrors collects validation messages per request field.
type fieldErrors map[string][]string

func (f fieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	return json.NewDecoder(r.Body).Decode(v)
}
