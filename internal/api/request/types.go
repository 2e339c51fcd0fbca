package request

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// StoreRequest is the request body for POST /store
type StoreRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// EmailRequest is the request body for POST /addemail and POST /save-user-data
type EmailRequest struct {
	Email string `json:"email"`
}

// Decode reads a JSON body into v. An empty body leaves v at its zero value.
func Decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
