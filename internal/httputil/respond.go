package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Shin107/Anisotropic-SNANA/internal/cosmoerr"
)

// WriteJSON writes v with the given status. v is encoded before the header
// is sent; a value that cannot be encoded (NaN, ±Inf) yields a 500.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(ErrorBody{Error: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// WriteError writes err as an ErrorBody. Kernel errors map to 422 and
// carry their kind; anything else uses status.
func WriteError(w http.ResponseWriter, status int, err error) {
	var ce *cosmoerr.Error
	if errors.As(err, &ce) {
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorBody{Error: err.Error(), Kind: ce.Kind.String()})
		return
	}
	WriteJSON(w, status, ErrorBody{Error: err.Error()})
}
