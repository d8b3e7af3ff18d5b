package service

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
)

// ImplResponse is the status code and JSON body returned by a service method.
type ImplResponse struct {
	Code int
	Body any
}

func Response(code int, body any) ImplResponse {
	return ImplResponse{Code: code, Body: body}
}

func EncodeJSONResponse(w http.ResponseWriter, resp ImplResponse) error {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(resp.Code)
	if resp.Body == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(resp.Body)
}

func decodeJSONBody(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "malformed request body")
	}
	return nil
}
