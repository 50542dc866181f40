package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
)

const maxBodySize = 10 << 20 // 10 MB, matching the JSON body limit of the public API

// readJSONBody decodes a JSON request body with a size limit, answering
// 400 itself on malformed input.
func readJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Invalid JSON format",
		})
		return errors.New("invalid JSON body")
	}
	return nil
}
