// Package handlers implements the JSON endpoints of the profit tracker API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/profit-tracker/internal/api/middleware"
	"github.com/dvloznov/profit-tracker/internal/store"
)

const dateLayout = "2006-01-02"

// decodeJSON rejects unknown fields so typos in bucket names and the like
// surface as 400s.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// writeStoreError maps repository errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, log zerolog.Logger, err error, what string) {
	if errors.Is(err, store.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, what+" not found")
		return
	}
	log.Error().Err(err).Msg("Failed to access " + what)
	middleware.WriteError(w, http.StatusInternalServerError, "Failed to access "+what)
}
