package utils

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cafe-pos/internal/models"
)

const dateLayout = "2006-01-02"

// ParseDateRange reads ?from=YYYY-MM-DD&to=YYYY-MM-DD. Missing bounds default to the last
// defaultDays days; "to" is inclusive and returned as the start of the following day.
func ParseDateRange(r *http.Request, defaultDays int, now time.Time) (time.Time, time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := today.AddDate(0, 0, 1)
	from := today.AddDate(0, 0, -defaultDays+1)

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, models.NewValidationError("from", fmt.Sprintf("expected %s", dateLayout))
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, models.NewValidationError("to", fmt.Sprintf("expected %s", dateLayout))
		}
		to = t.AddDate(0, 0, 1)
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, models.NewValidationError("from", "must not be after to")
	}
	return from, to, nil
}

// QueryInt reads an integer query parameter, returning def when absent or malformed.
func QueryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
