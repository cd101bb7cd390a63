package v1

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tinoosan/ledgerd/internal/ledger"
)

// pathID parses the {id} URL param, writing 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid "+what+" id")
		return uuid.Nil, false
	}
	return id, true
}

// parseTime accepts RFC 3339 timestamps and plain dates (taken as UTC midnight).
func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// parseDate reads a calendar date. A full timestamp contributes the date
// on its own clock, so 2023-06-01T00:30:00+02:00 is June 1.
func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if t, err = time.Parse(time.DateOnly, raw); err != nil {
			return time.Time{}, err
		}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// queryTime reads an optional time query param. ok is false after a 400 was written.
func queryTime(w http.ResponseWriter, r *http.Request, name string) (t *time.Time, ok bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, true
	}
	v, err := parseTime(raw)
	if err != nil {
		badRequest(w, "invalid "+name)
		return nil, false
	}
	return &v, true
}

// requiredRange reads start and end; both must be present.
func requiredRange(w http.ResponseWriter, r *http.Request) (start, end time.Time, ok bool) {
	s, ok := queryTime(w, r, "start")
	if !ok {
		return
	}
	e, ok := queryTime(w, r, "end")
	if !ok {
		return
	}
	if s == nil || e == nil {
		badRequest(w, "start and end are required")
		return start, end, false
	}
	return *s, *e, true
}

func queryPage(w http.ResponseWriter, r *http.Request) (ledger.Page, bool) {
	var p ledger.Page
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(w, "invalid limit")
			return p, false
		}
		p.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(w, "invalid offset")
			return p, false
		}
		p.Offset = n
	}
	return p.Normalize(), true
}

func wantsText(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("format"), "text")
}
