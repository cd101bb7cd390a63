package v1

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tinoosan/ledgerd/internal/errs"
	"github.com/tinoosan/ledgerd/internal/ledger"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	maxIdempotencyKey = 255
)

func hashBytes(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// captureWriter tees the response to the client and keeps a copy.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *captureWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// idempotent makes a POST replayable under the Idempotency-Key header.
// A repeat of the same key and body returns the stored response with 200;
// the same key with a different body is a 409. Only 2xx responses are
// stored, so a failed request can be retried under its key. Requests without
// the header, or a server without a store, pass straight through.
func (s *Server) idempotent(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if key == "" || s.idem == nil {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKey {
				badRequest(w, "Idempotency-Key too long")
				return
			}
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err != nil {
				badRequest(w, "invalid body: "+err.Error())
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			h := hashBytes(body)

			prev, err := s.idem.GetIdempotency(r.Context(), scope, key)
			switch {
			case err == nil:
				if prev.BodyHash != h {
					writeErr(w, http.StatusConflict, "idempotency key reused with a different body", "idempotency_mismatch")
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set(replayedHeader, "true")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(prev.Payload)
				return
			case !errors.Is(err, errs.ErrNotFound):
				s.writeServiceErr(w, r, errs.Upstream("idempotency lookup", err))
				return
			}

			rw := &captureWriter{ResponseWriter: w}
			next.ServeHTTP(rw, r)
			if rw.status < 200 || rw.status >= 300 {
				return
			}
			rec := ledger.IdempotencyRecord{
				Scope:     scope,
				Key:       key,
				BodyHash:  h,
				Status:    rw.status,
				Payload:   rw.buf.Bytes(),
				CreatedAt: time.Now().UTC(),
			}
			if err := s.idem.SaveIdempotency(r.Context(), rec); err != nil {
				s.log.WarnContext(r.Context(), "idempotency record not stored", "scope", scope, "err", err)
			}
		})
	}
}
