package httpserver

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ruteri/simple-artefact-registry/interfaces"
	"github.com/ruteri/simple-artefact-registry/metrics"
)

// Header constants used in HTTP requests and responses.
const (
	// AuthorizationHeader carries the bearer token: "bearer <token>".
	AuthorizationHeader = "Authorization"

	// BearerPrefix is the exact, lowercase scheme prefix of the Authorization header.
	BearerPrefix = "bearer "

	// AuthenticateHeader is set on every error response.
	AuthenticateHeader = "WWW-Authenticate"

	// AuthenticateChallenge identifies the registry as a bearer token realm.
	AuthenticateChallenge = `bearer realm="Simple Artefact Registry"`

	// ChunkSize is the number of bytes written and flushed at a time when serving an artefact.
	ChunkSize = 1024
)

// errPeerClosed marks a transfer that ended because the client went away.
var errPeerClosed = errors.New("peer closed connection")

// RequestError provides structured error information for HTTP responses.
// It includes both an HTTP status code and the underlying error.
type RequestError struct {
	// StatusCode is the HTTP status code to return.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error returns the error message from the underlying error.
func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// WriteError renders an error response: the status code as plain text body
// and the bearer challenge header, whatever the status.
func WriteError(w http.ResponseWriter, statusCode int) {
	h := w.Header()
	h.Del("Content-Length")
	h.Set(AuthenticateHeader, AuthenticateChallenge)
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	io.WriteString(w, strconv.Itoa(statusCode))
}

// ArtefactHandler serves a single artefact. Its route and store are fixed at
// construction and shared read-only by concurrent requests.
type ArtefactHandler struct {
	route   interfaces.Route
	store   interfaces.ArtefactStore
	metrics *metrics.ArtefactMetrics
	log     *slog.Logger
}

// NewArtefactHandler creates the handler for one route.
//
// Parameters:
//   - route: URL path, storage path and effective settings of the artefact
//   - store: backend resolved from the route's base directory
//   - m: request and byte counters, may be nil
//   - log: Structured logger for operational insights
func NewArtefactHandler(route interfaces.Route, store interfaces.ArtefactStore, m *metrics.ArtefactMetrics, log *slog.Logger) *ArtefactHandler {
	return &ArtefactHandler{
		route:   route,
		store:   store,
		metrics: m,
		log:     log.With(slog.String("artefact", route.URLPath)),
	}
}

// Route returns the route the handler serves.
func (h *ArtefactHandler) Route() interfaces.Route {
	return h.route
}

// HandleGet streams the artefact to the client.
//
// URL format: GET <url_path>
// Required headers (only when a read token is configured):
//   - Authorization: bearer <read_token>
//
// Responses: 200 with the artefact bytes, 401 on a missing or wrong token,
// 404 if nothing has been stored yet.
//
// The body is written in ChunkSize pieces and flushed after each one, so the
// whole artefact is never held in memory. If the client disconnects the
// transfer stops without further error handling.
func (h *ArtefactHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if err := authorize(r, h.route.Settings.ReadToken); err != nil {
		h.fail(w, r, &RequestError{StatusCode: http.StatusUnauthorized, Err: err})
		return
	}

	body, size, err := h.store.Open(r.Context(), h.route.StoragePath)
	if errors.Is(err, interfaces.ErrArtefactNotFound) {
		h.fail(w, r, &RequestError{StatusCode: http.StatusNotFound, Err: err})
		return
	}
	if err != nil {
		h.fail(w, r, &RequestError{StatusCode: http.StatusInternalServerError, Err: err})
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.WriteHeader(http.StatusOK)
	h.metrics.ObserveRequest(r.Method, http.StatusOK)

	written, err := copyChunks(r.Context(), w, body)
	h.metrics.AddServed(written)

	switch {
	case err == nil:
		h.log.Debug("Served artefact", slog.Int64("size", written))
	case errors.Is(err, errPeerClosed):
		h.log.Debug("Client went away during transfer",
			slog.Int64("written", written),
			"err", err)
	default:
		// Headers are already sent, all we can do is cut the response short.
		h.log.Error("Failed to read artefact during transfer",
			slog.Int64("written", written),
			"err", err)
	}
}

// HandlePut stores the request body as the new artefact content.
//
// URL format: PUT <url_path>
// Required headers (only when a write token is configured):
//   - Authorization: bearer <write_token>
//
// Request body: the raw artefact bytes, replacing any previous content.
//
// Responses: 204 with no body, 401 on a missing or wrong token. Without a
// configured write token anybody may write.
func (h *ArtefactHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	if err := authorize(r, h.route.Settings.WriteToken); err != nil {
		h.fail(w, r, &RequestError{StatusCode: http.StatusUnauthorized, Err: err})
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		h.fail(w, r, &RequestError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("failed to read request body: %w", err)})
		return
	}

	if err := h.store.Write(r.Context(), h.route.StoragePath, data); err != nil {
		h.fail(w, r, &RequestError{StatusCode: http.StatusInternalServerError, Err: err})
		return
	}

	h.metrics.AddStored(int64(len(data)))
	h.metrics.ObserveRequest(r.Method, http.StatusNoContent)
	h.log.Debug("Stored artefact", slog.Int("size", len(data)))

	w.WriteHeader(http.StatusNoContent)
}

func (h *ArtefactHandler) fail(w http.ResponseWriter, r *http.Request, reqErr *RequestError) {
	if reqErr.StatusCode >= http.StatusInternalServerError {
		h.log.Error("Artefact request failed",
			slog.String("method", r.Method),
			slog.Int("status", reqErr.StatusCode),
			"err", reqErr.Err)
	} else {
		h.log.Debug("Artefact request rejected",
			slog.String("method", r.Method),
			slog.Int("status", reqErr.StatusCode),
			"err", reqErr.Err)
	}

	h.metrics.ObserveRequest(r.Method, reqErr.StatusCode)
	WriteError(w, reqErr.StatusCode)
}

// authorize checks the request's bearer token against token. A nil token
// means the operation is not protected, NullToken means it is always denied.
func authorize(r *http.Request, token *string) error {
	if token == nil {
		return nil
	}
	if token == interfaces.NullToken {
		return fmt.Errorf("%w: token set to null", interfaces.ErrUnauthorized)
	}

	presented, ok := strings.CutPrefix(r.Header.Get(AuthorizationHeader), BearerPrefix)
	if !ok {
		return fmt.Errorf("%w: missing bearer token", interfaces.ErrUnauthorized)
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(*token)) != 1 {
		return fmt.Errorf("%w: token mismatch", interfaces.ErrUnauthorized)
	}
	return nil
}

// copyChunks copies src to w ChunkSize bytes at a time, flushing after every
// chunk. Write and flush failures, and cancellation of ctx, are reported as
// errPeerClosed. Read failures are returned as is.
func copyChunks(ctx context.Context, w http.ResponseWriter, src io.Reader) (int64, error) {
	rc := http.NewResponseController(w)
	buf := make([]byte, ChunkSize)

	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, fmt.Errorf("%w: %v", errPeerClosed, err)
		}

		nr, readErr := src.Read(buf)
		if nr > 0 {
			nw, err := w.Write(buf[:nr])
			written += int64(nw)
			if err != nil {
				return written, fmt.Errorf("%w: %v", errPeerClosed, err)
			}
			if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return written, fmt.Errorf("%w: %v", errPeerClosed, err)
			}
		}

		if errors.Is(readErr, io.EOF) {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}
