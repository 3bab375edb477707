package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/flashbots/go-utils/httplogger"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/boltprotocol/bolt-core/primitives"
)

// Server is the outer commitments-API JSON-RPC server. It authenticates
// inbound requests and forwards them as Events on a channel; it never
// produces a commitment itself, matching the split between the original
// processor (owns signing) and the API layer (owns transport and auth).
type Server struct {
	log          *logrus.Entry
	events       chan<- *Event
	whitelist    map[gethCommon.Address]struct{}
	headSlotFunc func() uint64

	listener net.Listener
	srv      *http.Server
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithLogger overrides the server's logger.
func WithLogger(log *logrus.Entry) Option {
	return func(s *Server) { s.log = log }
}

// WithWhitelist restricts authenticated requests to the given set of
// recovered addresses. A nil whitelist (the default) allows any address
// that produces a valid signature.
func WithWhitelist(addrs []gethCommon.Address) Option {
	return func(s *Server) {
		wl := make(map[gethCommon.Address]struct{}, len(addrs))
		for _, a := range addrs {
			wl[a] = struct{}{}
		}
		s.whitelist = wl
	}
}

// WithHeadSlotSource supplies the current-slot source requests are
// validated against, per spec.md §1 ("the core consumes a current-slot
// source ... from them"). Without one, the server cannot know the chain
// head and falls back to treating slot 0 as the head, which still rejects
// a request targeting slot 0 but cannot reject a stale request targeting
// any later slot.
func WithHeadSlotSource(headSlot func() uint64) Option {
	return func(s *Server) { s.headSlotFunc = headSlot }
}

// NewServer creates a commitments API server that forwards accepted
// requests onto events.
func NewServer(events chan<- *Event, opts ...Option) *Server {
	s := &Server{
		log:          logrus.NewEntry(logrus.StandardLogger()),
		events:       events,
		headSlotFunc: func() uint64 { return 0 },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bind opens a TCP listener on addr without serving yet, so LocalAddr is
// available immediately after Bind returns (needed when addr uses an
// ephemeral port, e.g. "127.0.0.1:0" in tests).
func (s *Server) Bind(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind commitments API server: %w", err)
	}
	s.listener = listener
	s.srv = &http.Server{Handler: s.router()}
	return nil
}

// LocalAddr returns the address the server is bound to. Valid only after
// Bind has succeeded.
func (s *Server) LocalAddr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve runs the server until ctx is canceled, at which point it shuts down
// gracefully. Bind must be called first.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return fmt.Errorf("commitments API server: Bind must be called before Serve")
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.listener.Addr().String()).Info("commitments API server listening")
		errCh <- s.srv.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		return s.srv.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Run binds addr and serves until the process receives an interrupt
// signal, then shuts down gracefully. It is the zero-configuration
// convenience path for callers that don't need to drive shutdown
// themselves; Bind+Serve remain available for callers that supply their
// own shutdown context (e.g. tests binding an ephemeral port).
func (s *Server) Run(addr string) error {
	if err := s.Bind(addr); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return s.Serve(ctx)
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRPC).Methods(http.MethodPost)
	return httplogger.LoggingMiddlewareLogrus(s.log, r)
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("content-type", "application/json")

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, errorResponse(nil, CodeInvalidRequest, "invalid request body"))
		return
	}

	switch req.Method {
	case GetVersionMethod:
		writeResponse(w, successResponse(req.ID, versionString))
	case RequestInclusionMethod:
		s.handleRequestInclusion(r.Context(), w, r, &req)
	default:
		writeResponse(w, errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method)))
	}
}

func (s *Server) handleRequestInclusion(ctx context.Context, w http.ResponseWriter, r *http.Request, req *Request) {
	var params []primitives.InclusionRequest
	if err := json.Unmarshal(req.Params, &params); err != nil || len(params) != 1 {
		writeResponse(w, errorResponse(req.ID, CodeInvalidParams, "invalid params: expected one InclusionRequest"))
		return
	}
	inclusion := params[0]

	if err := inclusion.Validate(s.headSlotFunc()); err != nil {
		writeResponse(w, errorResponse(req.ID, CodeInvalidParams, err.Error()))
		return
	}

	if _, apiErr := authenticate(&inclusion, r.Header.Get(SignatureHeader), s.whitelist); apiErr != nil {
		writeResponse(w, errorResponse(req.ID, apiErr.Code, apiErr.Message))
		return
	}

	event := NewEvent(primitives.NewInclusionCommitmentRequest(&inclusion))
	s.log.WithField("event_id", event.ID).WithField("slot", inclusion.Slot).Debug("accepted inclusion request")

	select {
	case s.events <- event:
	case <-ctx.Done():
		writeResponse(w, errorResponse(req.ID, CodeInternal, "request canceled"))
		return
	}

	select {
	case result, ok := <-event.Response:
		if !ok {
			// The processor closed the reply channel without sending.
			writeResponse(w, errorResponse(req.ID, ErrInternal.Code, ErrInternal.Message))
			return
		}
		if result.Err != nil {
			writeResponse(w, errorResponse(req.ID, result.Err.Code, result.Err.Message))
			return
		}
		writeResponse(w, successResponse(req.ID, result.Commitment))
	case <-ctx.Done():
		writeResponse(w, errorResponse(req.ID, CodeInternal, "request canceled waiting for commitment"))
	}
}

func writeResponse(w http.ResponseWriter, resp *Response) {
	_ = json.NewEncoder(w).Encode(resp)
}

// versionString is the value bolt_getVersion reports. Bumped alongside
// module releases.
const versionString = "bolt-core/0.1.0"
