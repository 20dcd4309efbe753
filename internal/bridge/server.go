package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/prodigisoftwares/ollama-agent/internal/agent"
	"github.com/prodigisoftwares/ollama-agent/internal/protocol"
	"github.com/prodigisoftwares/ollama-agent/internal/session"
)

type Turner interface {
	Turn(ctx context.Context, st *session.State, input string) agent.Reply
}

// Server exposes one session over a websocket at /ws. Only one client is
// attached at a time; consecutive clients share the session.
type Server struct {
	engine   Turner
	state    *session.State
	logger   *slog.Logger
	attached atomic.Bool
	turnMu   sync.Mutex
}

func NewServer(engine Turner, st *session.State, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: engine, state: st, logger: logger.With("module", "bridge")}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	return mux
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	if !s.attached.CompareAndSwap(false, true) {
		http.Error(w, "another client is attached", http.StatusConflict)
		return
	}
	defer s.attached.Store(false)

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	ctx := r.Context()
	hello := protocol.Message{
		ID:   protocol.NewID("evt"),
		Type: protocol.TypeEvent,
		Op:   protocol.OpHello,
		Payload: protocol.MustRaw(protocol.Hello{
			SessionID:  s.state.ID,
			WorkingDir: s.state.WorkingDir,
			Model:      s.state.Model,
		}),
	}
	if err := s.write(ctx, conn, hello); err != nil {
		return
	}

	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				s.logger.Debug("websocket read ended", "err", err)
			}
			return
		}
		res, exit := s.handle(ctx, raw)
		if err := s.write(ctx, conn, res); err != nil {
			return
		}
		if exit {
			return
		}
	}
}

func (s *Server) handle(ctx context.Context, raw []byte) (protocol.Message, bool) {
	var req protocol.Message
	if err := json.Unmarshal(raw, &req); err != nil {
		return protocol.Fail(protocol.Message{Type: protocol.TypeRequest}, protocol.CodeBadRequest, "invalid frame: "+err.Error()), false
	}
	if req.Type != protocol.TypeRequest {
		return protocol.Fail(req, protocol.CodeBadRequest, "expected a request frame"), false
	}
	switch req.Op {
	case protocol.OpTurn:
		var payload protocol.TurnRequest
		if err := json.Unmarshal(req.Payload, &payload); err != nil || strings.TrimSpace(payload.Input) == "" {
			return protocol.Fail(req, protocol.CodeBadRequest, "payload.input is required"), false
		}
		reply := s.turn(ctx, payload.Input)
		return protocol.Reply(req, s.toResponse(reply)), reply.Exit
	default:
		return protocol.Fail(req, protocol.CodeUnknownOp, "unknown op: "+req.Op), false
	}
}

func (s *Server) turn(ctx context.Context, input string) agent.Reply {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	return s.engine.Turn(ctx, s.state, input)
}

func (s *Server) toResponse(reply agent.Reply) protocol.TurnResponse {
	res := protocol.TurnResponse{
		Kind:       reply.Kind.String(),
		Text:       reply.Text(),
		Exit:       reply.Exit,
		WorkingDir: s.state.WorkingDir,
		Model:      s.state.Model,
	}
	if reply.Result != nil {
		res.Action = &protocol.ActionPayload{
			Kind:      reply.Result.Kind.String(),
			Directive: reply.DirectiveText,
			Success:   reply.Result.Success,
			Output:    reply.Result.Output,
			Error:     reply.Result.Error,
		}
	}
	return res
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, msg protocol.Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, b)
}

// Serve runs an HTTP server on addr until ctx is done. It is shaped for
// lifecycle.Manager.AddRun.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("bridge listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	}
}
