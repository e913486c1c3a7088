// Package gateway exposes the registered tools to an external host over a
// websocket. A host sends invoke frames and receives the tool's status and
// stream events followed by a result frame.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/crystaldolphin/deepsearch/internal/deepsearch"
	"github.com/crystaldolphin/deepsearch/internal/tools"
)

// Frame types exchanged with the host.
const (
	FrameTools  = "tools"
	FrameInvoke = "invoke"
	FrameEvent  = "event"
	FrameResult = "result"
	FrameError  = "error"
)

const (
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
	maxFrameBytes   = 1 << 20
	frameQueueSize  = 8
)

// InFrame is a message from the host.
type InFrame struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params"`
}

// OutFrame is a message to the host.
type OutFrame struct {
	Type    string            `json:"type"`
	ID      string            `json:"id,omitempty"`
	Event   *deepsearch.Event `json:"event,omitempty"`
	Content string            `json:"content,omitempty"`
	Error   string            `json:"error,omitempty"`
	Tools   []map[string]any  `json:"tools,omitempty"`
}

// Server serves /ws and /healthz.
type Server struct {
	addr     string
	tools    *tools.ToolList
	upgrader websocket.Upgrader
}

// NewServer creates a Server listening on addr and dispatching to tl.
func NewServer(addr string, tl *tools.ToolList) *Server {
	return &Server{
		addr:  addr,
		tools: tl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// Handler returns the HTTP handler for the gateway routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("gateway: listening", "addr", s.addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("gateway listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("gateway: shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("gateway: upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	slog.Info("gateway: host connected", "remote", r.RemoteAddr)
	s.serveConn(r.Context(), conn)
	slog.Info("gateway: host disconnected", "remote", r.RemoteAddr)
}

// serveConn handles one host connection. A reader goroutine watches the
// socket and cancels the connection context when the host goes away, so a
// running invocation stops with it. Invocations run one at a time on the
// dispatch goroutine, which owns every write.
func (s *Server) serveConn(parent context.Context, conn *websocket.Conn) {
	if err := writeFrame(conn, OutFrame{Type: FrameTools, Tools: s.tools.Definitions()}); err != nil {
		return
	}

	connCtx, cancel := context.WithCancel(parent)
	defer cancel()
	g, ctx := errgroup.WithContext(connCtx)
	frames := make(chan []byte, frameQueueSize)

	g.Go(func() error {
		defer close(frames)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return err
			}
			select {
			case frames <- raw:
			case <-ctx.Done():
				return nil
			}
		}
	})
	g.Go(func() error {
		// Closing the socket unblocks the reader once dispatch stops.
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return nil
			case raw, ok := <-frames:
				if !ok {
					return nil
				}
				if err := s.dispatch(ctx, cancel, conn, raw); err != nil {
					return err
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		slog.Debug("gateway: connection ended", "err", err)
	}
}

func (s *Server) dispatch(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, raw []byte) error {
	var in InFrame
	if err := json.Unmarshal(raw, &in); err != nil {
		return writeFrame(conn, OutFrame{Type: FrameError, Error: "malformed frame: " + err.Error()})
	}
	if in.Type != FrameInvoke {
		return writeFrame(conn, OutFrame{Type: FrameError, ID: in.ID, Error: fmt.Sprintf("unsupported frame type %q", in.Type)})
	}
	if err := s.invoke(ctx, cancel, conn, in); err != nil {
		return fmt.Errorf("invoke %s: %w", in.ID, err)
	}
	return nil
}

// invoke runs one tool call. A failed event write means the host is gone,
// so it cancels the connection and with it the call.
func (s *Server) invoke(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, in InFrame) error {
	t := s.tools.Get(in.Tool)
	if t == nil {
		return writeFrame(conn, OutFrame{Type: FrameError, ID: in.ID, Error: fmt.Sprintf("unknown tool %q", in.Tool)})
	}

	em := deepsearch.EmitterFunc(func(_ context.Context, ev deepsearch.Event) error {
		err := writeFrame(conn, OutFrame{Type: FrameEvent, ID: in.ID, Event: &ev})
		if err != nil {
			cancel()
		}
		return err
	})
	ctx = tools.WithInvocation(ctx, tools.InvocationContext{ID: in.ID, Emitter: em})

	slog.Info("gateway: invoke", "id", in.ID, "tool", in.Tool)
	params := in.Params
	if params == nil {
		params = map[string]any{}
	}
	out, err := t.Execute(ctx, params)
	if ctx.Err() != nil {
		slog.Info("gateway: invoke abandoned", "id", in.ID, "err", ctx.Err())
		return nil
	}
	if err != nil {
		return writeFrame(conn, OutFrame{Type: FrameError, ID: in.ID, Error: err.Error()})
	}
	return writeFrame(conn, OutFrame{Type: FrameResult, ID: in.ID, Content: out})
}

func writeFrame(conn *websocket.Conn, f OutFrame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}
