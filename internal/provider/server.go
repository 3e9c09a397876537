package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"tradedash/internal/metrics"
	"tradedash/internal/wallet"
)

const outboundBuffer = 64

// Server exposes a wallet backend to remote Clients over websocket JSON-RPC.
type Server struct {
	backend  wallet.Provider
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewServer wraps backend (usually a *Mock) for remote access.
func NewServer(backend wallet.Provider, log zerolog.Logger) *Server {
	return &Server{
		backend: backend,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and serves it until the peer disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	s.serveConn(r.Context(), conn, r.RemoteAddr)
}

func (s *Server) serveConn(parent context.Context, conn *websocket.Conn, peer string) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	log := s.log.With().Str("peer", peer).Logger()
	log.Info().Msg("wallet client connected")

	out := make(chan *message, outboundBuffer)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop(ctx, conn, out, log)
	}()

	send := func(msg *message) {
		select {
		case out <- msg:
		case <-ctx.Done():
		}
	}

	var subs []wallet.Subscription
	for _, name := range []string{wallet.EventAccountsChanged, wallet.EventChainChanged} {
		sub, err := s.backend.Subscribe(name, func(ev wallet.Event) {
			send(&message{JSONRPC: jsonrpcVersion, Method: ev.Name, Params: ev.Payload})
		})
		if err != nil {
			log.Error().Err(err).Str("event", name).Msg("subscribe backend events")
			continue
		}
		subs = append(subs, sub)
	}
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()

	conn.SetReadLimit(1 << 20)
	var handlers sync.WaitGroup
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("wallet client read failed")
			}
			break
		}
		var req message
		if err := json.Unmarshal(data, &req); err != nil {
			send(&message{JSONRPC: jsonrpcVersion, Error: &RPCError{Code: CodeParseError, Message: err.Error()}})
			continue
		}
		if req.ID == nil || req.Method == "" {
			log.Warn().Msg("dropping request without id or method")
			continue
		}
		// Interactive requests may block on a prompt; serve each on its own goroutine.
		handlers.Add(1)
		go func(req message) {
			defer handlers.Done()
			send(s.handle(ctx, &req))
		}(req)
	}

	cancel()
	handlers.Wait()
	wg.Wait()
	_ = conn.Close()
	log.Info().Msg("wallet client disconnected")
}

func (s *Server) handle(ctx context.Context, req *message) *message {
	metrics.ProviderRequestsTotal.WithLabelValues(req.Method).Inc()
	resp := &message{JSONRPC: jsonrpcVersion, ID: req.ID}
	params, err := decodeParams(req.Params)
	if err != nil {
		resp.Error = &RPCError{Code: CodeInvalidParams, Message: err.Error()}
		return resp
	}
	result, err := s.backend.Request(ctx, req.Method, params...)
	if err != nil {
		resp.Error = toRPCError(err)
		return resp
	}
	resp.Result = result
	return resp
}

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan *message, log zerolog.Logger) {
	for {
		select {
		case msg := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				log.Warn().Err(err).Msg("wallet client write failed")
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
