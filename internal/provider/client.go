package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"tradedash/internal/wallet"
)

const (
	pingInterval = 15 * time.Second
	pongWait     = 45 * time.Second
	writeWait    = 5 * time.Second
	eventBuffer  = 64
)

type clientSub struct {
	id      uuid.UUID
	handler func(wallet.Event)
}

// Client speaks JSON-RPC over a websocket to a remote wallet.
type Client struct {
	conn *websocket.Conn
	log  zerolog.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan *message
	subs    map[string][]clientSub
	err     error

	events    chan wallet.Event
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ wallet.Provider = (*Client)(nil)

// Dial connects to a wallet daemon at url (ws:// or wss://).
func Dial(ctx context.Context, url string, log zerolog.Logger) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial wallet provider: %w", err)
	}
	c := &Client{
		conn:    conn,
		log:     log,
		pending: make(map[uint64]chan *message),
		subs:    make(map[string][]clientSub),
		events:  make(chan wallet.Event, eventBuffer),
		closed:  make(chan struct{}),
	}

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c.wg.Add(3)
	go c.readLoop()
	go c.dispatchLoop()
	go c.pingLoop()
	log.Info().Str("url", url).Msg("connected wallet provider")
	return c, nil
}

// Request implements wallet.Provider.
func (c *Client) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return nil, err
	}
	c.nextID++
	id := c.nextID
	respCh := make(chan *message, 1)
	c.pending[id] = respCh
	c.mu.Unlock()

	req := message{JSONRPC: jsonrpcVersion, ID: &id, Method: method, Params: rawParams}
	if err := c.write(&req); err != nil {
		c.forget(id)
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	select {
	case resp := <-respCh:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	case <-c.closed:
		return nil, c.closeErr()
	}
}

// Subscribe implements wallet.Provider. Handlers run on a single dispatch goroutine in arrival order.
func (c *Client) Subscribe(event string, handler func(wallet.Event)) (wallet.Subscription, error) {
	if handler == nil {
		return nil, fmt.Errorf("nil handler for %s", event)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	id := uuid.New()
	c.subs[event] = append(c.subs[event], clientSub{id: id, handler: handler})
	return &subscription{cancel: func() { c.unsubscribe(event, id) }}, nil
}

// Close tears down the connection and fails pending requests.
func (c *Client) Close() error {
	c.shutdown(ErrClosed)
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	c.writeMu.Unlock()
	err := c.conn.Close()
	c.wg.Wait()
	return err
}

func (c *Client) write(msg *message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (c *Client) forget(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) unsubscribe(event string, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	subs := c.subs[event]
	for i, sub := range subs {
		if sub.id == id {
			c.subs[event] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

func (c *Client) closeErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	return ErrClosed
}

func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.pending = make(map[uint64]chan *message)
		c.mu.Unlock()
		close(c.closed)
	})
}

func (c *Client) readLoop() {
	defer c.wg.Done()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closed:
			default:
				c.log.Warn().Err(err).Msg("wallet provider connection lost")
			}
			c.shutdown(fmt.Errorf("%w: %v", ErrClosed, err))
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warn().Err(err).Msg("failed to decode provider message")
			continue
		}

		switch {
		case msg.isResponse():
			c.mu.Lock()
			ch, ok := c.pending[*msg.ID]
			delete(c.pending, *msg.ID)
			c.mu.Unlock()
			if ok {
				ch <- &msg
			}
		case msg.isNotification():
			select {
			case c.events <- wallet.Event{Name: msg.Method, Payload: msg.Params}:
			case <-c.closed:
				return
			}
		default:
			c.log.Warn().Msg("ignoring provider message without id or method")
		}
	}
}

func (c *Client) dispatchLoop() {
	defer c.wg.Done()
	for {
		select {
		case ev := <-c.events:
			c.mu.Lock()
			subs := append([]clientSub(nil), c.subs[ev.Name]...)
			c.mu.Unlock()
			for _, sub := range subs {
				sub.handler(ev)
			}
		case <-c.closed:
			return
		}
	}
}

func (c *Client) pingLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.writeMu.Unlock()
			if err != nil {
				c.log.Warn().Err(err).Msg("wallet provider ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}
