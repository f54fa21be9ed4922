package wsrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrMalformedMessage   = errors.New("malformed message")
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc[T any] func(ctx context.Context, payload T) error

type Middleware func(next HandlerFunc[any]) HandlerFunc[any]

// ErrorHandler receives every error a message produced. The read loop keeps
// going afterwards.
type ErrorHandler func(ctx context.Context, messageType string, err error)

type route struct {
	decode  func(raw json.RawMessage) (any, error)
	handler HandlerFunc[any]
}

type WSRouter struct {
	routes       map[string]route
	middlewares  []Middleware
	errorHandler ErrorHandler
}

func New() *WSRouter {
	return &WSRouter{
		routes:       make(map[string]route),
		errorHandler: func(context.Context, string, error) {},
	}
}

func (r *WSRouter) Use(mw ...Middleware) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *WSRouter) OnError(h ErrorHandler) {
	r.errorHandler = h
}

// Handle registers the handler of one message type. The payload is decoded
// into T once the middleware chain let the message through; a missing payload
// leaves T zero.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	if _, exists := r.routes[messageType]; exists {
		panic(fmt.Sprintf("wsrouter: duplicate handler for %q", messageType))
	}

	r.routes[messageType] = route{
		decode: func(raw json.RawMessage) (any, error) {
			var payload T
			if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
				return payload, nil
			}
			if err := json.Unmarshal(raw, &payload); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
			}

			return payload, nil
		},
		handler: func(ctx context.Context, payload any) error {
			return handler(ctx, payload.(T))
		},
	}
}

// Dispatch routes one raw message. The middleware chain wraps the route lookup
// and the decode, so unknown and malformed messages pass through it as well.
// Middlewares see the raw payload.
func (r *WSRouter) Dispatch(ctx context.Context, data []byte) {
	var msg message
	parseErr := json.Unmarshal(data, &msg)
	if parseErr != nil {
		msg = message{}
	}

	ctx = withMessageType(ctx, msg.Type)

	var h HandlerFunc[any] = func(ctx context.Context, _ any) error {
		if parseErr != nil {
			return fmt.Errorf("%w: %w", ErrMalformedMessage, parseErr)
		}

		rt, ok := r.routes[msg.Type]
		if !ok {
			return ErrUnknownMessageType
		}

		payload, err := rt.decode(msg.Payload)
		if err != nil {
			return err
		}

		return rt.handler(ctx, payload)
	}
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		h = r.middlewares[i](h)
	}

	if err := h(ctx, msg.Payload); err != nil {
		r.errorHandler(ctx, msg.Type, err)
	}
}

// ServeConn reads messages until the connection fails, handling each one to
// completion before reading the next.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		r.Dispatch(ctx, data)
	}
}
