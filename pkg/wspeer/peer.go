package wspeer

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20

	DefaultSendBufferSize = 256
)

var (
	ErrClosed         = errors.New("peer closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Peer owns the write side of a websocket connection. Messages are queued and
// written by WritePump, so Send is safe for concurrent use and never blocks.
type Peer struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func New(conn *websocket.Conn, sendBufferSize int) *Peer {
	if sendBufferSize <= 0 {
		sendBufferSize = DefaultSendBufferSize
	}

	return &Peer{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

// Send marshals v and queues it. A full queue drops the message.
func (p *Peer) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	select {
	case <-p.done:
		return ErrClosed
	default:
	}

	select {
	case p.send <- data:
		return nil
	case <-p.done:
		return ErrClosed
	default:
		return ErrSendBufferFull
	}
}

func (p *Peer) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
	})

	return nil
}

// PrepareRead installs the read limit, deadline and pong handler keeping the
// connection alive while pings are answered.
func (p *Peer) PrepareRead() {
	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// WritePump drains the queue until the peer is closed or a write fails. It
// closes the underlying connection on return, which also ends the read loop.
func (p *Peer) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.Close()
		p.conn.Close()
	}()

	for {
		select {
		case message := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-p.done:
			p.flush()
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = p.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (p *Peer) flush() {
	for {
		select {
		case message := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}
