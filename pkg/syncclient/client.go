package syncclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type Pong struct {
	ClientTime int64 `json:"clientTime"`
	ServerTime int64 `json:"serverTime"`
}

type FileDeclaration struct {
	Name     string `json:"name,omitempty"`
	FileName string `json:"fileName"`
	Type     string `json:"type"`
	Size     string `json:"size,omitempty"`
}

type PlaybackRequest struct {
	Action     string   `json:"action"`
	VideoIndex *int     `json:"videoIndex,omitempty"`
	VideoName  *string  `json:"videoName,omitempty"`
	FileName   *string  `json:"fileName,omitempty"`
	Time       *float64 `json:"time,omitempty"`
}

// Client speaks the room protocol over one websocket connection and feeds
// sync traffic into an Executor.
type Client struct {
	conn    *websocket.Conn
	exec    *Executor
	logger  *slog.Logger
	writeMu sync.Mutex
	// OnMessage, when set, sees every inbound message after the executor did.
	OnMessage func(Message)
}

func Dial(ctx context.Context, url string, exec *Executor, logger *slog.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}

	return &Client{
		conn:   conn,
		exec:   exec,
		logger: logger,
	}, nil
}

func (c *Client) send(msgType string, payload any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(map[string]any{"type": msgType, "payload": payload}); err != nil {
		return fmt.Errorf("failed to send %s: %w", msgType, err)
	}

	return nil
}

func (c *Client) Join(roomId string) error {
	return c.send("join-room", map[string]string{"roomId": roomId})
}

func (c *Client) Leave() error {
	return c.send("leave-room", nil)
}

func (c *Client) AddFile(decl FileDeclaration) error {
	return c.send("add-file", decl)
}

// SelectFile reports the local pick; a nil index clears it.
func (c *Client) SelectFile(index *int, fileName string) error {
	return c.send("file-selected", map[string]any{"fileIndex": index, "fileName": fileName})
}

func (c *Client) CheckPlayPermission() error {
	return c.send("check-play-permission", nil)
}

func (c *Client) Control(req PlaybackRequest) error {
	return c.send("playback-control", req)
}

func (c *Client) RequestSync() error {
	return c.send("request-sync", nil)
}

func (c *Client) Ping() error {
	return c.send("ping", map[string]int64{"clientTime": c.exec.clock.Now().UnixMilli()})
}

// Run reads until the connection fails or ctx is done.
func (c *Client) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		c.handle(msg)

		if c.OnMessage != nil {
			c.OnMessage(msg)
		}
	}
}

func (c *Client) handle(msg Message) {
	switch msg.Type {
	case "sync-command":
		var cmd Command
		if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
			c.logger.Warn("malformed sync command", "error", err)
			return
		}
		if gap := c.exec.Schedule(cmd); gap {
			c.logger.Info("sync command gap, requesting sync", "seq", cmd.Seq)
			if err := c.RequestSync(); err != nil {
				c.logger.Warn("failed to request sync", "error", err)
			}
		}

	case "sync-update":
		var u Update
		if err := json.Unmarshal(msg.Payload, &u); err != nil {
			c.logger.Warn("malformed sync update", "error", err)
			return
		}
		c.exec.ApplyNow(u)

	case "pong":
		var p Pong
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.logger.Warn("malformed pong", "error", err)
			return
		}
		skew := c.exec.ObservePong(time.UnixMilli(p.ClientTime), c.exec.clock.Now(), p.ServerTime)
		c.logger.Debug("clock skew measured", "skew_ms", skew.Milliseconds())
	}
}

func (c *Client) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))

	return c.conn.Close()
}
