// synccheck connects two clients to a running server, plays a file in a fresh
// room and reports how far apart the two local applies landed.
// Usage: go run ./cmd/synccheck --server ws://localhost:3000/api/v1/ws
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/syncwatch/server/pkg/syncclient"
)

var (
	serverURL = pflag.String("server", "ws://localhost:3000/api/v1/ws", "server websocket URL")
	timeout   = pflag.Duration("timeout", 10*time.Second, "overall timeout")
)

// stampPlayer records when play was applied.
type stampPlayer struct {
	name    string
	clock   clock.Clock
	logger  *slog.Logger
	once    sync.Once
	applied chan time.Time
}

func (p *stampPlayer) Load(index int, fileName string) error {
	p.logger.Info("load", "player", p.name, "index", index, "file_name", fileName)
	return nil
}

func (p *stampPlayer) Seek(seconds float64) error {
	p.logger.Info("seek", "player", p.name, "time", seconds)
	return nil
}

func (p *stampPlayer) Play() error {
	p.once.Do(func() { p.applied <- p.clock.Now() })
	return nil
}

func (p *stampPlayer) Pause() error {
	return nil
}

type member struct {
	client   *syncclient.Client
	player   *stampPlayer
	joined   chan bool
	commands chan syncclient.Command
}

func connect(ctx context.Context, name string, clk clock.Clock, logger *slog.Logger) (*member, error) {
	m := &member{
		player: &stampPlayer{
			name:    name,
			clock:   clk,
			logger:  logger,
			applied: make(chan time.Time, 1),
		},
		joined:   make(chan bool, 1),
		commands: make(chan syncclient.Command, 4),
	}

	exec := syncclient.NewExecutor(m.player, clk, logger.With("player", name))
	client, err := syncclient.Dial(ctx, *serverURL, exec, logger.With("client", name))
	if err != nil {
		return nil, err
	}
	client.OnMessage = func(msg syncclient.Message) {
		switch msg.Type {
		case "join-room":
			var res struct {
				Success bool `json:"success"`
			}
			_ = json.Unmarshal(msg.Payload, &res)
			m.joined <- res.Success
		case "sync-command":
			var cmd syncclient.Command
			if err := json.Unmarshal(msg.Payload, &cmd); err == nil {
				m.commands <- cmd
			}
		}
	}
	m.client = client

	go func() {
		if err := client.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("client stopped", "client", name, "error", err)
		}
	}()

	return m, nil
}

func wait[T any](ctx context.Context, ch <-chan T, what string) T {
	select {
	case v := <-ch:
		return v
	case <-ctx.Done():
		log.Fatalf("timed out waiting for %s", what)
	}

	var zero T
	return zero
}

func main() {
	pflag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	clk := clock.New()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	roomId := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	log.Printf(">> room %s", roomId)

	host, err := connect(ctx, "host", clk, logger)
	if err != nil {
		log.Fatal("host connect: ", err)
	}
	defer host.client.Close()

	guest, err := connect(ctx, "guest", clk, logger)
	if err != nil {
		log.Fatal("guest connect: ", err)
	}
	defer guest.client.Close()

	for _, m := range []*member{host, guest} {
		if err := m.client.Ping(); err != nil {
			log.Fatal(err)
		}
		if err := m.client.Join(roomId); err != nil {
			log.Fatal(err)
		}
		if !wait(ctx, m.joined, m.player.name+" join") {
			log.Fatalf("%s could not join %s", m.player.name, roomId)
		}
		if err := m.client.AddFile(syncclient.FileDeclaration{FileName: "synccheck.mp4", Type: "video"}); err != nil {
			log.Fatal(err)
		}
	}
	log.Println("   both members joined ✓")

	index, at := 0, 0.0
	if err := host.client.Control(syncclient.PlaybackRequest{Action: "play", VideoIndex: &index, Time: &at}); err != nil {
		log.Fatal(err)
	}

	hostCmd := wait(ctx, host.commands, "host sync-command")
	guestCmd := wait(ctx, guest.commands, "guest sync-command")
	if hostCmd.ExecuteAt != guestCmd.ExecuteAt || hostCmd.Seq != guestCmd.Seq {
		log.Fatalf("members got different commands: %+v vs %+v", hostCmd, guestCmd)
	}
	log.Printf("   executeAt %d, lead %dms ✓", hostCmd.ExecuteAt, hostCmd.ExecuteAt-hostCmd.ServerTimestamp)

	hostApplied := wait(ctx, host.player.applied, "host apply")
	guestApplied := wait(ctx, guest.player.applied, "guest apply")
	spread := hostApplied.Sub(guestApplied).Abs()

	fmt.Println()
	log.Printf("  apply spread %s", spread)
	log.Println("  SYNC CHECK PASSED ✓")
}
