package syncclient

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	MaxOffset = 10.0
	noVideo   = -1
)

// Player is the local media element the executor drives.
type Player interface {
	Load(index int, fileName string) error
	Seek(seconds float64) error
	Play() error
	Pause() error
}

type Command struct {
	Action          string  `json:"action"`
	VideoIndex      int     `json:"videoIndex"`
	VideoName       string  `json:"videoName"`
	FileName        string  `json:"fileName"`
	Time            float64 `json:"time"`
	IsPlaying       bool    `json:"isPlaying"`
	ExecuteAt       int64   `json:"executeAt"`
	ServerTimestamp int64   `json:"serverTimestamp"`
	Seq             uint64  `json:"seq"`
}

type Update struct {
	Action          string  `json:"action"`
	VideoIndex      int     `json:"videoIndex"`
	VideoName       string  `json:"videoName"`
	FileName        string  `json:"fileName"`
	Time            float64 `json:"time"`
	IsPlaying       bool    `json:"isPlaying"`
	ServerTimestamp int64   `json:"serverTimestamp"`
	Seq             uint64  `json:"seq"`
}

// Executor applies sync commands at their scheduled instant. Only the newest
// scheduled command is kept; an older pending one is dropped.
type Executor struct {
	mu         sync.Mutex
	player     Player
	clock      clock.Clock
	logger     *slog.Logger
	current    int
	offset     float64
	skew       time.Duration
	lastSeq    uint64
	pending    *clock.Timer
	generation uint64
}

func NewExecutor(player Player, clk clock.Clock, logger *slog.Logger) *Executor {
	if clk == nil {
		clk = clock.New()
	}

	return &Executor{
		player:  player,
		clock:   clk,
		logger:  logger,
		current: noVideo,
	}
}

// Schedule applies cmd at its executeAt translated into local time. It
// reports whether cmd.Seq skipped over commands this executor never saw.
func (e *Executor) Schedule(cmd Command) (gap bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	gap = e.observeSeq(cmd.Seq)

	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
	e.generation++

	executeAt := time.UnixMilli(cmd.ExecuteAt).Add(-e.skew)
	delay := executeAt.Sub(e.clock.Now())
	if delay <= 0 {
		e.apply(cmd.VideoIndex, cmd.FileName, cmd.Time, cmd.IsPlaying)
		return gap
	}

	generation := e.generation
	e.pending = e.clock.AfterFunc(delay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		// a newer command took over while this one was firing
		if e.generation != generation {
			return
		}
		e.pending = nil
		e.apply(cmd.VideoIndex, cmd.FileName, cmd.Time, cmd.IsPlaying)
	})

	return gap
}

// ApplyNow applies a sync update immediately and drops any pending command.
func (e *Executor) ApplyNow(u Update) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
	e.generation++

	if u.Seq > e.lastSeq {
		e.lastSeq = u.Seq
	}

	if u.VideoIndex == noVideo {
		return
	}
	e.apply(u.VideoIndex, u.FileName, u.Time, u.IsPlaying)
}

func (e *Executor) observeSeq(seq uint64) bool {
	gap := e.lastSeq != 0 && seq > e.lastSeq+1
	if seq > e.lastSeq {
		e.lastSeq = seq
	}

	return gap
}

// apply must be called with e.mu held. Media errors are only logged.
func (e *Executor) apply(index int, fileName string, at float64, playing bool) {
	if index != e.current {
		if err := e.player.Load(index, fileName); err != nil {
			e.logger.Warn("failed to load video", "index", index, "file_name", fileName, "error", err)
			return
		}
		e.current = index
	}

	if err := e.player.Seek(math.Max(0, at-e.offset)); err != nil {
		e.logger.Warn("failed to seek", "time", at, "error", err)
	}

	var err error
	if playing {
		err = e.player.Play()
	} else {
		err = e.player.Pause()
	}
	if err != nil {
		e.logger.Warn("failed to change playback state", "playing", playing, "error", err)
	}
}

// AdjustOffset shifts the local offset by delta seconds, clamped to
// [-MaxOffset, MaxOffset], and returns the new offset.
func (e *Executor) AdjustOffset(delta float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.offset = math.Max(-MaxOffset, math.Min(MaxOffset, e.offset+delta))

	return e.offset
}

func (e *Executor) Offset() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.offset
}

// ObservePong records the server clock skew measured by one ping round trip.
func (e *Executor) ObservePong(sent, received time.Time, serverTime int64) time.Duration {
	midpoint := sent.Add(received.Sub(sent) / 2)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.skew = time.UnixMilli(serverTime).Sub(midpoint)

	return e.skew
}

func (e *Executor) Skew() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.skew
}

func (e *Executor) LastSeq() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.lastSeq
}

// Stop drops the pending command.
func (e *Executor) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
	e.generation++
}
