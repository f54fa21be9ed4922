package domain

import (
	"errors"
	"time"
)

const NoVideo = -1

var (
	ErrNoVideoLoaded  = errors.New("no video loaded")
	ErrTimeRequired   = errors.New("time is required")
	ErrUnknownAction  = errors.New("unknown playback action")
	ErrInvalidVideoId = errors.New("invalid video index")
)

type Action string

const (
	ActionLoadVideo Action = "load-video"
	ActionPlay      Action = "play"
	ActionPause     Action = "pause"
	ActionSeek      Action = "seek"
)

func (a Action) Valid() bool {
	switch a {
	case ActionLoadVideo, ActionPlay, ActionPause, ActionSeek:
		return true
	}

	return false
}

// Player is the clock snapshot of a room. The live position is derived on read,
// nothing ticks.
type Player struct {
	CurrentIndex     int     `json:"current_index" redis:"current_index"`
	CurrentVideoName string  `json:"current_video_name" redis:"current_video_name"`
	CurrentFileName  string  `json:"current_file_name" redis:"current_file_name"`
	BaseTime         float64 `json:"base_time" redis:"base_time"`
	LastUpdate       int64   `json:"last_update" redis:"last_update"`
	IsPlaying        bool    `json:"is_playing" redis:"is_playing"`
}

func NewPlayer(now time.Time) Player {
	return Player{
		CurrentIndex: NoVideo,
		LastUpdate:   now.UnixMilli(),
	}
}

// CurrentTime returns the position in seconds at now. Negative values are
// returned as is.
func (p Player) CurrentTime(now time.Time) float64 {
	if !p.IsPlaying {
		return p.BaseTime
	}

	return p.BaseTime + float64(now.UnixMilli()-p.LastUpdate)/1000
}

func (p Player) IsLoaded() bool {
	return p.CurrentIndex != NoVideo
}

func (p *Player) Load(index int, videoName, fileName string, now time.Time) {
	p.CurrentIndex = index
	p.CurrentVideoName = videoName
	p.CurrentFileName = fileName
	p.set(0, false, now)
}

func (p *Player) Play(at *float64, now time.Time) {
	p.set(p.resolve(at), true, now)
}

func (p *Player) Pause(at *float64, now time.Time) {
	p.set(p.resolve(at), false, now)
}

func (p *Player) Seek(at float64, now time.Time) {
	p.set(at, p.IsPlaying, now)
}

func (p *Player) Stop(now time.Time) {
	p.CurrentIndex = NoVideo
	p.CurrentVideoName = ""
	p.CurrentFileName = ""
	p.set(0, false, now)
}

// resolve keeps the stored base time when the request carries none. An explicit
// zero is a real position.
func (p Player) resolve(at *float64) float64 {
	if at != nil {
		return *at
	}

	return p.BaseTime
}

func (p *Player) set(baseTime float64, isPlaying bool, now time.Time) {
	p.BaseTime = baseTime
	p.IsPlaying = isPlaying
	p.LastUpdate = now.UnixMilli()
}
