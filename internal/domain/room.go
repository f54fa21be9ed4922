package domain

import (
	"encoding/json"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type TorrentFile struct {
	TorrentData     json.RawMessage `json:"torrent_data"`
	TorrentFileName string          `json:"torrent_file_name"`
}

// Room is the authoritative state of one sync session. Callers own
// serialization; a Room value is not safe for concurrent use.
type Room struct {
	Id              string              `json:"id"`
	HostId          string              `json:"host_id"`
	Members         []Member            `json:"members"`
	Playlist        []FileEntry         `json:"playlist"`
	Player          Player              `json:"player"`
	SyncDelay       time.Duration       `json:"sync_delay"`
	DownloadSources map[int]string      `json:"download_sources"`
	TorrentFiles    map[int]TorrentFile `json:"torrent_files"`
	Seq             uint64              `json:"seq"`
	JoinSeq         uint64              `json:"join_seq"`
	CreatedAt       int64               `json:"created_at"`
}

func NewRoom(id string, syncDelay time.Duration, now time.Time) Room {
	return Room{
		Id:              id,
		Members:         []Member{},
		Playlist:        []FileEntry{},
		Player:          NewPlayer(now),
		SyncDelay:       syncDelay,
		DownloadSources: make(map[int]string),
		TorrentFiles:    make(map[int]TorrentFile),
		CreatedAt:       now.UnixMilli(),
	}
}

// Clone returns a deep copy so snapshots never alias stored state.
func (r Room) Clone() Room {
	c := r
	c.Members = make([]Member, 0, len(r.Members))
	for _, m := range r.Members {
		c.Members = append(c.Members, m.clone())
	}

	c.Playlist = make([]FileEntry, 0, len(r.Playlist))
	for _, e := range r.Playlist {
		e.AvailableFor = slices.Clone(e.AvailableFor)
		c.Playlist = append(c.Playlist, e)
	}

	c.DownloadSources = maps.Clone(r.DownloadSources)
	if c.DownloadSources == nil {
		c.DownloadSources = make(map[int]string)
	}

	c.TorrentFiles = make(map[int]TorrentFile, len(r.TorrentFiles))
	for k, v := range r.TorrentFiles {
		v.TorrentData = slices.Clone(v.TorrentData)
		c.TorrentFiles[k] = v
	}

	return c
}

func (r Room) CurrentTime(now time.Time) float64 {
	return r.Player.CurrentTime(now)
}

func (r Room) ValidIndex(idx int) bool {
	return idx >= 0 && idx < len(r.Playlist)
}

// NextSeq advances the per-room sync command counter.
func (r *Room) NextSeq() uint64 {
	r.Seq++
	return r.Seq
}

func (r *Room) SetDownloadSource(fileIndex int, source string) {
	if r.DownloadSources == nil {
		r.DownloadSources = make(map[int]string)
	}
	r.DownloadSources[fileIndex] = source
}

func (r *Room) SetTorrentFile(fileIndex int, torrent TorrentFile) {
	if r.TorrentFiles == nil {
		r.TorrentFiles = make(map[int]TorrentFile)
	}
	r.TorrentFiles[fileIndex] = torrent
}

type PlaybackRequest struct {
	Action     Action
	VideoIndex *int
	VideoName  *string
	FileName   *string
	Time       *float64
}

// ApplyPlayback runs one transition of the playback state machine. On error the
// room is left untouched.
func (r *Room) ApplyPlayback(req PlaybackRequest, now time.Time) error {
	switch req.Action {
	case ActionLoadVideo:
		if req.VideoIndex == nil || !r.ValidIndex(*req.VideoIndex) {
			return ErrInvalidVideoId
		}
		r.load(*req.VideoIndex, req.VideoName, req.FileName, now)

	case ActionPlay, ActionPause, ActionSeek:
		if req.Action == ActionSeek && req.Time == nil {
			return ErrTimeRequired
		}

		if err := r.ensureLoaded(req, now); err != nil {
			return err
		}

		switch req.Action {
		case ActionPlay:
			r.Player.Play(req.Time, now)
		case ActionPause:
			r.Player.Pause(req.Time, now)
		case ActionSeek:
			r.Player.Seek(*req.Time, now)
		}

	default:
		return ErrUnknownAction
	}

	return nil
}

// ensureLoaded selects the requested video when it differs from the active one,
// otherwise a video must already be loaded.
func (r *Room) ensureLoaded(req PlaybackRequest, now time.Time) error {
	if req.VideoIndex == nil || *req.VideoIndex == r.Player.CurrentIndex {
		if !r.Player.IsLoaded() {
			return ErrNoVideoLoaded
		}
		return nil
	}

	if !r.ValidIndex(*req.VideoIndex) {
		return ErrInvalidVideoId
	}
	r.load(*req.VideoIndex, req.VideoName, req.FileName, now)

	return nil
}

func (r *Room) load(idx int, videoName, fileName *string, now time.Time) {
	entry := r.Playlist[idx]

	name := entry.Name
	if videoName != nil && *videoName != "" {
		name = *videoName
	}

	file := entry.FileName
	if fileName != nil && *fileName != "" {
		file = *fileName
	}

	r.Player.Load(idx, name, file, now)
}
