package domain

import (
	"errors"
	"path"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

var ErrPlaylistLimitReached = errors.New("playlist limit reached")

type FileEntry struct {
	Id           string   `json:"id"`
	Name         string   `json:"name"`
	FileName     string   `json:"file_name"`
	Type         string   `json:"type"`
	Size         string   `json:"size"`
	UploadedBy   string   `json:"uploaded_by"`
	AvailableFor []string `json:"available_for"`
	AddedAt      int64    `json:"added_at"`
}

func (e FileEntry) IsAvailableFor(memberId string) bool {
	return slices.Contains(e.AvailableFor, memberId)
}

type FileDeclaration struct {
	Name     string
	FileName string
	Type     string
	Size     string
}

// DisplayName strips the extension off a file name.
func DisplayName(fileName string) string {
	return strings.TrimSuffix(fileName, path.Ext(fileName))
}

func (r Room) playlistIndex(fileName string) int {
	return slices.IndexFunc(r.Playlist, func(e FileEntry) bool {
		return e.FileName == fileName
	})
}

type DeclareFileResult struct {
	Entry   FileEntry
	Index   int
	Created bool
}

// DeclareFile records the file in the member's own list and merges it into the
// playlist by file name. Declaring the same file twice is idempotent.
func (r *Room) DeclareFile(memberId string, decl FileDeclaration, playlistLimit int, now time.Time, newId func() string) (DeclareFileResult, error) {
	memberIdx := r.memberIndex(memberId)
	if memberIdx == -1 {
		return DeclareFileResult{}, ErrMemberNotFound
	}

	if decl.Name == "" {
		decl.Name = DisplayName(decl.FileName)
	}

	idx := r.playlistIndex(decl.FileName)
	if idx == -1 && playlistLimit > 0 && len(r.Playlist) >= playlistLimit {
		return DeclareFileResult{}, ErrPlaylistLimitReached
	}

	r.Members[memberIdx].declare(MemberFile{
		Name:       decl.Name,
		FileName:   decl.FileName,
		Type:       decl.Type,
		Size:       decl.Size,
		UploadedAt: now.UnixMilli(),
	})

	if idx != -1 {
		entry := &r.Playlist[idx]
		if !entry.IsAvailableFor(memberId) {
			entry.AvailableFor = append(entry.AvailableFor, memberId)
		}

		return DeclareFileResult{Entry: *entry, Index: idx}, nil
	}

	entry := FileEntry{
		Id:           newId(),
		Name:         decl.Name,
		FileName:     decl.FileName,
		Type:         decl.Type,
		Size:         decl.Size,
		UploadedBy:   memberId,
		AvailableFor: []string{memberId},
		AddedAt:      now.UnixMilli(),
	}
	r.Playlist = append(r.Playlist, entry)

	return DeclareFileResult{Entry: entry, Index: len(r.Playlist) - 1, Created: true}, nil
}

// withdrawFiles drops every entry first uploaded by memberId. Index keyed state
// follows the surviving entries; losing the active entry stops playback.
func (r *Room) withdrawFiles(memberId string, now time.Time) bool {
	remap := make(map[int]int, len(r.Playlist))
	kept := make([]FileEntry, 0, len(r.Playlist))
	for i, e := range r.Playlist {
		if e.UploadedBy == memberId {
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, e)
	}

	if len(kept) == len(r.Playlist) {
		return false
	}
	r.Playlist = kept

	if r.Player.IsLoaded() {
		if newIdx, ok := remap[r.Player.CurrentIndex]; ok {
			r.Player.CurrentIndex = newIdx
		} else {
			r.Player.Stop(now)
		}
	}

	sources := make(map[int]string, len(r.DownloadSources))
	for idx, src := range r.DownloadSources {
		if newIdx, ok := remap[idx]; ok {
			sources[newIdx] = src
		}
	}
	r.DownloadSources = sources

	torrents := make(map[int]TorrentFile, len(r.TorrentFiles))
	for idx, t := range r.TorrentFiles {
		if newIdx, ok := remap[idx]; ok {
			torrents[newIdx] = t
		}
	}
	r.TorrentFiles = torrents

	for i := range r.Members {
		m := &r.Members[i]
		if m.SelectedFileIndex == nil {
			continue
		}
		if newIdx, ok := remap[*m.SelectedFileIndex]; ok {
			m.SelectedFileIndex = &newIdx
		} else {
			m.SelectedFileIndex = nil
			m.SelectedFileName = ""
		}
	}

	return true
}
