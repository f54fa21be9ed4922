package service

import "encoding/json"

const (
	TypeJoinRoom              = "join-room"
	TypeMemberJoined          = "member-joined"
	TypeMemberLeft            = "member-left"
	TypeFilesUpdated          = "files-updated"
	TypePlayPermissionGranted = "play-permission-granted"
	TypePlayPermissionDenied  = "play-permission-denied"
	TypeSyncCommand           = "sync-command"
	TypeSyncUpdate            = "sync-update"
	TypeDownloadSourceUpdated = "download-source-updated"
	TypeTorrentUploaded       = "torrent-uploaded"
	TypePong                  = "pong"
	TypeError                 = "error"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type FileEntry struct {
	Id           string   `json:"id"`
	Name         string   `json:"name"`
	FileName     string   `json:"fileName"`
	Type         string   `json:"type"`
	Size         string   `json:"size"`
	UploadedBy   string   `json:"uploadedBy"`
	AvailableFor []string `json:"availableFor"`
	AddedAt      int64    `json:"addedAt"`
}

type Member struct {
	Id                string `json:"id"`
	IsHost            bool   `json:"isHost"`
	FileCount         int    `json:"fileCount"`
	SelectedFileIndex *int   `json:"selectedFileIndex"`
	SelectedFileName  string `json:"selectedFileName,omitempty"`
	JoinedAt          int64  `json:"joinedAt"`
}

type TorrentFile struct {
	TorrentData     json.RawMessage `json:"torrentData"`
	TorrentFileName string          `json:"torrentFileName"`
}

type RoomState struct {
	Id               string              `json:"id"`
	HostId           string              `json:"hostId"`
	MemberCount      int                 `json:"memberCount"`
	Members          []Member            `json:"members"`
	Playlist         []FileEntry         `json:"playlist"`
	CurrentIndex     int                 `json:"currentIndex"`
	CurrentVideoName string              `json:"currentVideoName"`
	CurrentFileName  string              `json:"currentFileName"`
	CurrentTime      float64             `json:"currentTime"`
	IsPlaying        bool                `json:"isPlaying"`
	DownloadSources  map[int]string      `json:"downloadSources"`
	TorrentFiles     map[int]TorrentFile `json:"torrentFiles"`
	Seq              uint64              `json:"seq"`
	ServerTimestamp  int64               `json:"serverTimestamp"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Fields  any    `json:"fields,omitempty"`
}

type JoinRoomResult struct {
	Success   bool          `json:"success"`
	IsHost    bool          `json:"isHost"`
	MemberId  string        `json:"memberId,omitempty"`
	RoomState *RoomState    `json:"roomState,omitempty"`
	Error     *ErrorPayload `json:"error,omitempty"`
}

type MemberJoined struct {
	MemberId    string `json:"memberId"`
	MemberCount int    `json:"memberCount"`
}

type MemberLeft struct {
	MemberId    string `json:"memberId"`
	MemberCount int    `json:"memberCount"`
	NewHost     string `json:"newHost"`
}

type MemberFileCount struct {
	Id        string `json:"id"`
	FileCount int    `json:"fileCount"`
}

type FilesUpdated struct {
	Files   []FileEntry       `json:"files"`
	Members []MemberFileCount `json:"members"`
}

type PlayPermission struct {
	RequestedBy string `json:"requestedBy"`
	// Waiting lists members without a selected file.
	Waiting []string `json:"waiting,omitempty"`
}

type SyncCommand struct {
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

// ActionSync tags a sync-update so clients can switch on action like they do for
// sync-command.
const ActionSync = "sync"

type SyncUpdate struct {
	Action          string  `json:"action"`
	VideoIndex      int     `json:"videoIndex"`
	VideoName       string  `json:"videoName"`
	FileName        string  `json:"fileName"`
	Time            float64 `json:"time"`
	IsPlaying       bool    `json:"isPlaying"`
	ServerTimestamp int64   `json:"serverTimestamp"`
	Seq             uint64  `json:"seq"`
}

type DownloadSourceUpdated struct {
	FileIndex      int    `json:"fileIndex"`
	DownloadSource string `json:"downloadSource"`
}

type TorrentUploaded struct {
	FileIndex       int             `json:"fileIndex"`
	TorrentData     json.RawMessage `json:"torrentData"`
	TorrentFileName string          `json:"torrentFileName"`
}

type Pong struct {
	ClientTime int64 `json:"clientTime"`
	ServerTime int64 `json:"serverTime"`
}

type RoomSummary struct {
	Id           string `json:"id"`
	MemberCount  int    `json:"memberCount"`
	CurrentTrack string `json:"currentTrack"`
	IsPlaying    bool   `json:"isPlaying"`
}
