package controller

import (
	"github.com/syncwatch/server/pkg/wsrouter"
)

const (
	typeJoinRoom             = "join-room"
	typeLeaveRoom            = "leave-room"
	typeAddFile              = "add-file"
	typeFileSelected         = "file-selected"
	typeCheckPlayPermission  = "check-play-permission"
	typePlaybackControl      = "playback-control"
	typeUpdateDownloadSource = "update-download-source"
	typeUploadTorrent        = "upload-torrent"
	typeRequestSync          = "request-sync"
	typePing                 = "ping"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdWSMw(), c.loggerWSMw(), c.rateLimitWSMw())
	mux.OnError(c.handleWSError)

	// room
	wsrouter.Handle(mux, typeJoinRoom, c.handleJoinRoom)
	wsrouter.Handle(mux, typeLeaveRoom, c.handleLeaveRoom)

	// files
	wsrouter.Handle(mux, typeAddFile, c.handleAddFile)
	wsrouter.Handle(mux, typeFileSelected, c.handleFileSelected)
	wsrouter.Handle(mux, typeUpdateDownloadSource, c.handleUpdateDownloadSource)
	wsrouter.Handle(mux, typeUploadTorrent, c.handleUploadTorrent)

	// player
	wsrouter.Handle(mux, typeCheckPlayPermission, c.handleCheckPlayPermission)
	wsrouter.Handle(mux, typePlaybackControl, c.handlePlaybackControl)
	wsrouter.Handle(mux, typeRequestSync, c.handleRequestSync)

	// clock
	wsrouter.Handle(mux, typePing, c.handlePing)

	return mux
}
