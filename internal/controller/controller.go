package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/syncwatch/server/internal/service"
	"github.com/syncwatch/server/pkg/ratelimit"
	"github.com/syncwatch/server/pkg/validator"
	"github.com/syncwatch/server/pkg/wsrouter"
)

type iRoomService interface {
	ConnectMember(context.Context, *service.ConnectMemberParams) error
	DisconnectMember(context.Context, *service.DisconnectMemberParams) (service.DisconnectMemberResponse, error)
	JoinRoom(context.Context, *service.JoinRoomParams) (service.JoinRoomResponse, error)
	LeaveRoom(context.Context, *service.LeaveRoomParams) (service.LeaveRoomResponse, error)
	AddFile(context.Context, *service.AddFileParams) (service.AddFileResponse, error)
	SelectFile(context.Context, *service.SelectFileParams) error
	UpdateDownloadSource(context.Context, *service.UpdateDownloadSourceParams) error
	UploadTorrent(context.Context, *service.UploadTorrentParams) error
	ControlPlayback(context.Context, *service.ControlPlaybackParams) (service.ControlPlaybackResponse, error)
	CheckPlayPermission(context.Context, *service.CheckPlayPermissionParams) (service.CheckPlayPermissionResponse, error)
	RequestSync(context.Context, *service.RequestSyncParams) (service.SyncUpdate, error)
	Ping(context.Context, *service.PingParams) service.Pong
	ListRooms(context.Context) ([]service.RoomSummary, error)
	GetRoomState(context.Context, string) (service.RoomState, error)
}

type Config struct {
	// ConnRate and ConnBurst limit websocket upgrades per client IP.
	ConnRate  float64
	ConnBurst int
	// MsgRate and MsgBurst limit inbound messages per connection.
	MsgRate  float64
	MsgBurst int
	// StaticDir is served at / when set.
	StaticDir string
	// TrustProxy takes the client IP from forwarded headers. Only safe behind a
	// reverse proxy that overwrites them.
	TrustProxy bool
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsRouter    *wsrouter.WSRouter
	connLimiter *ratelimit.Keyed
	msgRate     float64
	msgBurst    int
	staticDir   string
	trustProxy  bool
	logger      *slog.Logger
}

func NewController(roomService iRoomService, cfg *Config, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		validate:    validator.NewValidator(),
		connLimiter: ratelimit.NewKeyed(cfg.ConnRate, cfg.ConnBurst),
		msgRate:     cfg.MsgRate,
		msgBurst:    cfg.MsgBurst,
		staticDir:   cfg.StaticDir,
		trustProxy:  cfg.TrustProxy,
		logger:      logger,
	}
	c.wsRouter = c.getWSRouter()

	return c
}

// RunLimiter evicts idle connection limiter entries until ctx is done.
func (c controller) RunLimiter(ctx context.Context) {
	c.connLimiter.Run(ctx)
}
