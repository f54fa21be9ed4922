package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/syncwatch/server/internal/domain"
	"github.com/syncwatch/server/internal/repository/connection"
)

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrMemberNotFound = errors.New("member not found")
)

const DefaultSyncDelay = 500 * time.Millisecond

type iRoomRepo interface {
	GetRoom(context.Context, string) (domain.Room, error)
	SetRoom(context.Context, *domain.Room) error
	DeleteRoom(context.Context, string) error
	ListRooms(context.Context) ([]domain.Room, error)
}

type iConnRepo interface {
	Add(connection.Conn, string) error
	RemoveByMemberId(string) (connection.Conn, error)
	GetConns([]string) []connection.Conn
}

type service struct {
	roomRepo           iRoomRepo
	connRepo           iConnRepo
	locks              *roomLocker
	clock              clock.Clock
	generateId         func() string
	membersLimit       int
	playlistLimit      int
	syncDelay          time.Duration
	playPermissionGate bool
	logger             *slog.Logger
}

type Config struct {
	MembersLimit       int
	PlaylistLimit      int
	SyncDelay          time.Duration
	PlayPermissionGate bool
	// Clock defaults to the wall clock.
	Clock clock.Clock
}

func New(roomRepo iRoomRepo, connRepo iConnRepo, cfg *Config, logger *slog.Logger) *service {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}

	syncDelay := cfg.SyncDelay
	if syncDelay <= 0 {
		syncDelay = DefaultSyncDelay
	}

	return &service{
		roomRepo:           roomRepo,
		connRepo:           connRepo,
		locks:              newRoomLocker(),
		clock:              clk,
		generateId:         uuid.NewString,
		membersLimit:       cfg.MembersLimit,
		playlistLimit:      cfg.PlaylistLimit,
		syncDelay:          syncDelay,
		playPermissionGate: cfg.PlayPermissionGate,
		logger:             logger,
	}
}

func (s service) Now() time.Time {
	return s.clock.Now()
}
