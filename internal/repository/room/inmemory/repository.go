package inmemory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/syncwatch/server/internal/domain"
	"github.com/syncwatch/server/internal/repository/room"
)

// repo is the process scoped room registry. Stored rooms are copied on the way
// in and out so callers never share state with the registry.
type repo struct {
	rooms  map[string]domain.Room
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		rooms:  make(map[string]domain.Room),
		logger: logger,
	}
}

func (r *repo) GetRoom(ctx context.Context, roomId string) (domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.rooms[roomId]
	if !ok {
		return domain.Room{}, room.ErrRoomNotFound
	}

	return stored.Clone(), nil
}

func (r *repo) SetRoom(ctx context.Context, rm *domain.Room) error {
	if rm.Id == "" {
		return room.ErrInvalidRoom
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.rooms[rm.Id] = rm.Clone()
	r.logger.DebugContext(ctx, "room stored", "room_id", rm.Id, "members", rm.MemberCount())

	return nil
}

func (r *repo) DeleteRoom(ctx context.Context, roomId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomId]; !ok {
		return room.ErrRoomNotFound
	}
	delete(r.rooms, roomId)
	r.logger.DebugContext(ctx, "room deleted", "room_id", roomId)

	return nil
}

func (r *repo) ListRooms(ctx context.Context) ([]domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]domain.Room, 0, len(r.rooms))
	for _, stored := range r.rooms {
		rooms = append(rooms, stored.Clone())
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt < rooms[j].CreatedAt
	})

	return rooms, nil
}
