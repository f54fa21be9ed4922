package inmemory

import (
	"log/slog"
	"sync"

	"github.com/syncwatch/server/internal/repository/connection"
)

type repo struct {
	connList map[connection.Conn]string
	idList   map[string]connection.Conn
	mu       sync.RWMutex
	logger   *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		connList: make(map[connection.Conn]string),
		idList:   make(map[string]connection.Conn),
		logger:   logger,
	}
}

func (r *repo) Add(conn connection.Conn, memberId string) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "member_id", memberId)
	if _, ok := r.connList[conn]; ok {
		return connection.ErrAlreadyExists
	}
	if _, ok := r.idList[memberId]; ok {
		return connection.ErrAlreadyExists
	}

	r.connList[conn] = memberId
	r.idList[memberId] = conn

	return nil
}

func (r *repo) RemoveByMemberId(memberId string) (connection.Conn, error) {
	funcName := "connection.inmemory.RemoveByMemberId"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "member_id", memberId)
	conn, ok := r.idList[memberId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, memberId)

	return conn, nil
}

// GetConns returns the connections of the given members, skipping the ones
// that are gone.
func (r *repo) GetConns(memberIds []string) []connection.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]connection.Conn, 0, len(memberIds))
	for _, id := range memberIds {
		if conn, ok := r.idList[id]; ok {
			conns = append(conns, conn)
		}
	}

	return conns
}
