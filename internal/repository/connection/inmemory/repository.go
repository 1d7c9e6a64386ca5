package inmemory

import (
	"log/slog"
	"sync"

	"github.com/sharetube/watchparty/internal/repository/connection"
)

type repo struct {
	connList map[*connection.Conn]string
	idList   map[string]*connection.Conn
	mu       sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		connList: make(map[*connection.Conn]string),
		idList:   make(map[string]*connection.Conn),
	}
}

func (r *repo) Add(conn *connection.Conn, memberId string) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "member_id", memberId)
	if _, ok := r.connList[conn]; ok {
		slog.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}
	if _, ok := r.idList[memberId]; ok {
		slog.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.connList[conn] = memberId
	r.idList[memberId] = conn

	slog.Debug(funcName, "result", "OK")
	return nil
}

// RemoveByMemberId forgets the connection. Closing it is up to the owner.
func (r *repo) RemoveByMemberId(memberId string) error {
	funcName := "connection.inmemory.RemoveByMemberId"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "member_id", memberId)
	conn, ok := r.idList[memberId]
	if !ok {
		slog.Info(funcName, "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, memberId)

	slog.Debug(funcName, "result", "OK")
	return nil
}

func (r *repo) GetMemberId(conn *connection.Conn) (string, error) {
	funcName := "connection.inmemory.GetMemberId"
	r.mu.RLock()
	defer r.mu.RUnlock()

	memberId, ok := r.connList[conn]
	if !ok {
		slog.Info(funcName, "error", connection.ErrNotFound)
		return "", connection.ErrNotFound
	}

	return memberId, nil
}

func (r *repo) GetConn(memberId string) (*connection.Conn, error) {
	funcName := "connection.inmemory.GetConn"
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.idList[memberId]
	if !ok {
		slog.Debug(funcName, "member_id", memberId, "error", connection.ErrNotFound)
		return nil, connection.ErrNotFound
	}

	return conn, nil
}

func (r *repo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.idList)
}
