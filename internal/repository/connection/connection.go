package connection

import "errors"

var (
	ErrAlreadyExists = errors.New("connection already exists")
	ErrNotFound      = errors.New("connection not found")
)

// Conn is the outbound side of a member connection. Send must not block.
type Conn interface {
	Send(v any) error
	Close() error
}
