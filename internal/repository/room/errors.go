package room

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrInvalidRoom    = errors.New("invalid room")
	ErrStorageCorrupt = errors.New("stored room is corrupt")
)
