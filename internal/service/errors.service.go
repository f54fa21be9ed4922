package service

import (
	"errors"
	"fmt"

	"github.com/syncwatch/server/internal/domain"
)

// Error is a request error reported back to the client under Code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrInvalidRoomCode   = &Error{Code: "INVALID_CODE", Message: "room code must be 6 uppercase letters or digits"}
	ErrRoomFull          = &Error{Code: "ROOM_FULL", Message: "room is full"}
	ErrAlreadyJoined     = &Error{Code: "ALREADY_JOINED", Message: "already joined this room"}
	ErrPlaylistFull      = &Error{Code: "PLAYLIST_FULL", Message: "playlist limit reached"}
	ErrNoVideoLoaded     = &Error{Code: "NO_VIDEO_LOADED", Message: "no video loaded"}
	ErrInvalidVideoIndex = &Error{Code: "INVALID_VIDEO_INDEX", Message: "video index is out of range"}
	ErrUnknownAction     = &Error{Code: "UNKNOWN_ACTION", Message: "unknown playback action"}
	ErrInvalidPayload    = &Error{Code: "INVALID_PAYLOAD", Message: "invalid payload"}
)

// Silent reports errors that are dropped without telling the client.
func Silent(err error) bool {
	return errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrMemberNotFound)
}

func invalidPayload(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
}

func mapDomainError(err error) error {
	switch {
	case errors.Is(err, domain.ErrMemberNotFound):
		return ErrMemberNotFound
	case errors.Is(err, domain.ErrMemberAlreadyExists):
		return ErrAlreadyJoined
	case errors.Is(err, domain.ErrMembersLimitReached):
		return ErrRoomFull
	case errors.Is(err, domain.ErrPlaylistLimitReached):
		return ErrPlaylistFull
	case errors.Is(err, domain.ErrNoVideoLoaded):
		return ErrNoVideoLoaded
	case errors.Is(err, domain.ErrInvalidVideoId):
		return ErrInvalidVideoIndex
	case errors.Is(err, domain.ErrUnknownAction):
		return ErrUnknownAction
	case errors.Is(err, domain.ErrTimeRequired):
		return invalidPayload(err)
	}

	return err
}
