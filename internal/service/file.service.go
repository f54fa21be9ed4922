package service

import (
	"context"
	"encoding/json"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/syncwatch/server/internal/domain"
)

type AddFileParams struct {
	Name     string `json:"name"`
	FileName string `json:"file_name"`
	Type     string `json:"type"`
	Size     string `json:"size"`
	SenderId string `json:"sender_id"`
	RoomId   string `json:"room_id"`
}

type AddFileResponse struct {
	Entry   FileEntry
	Index   int
	Created bool
}

// AddFile merges the declared file into the playlist and re-sends the whole
// playlist to the room.
func (s service) AddFile(ctx context.Context, params *AddFileParams) (AddFileResponse, error) {
	if err := validation.ValidateStructWithContext(ctx, params,
		validation.Field(&params.Name, validation.Length(0, 255)),
		validation.Field(&params.FileName, FileNameRule...),
		validation.Field(&params.Type, FileTypeRule...),
		validation.Field(&params.Size, validation.Length(0, 32)),
	); err != nil {
		return AddFileResponse{}, invalidPayload(err)
	}

	var resp AddFileResponse
	err := s.withRoom(ctx, params.RoomId, false, func(rm *domain.Room, op *roomOp) error {
		res, err := rm.DeclareFile(params.SenderId, domain.FileDeclaration{
			Name:     params.Name,
			FileName: params.FileName,
			Type:     params.Type,
			Size:     params.Size,
		}, s.playlistLimit, s.clock.Now(), s.generateId)
		if err != nil {
			return mapDomainError(err)
		}

		resp = AddFileResponse{
			Entry:   mapFileEntry(res.Entry),
			Index:   res.Index,
			Created: res.Created,
		}
		op.send(rm.MemberIds(), TypeFilesUpdated, filesUpdated(rm))

		return nil
	})
	if err != nil {
		return AddFileResponse{}, err
	}

	return resp, nil
}

type SelectFileParams struct {
	// FileIndex nil clears the selection.
	FileIndex *int   `json:"file_index"`
	FileName  string `json:"file_name"`
	SenderId  string `json:"sender_id"`
	RoomId    string `json:"room_id"`
}

func (s service) SelectFile(ctx context.Context, params *SelectFileParams) error {
	if err := validation.ValidateStructWithContext(ctx, params,
		validation.Field(&params.FileIndex, FileIndexRule...),
	); err != nil {
		return invalidPayload(err)
	}

	return s.withRoom(ctx, params.RoomId, false, func(rm *domain.Room, _ *roomOp) error {
		return mapDomainError(rm.SelectFile(params.SenderId, params.FileIndex, params.FileName))
	})
}

type UpdateDownloadSourceParams struct {
	FileIndex      int    `json:"file_index"`
	DownloadSource string `json:"download_source"`
	SenderId       string `json:"sender_id"`
	RoomId         string `json:"room_id"`
}

func (s service) UpdateDownloadSource(ctx context.Context, params *UpdateDownloadSourceParams) error {
	if err := validation.ValidateStructWithContext(ctx, params,
		validation.Field(&params.FileIndex, FileIndexRule...),
		validation.Field(&params.DownloadSource, validation.Length(0, 2048)),
	); err != nil {
		return invalidPayload(err)
	}

	return s.withRoom(ctx, params.RoomId, false, func(rm *domain.Room, op *roomOp) error {
		if !rm.HasMember(params.SenderId) {
			return ErrMemberNotFound
		}
		if !rm.ValidIndex(params.FileIndex) {
			return ErrInvalidVideoIndex
		}

		rm.SetDownloadSource(params.FileIndex, params.DownloadSource)
		op.send(rm.MemberIds(), TypeDownloadSourceUpdated, DownloadSourceUpdated{
			FileIndex:      params.FileIndex,
			DownloadSource: params.DownloadSource,
		})

		return nil
	})
}

type UploadTorrentParams struct {
	FileIndex       int             `json:"file_index"`
	TorrentData     json.RawMessage `json:"torrent_data"`
	TorrentFileName string          `json:"torrent_file_name"`
	SenderId        string          `json:"sender_id"`
	RoomId          string          `json:"room_id"`
}

// UploadTorrent stores and relays the torrent attachment without looking
// inside it.
func (s service) UploadTorrent(ctx context.Context, params *UploadTorrentParams) error {
	if err := validation.ValidateStructWithContext(ctx, params,
		validation.Field(&params.FileIndex, FileIndexRule...),
		validation.Field(&params.TorrentFileName, validation.Required, validation.Length(1, 255)),
	); err != nil {
		return invalidPayload(err)
	}

	return s.withRoom(ctx, params.RoomId, false, func(rm *domain.Room, op *roomOp) error {
		if !rm.HasMember(params.SenderId) {
			return ErrMemberNotFound
		}
		if !rm.ValidIndex(params.FileIndex) {
			return ErrInvalidVideoIndex
		}

		rm.SetTorrentFile(params.FileIndex, domain.TorrentFile{
			TorrentData:     params.TorrentData,
			TorrentFileName: params.TorrentFileName,
		})
		op.send(rm.MemberIds(), TypeTorrentUploaded, TorrentUploaded{
			FileIndex:       params.FileIndex,
			TorrentData:     params.TorrentData,
			TorrentFileName: params.TorrentFileName,
		})

		return nil
	})
}
