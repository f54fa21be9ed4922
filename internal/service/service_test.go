package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	connInmemory "github.com/syncwatch/server/internal/repository/connection/inmemory"
	roomInmemory "github.com/syncwatch/server/internal/repository/room/inmemory"
	roomRedis "github.com/syncwatch/server/internal/repository/room/redis"
)

const roomId = "ABCDEF"

type fakeConn struct {
	mu     sync.Mutex
	msgs   []Output
	closed bool
}

func (c *fakeConn) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.msgs = append(c.msgs, *v.(*Output))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}

func (c *fakeConn) ofType(msgType string) []Output {
	c.mu.Lock()
	defer c.mu.Unlock()

	var res []Output
	for _, m := range c.msgs {
		if m.Type == msgType {
			res = append(res, m)
		}
	}

	return res
}

func (c *fakeConn) last(t *testing.T, msgType string) Output {
	t.Helper()
	msgs := c.ofType(msgType)
	require.NotEmpty(t, msgs, "no %s message received", msgType)

	return msgs[len(msgs)-1]
}

type harness struct {
	*service
	clock *clock.Mock
	conns map[string]*fakeConn
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	mock := clock.NewMock()
	mock.Set(time.UnixMilli(1_700_000_000_000))
	cfg.Clock = mock

	s := New(roomInmemory.NewRepo(slog.Default()), connInmemory.NewRepo(slog.Default()), &cfg, slog.Default())

	return &harness{service: s, clock: mock, conns: make(map[string]*fakeConn)}
}

func (h *harness) connect(t *testing.T, memberId string) *fakeConn {
	t.Helper()
	conn := &fakeConn{}
	require.NoError(t, h.ConnectMember(context.Background(), &ConnectMemberParams{
		Conn:     conn,
		MemberId: memberId,
	}))
	h.conns[memberId] = conn

	return conn
}

func (h *harness) join(t *testing.T, memberId string) JoinRoomResponse {
	t.Helper()
	if _, ok := h.conns[memberId]; !ok {
		h.connect(t, memberId)
	}

	resp, err := h.JoinRoom(context.Background(), &JoinRoomParams{RoomId: roomId, SenderId: memberId})
	require.NoError(t, err)

	return resp
}

func (h *harness) addFile(t *testing.T, memberId, fileName string) AddFileResponse {
	t.Helper()
	resp, err := h.AddFile(context.Background(), &AddFileParams{
		FileName: fileName,
		Type:     "video",
		Size:     "700 MB",
		SenderId: memberId,
		RoomId:   roomId,
	})
	require.NoError(t, err)

	return resp
}

func ptr[T any](v T) *T {
	return &v
}

func TestJoinRoom(t *testing.T) {
	h := newHarness(t, Config{MembersLimit: 2})

	first := h.join(t, "a")
	assert.True(t, first.IsHost, "first member must become host")
	assert.Equal(t, 1, first.RoomState.MemberCount)
	assert.Equal(t, -1, first.RoomState.CurrentIndex)

	ack := h.conns["a"].last(t, TypeJoinRoom).Payload.(JoinRoomResult)
	assert.True(t, ack.Success)
	assert.True(t, ack.IsHost)
	assert.Equal(t, "a", ack.MemberId)

	second := h.join(t, "b")
	assert.False(t, second.IsHost)
	assert.Equal(t, "a", second.RoomState.HostId)

	joined := h.conns["a"].last(t, TypeMemberJoined).Payload.(MemberJoined)
	assert.Equal(t, MemberJoined{MemberId: "b", MemberCount: 2}, joined)
	assert.Empty(t, h.conns["b"].ofType(TypeMemberJoined), "joiner must not be told about itself")

	h.connect(t, "c")
	_, err := h.JoinRoom(context.Background(), &JoinRoomParams{RoomId: roomId, SenderId: "c"})
	assert.ErrorIs(t, err, ErrRoomFull)

	_, err = h.JoinRoom(context.Background(), &JoinRoomParams{RoomId: roomId, SenderId: "b"})
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	for _, code := range []string{"", "abcdef", "ABCDE", "ABCDEFG", "ABC-EF"} {
		_, err = h.JoinRoom(context.Background(), &JoinRoomParams{RoomId: code, SenderId: "c"})
		assert.ErrorIs(t, err, ErrInvalidRoomCode, "code %q", code)
	}
}

func TestLeaveRoomHostHandoff(t *testing.T) {
	h := newHarness(t, Config{})
	h.join(t, "a")
	h.join(t, "b")
	h.join(t, "c")

	resp, err := h.DisconnectMember(context.Background(), &DisconnectMemberParams{MemberId: "a", RoomId: roomId})
	require.NoError(t, err)
	assert.False(t, resp.IsRoomDeleted)
	assert.Equal(t, "b", resp.NewHostId)
	assert.True(t, h.conns["a"].closed)

	for _, id := range []string{"b", "c"} {
		left := h.conns[id].last(t, TypeMemberLeft).Payload.(MemberLeft)
		assert.Equal(t, MemberLeft{MemberId: "a", MemberCount: 2, NewHost: "b"}, left)
	}
	assert.Empty(t, h.conns["a"].ofType(TypeMemberLeft))

	state, err := h.GetRoomState(context.Background(), roomId)
	require.NoError(t, err)
	assert.Equal(t, "b", state.HostId)
}

func TestRoomDeletedAfterLastLeave(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{})
	h.join(t, "a")
	h.addFile(t, "a", "movie.mp4")

	resp, err := h.DisconnectMember(ctx, &DisconnectMemberParams{MemberId: "a", RoomId: roomId})
	require.NoError(t, err)
	assert.True(t, resp.IsRoomDeleted)

	_, err = h.GetRoomState(ctx, roomId)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	rooms, err := h.ListRooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)

	fresh := h.join(t, "b")
	assert.True(t, fresh.IsHost)
	assert.Empty(t, fresh.RoomState.Playlist, "a recreated room starts empty")
	assert.Equal(t, 0, h.locks.size(), "room locks must be released")
}

func TestAddFileMergesAvailability(t *testing.T) {
	h := newHarness(t, Config{})
	h.join(t, "a")
	first := h.addFile(t, "a", "movie.mp4")
	assert.True(t, first.Created)
	assert.Equal(t, "movie", first.Entry.Name)

	h.join(t, "b")
	second := h.addFile(t, "b", "movie.mp4")
	assert.False(t, second.Created)
	assert.Equal(t, first.Entry.Id, second.Entry.Id)

	for _, id := range []string{"a", "b"} {
		update := h.conns[id].last(t, TypeFilesUpdated).Payload.(FilesUpdated)
		require.Len(t, update.Files, 1)
		assert.ElementsMatch(t, []string{"a", "b"}, update.Files[0].AvailableFor)
		assert.Equal(t, []MemberFileCount{{Id: "a", FileCount: 1}, {Id: "b", FileCount: 1}}, update.Members)
	}

	_, err := h.AddFile(context.Background(), &AddFileParams{FileName: "x.mp4", Type: "image", SenderId: "a", RoomId: roomId})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestAddFilePlaylistLimit(t *testing.T) {
	h := newHarness(t, Config{PlaylistLimit: 1})
	h.join(t, "a")
	h.addFile(t, "a", "one.mp4")

	_, err := h.AddFile(context.Background(), &AddFileParams{FileName: "two.mp4", Type: "video", SenderId: "a", RoomId: roomId})
	assert.ErrorIs(t, err, ErrPlaylistFull)
}

func TestSeekSchedulesCommand(t *testing.T) {
	h := newHarness(t, Config{})
	h.join(t, "a")
	h.join(t, "b")
	h.addFile(t, "a", "movie.mp4")

	_, err := h.ControlPlayback(context.Background(), &ControlPlaybackParams{
		Action: "load-video", VideoIndex: ptr(0), SenderId: "a", RoomId: roomId,
	})
	require.NoError(t, err)

	h.clock.Add(time.Second)
	resp, err := h.ControlPlayback(context.Background(), &ControlPlaybackParams{
		Action: "seek", VideoIndex: ptr(0), Time: ptr(42.0), SenderId: "b", RoomId: roomId,
	})
	require.NoError(t, err)

	cmd := resp.Command
	assert.Equal(t, "seek", cmd.Action)
	assert.Equal(t, 42.0, cmd.Time)
	assert.False(t, cmd.IsPlaying)
	assert.Equal(t, h.clock.Now().UnixMilli(), cmd.ServerTimestamp)
	assert.Equal(t, cmd.ServerTimestamp+500, cmd.ExecuteAt)
	assert.Equal(t, uint64(2), cmd.Seq)

	for _, id := range []string{"a", "b"} {
		got := h.conns[id].last(t, TypeSyncCommand).Payload.(SyncCommand)
		assert.Equal(t, cmd, got, "requester and others receive the same command")
	}
}

func TestPlayScenario(t *testing.T) {
	h := newHarness(t, Config{SyncDelay: 500 * time.Millisecond})
	h.join(t, "client1")
	h.addFile(t, "client1", "movie.mp4")
	h.join(t, "client2")
	h.addFile(t, "client2", "movie.mp4")

	state, err := h.GetRoomState(context.Background(), roomId)
	require.NoError(t, err)
	require.Len(t, state.Playlist, 1)
	assert.Len(t, state.Playlist[0].AvailableFor, 2)

	_, err = h.ControlPlayback(context.Background(), &ControlPlaybackParams{
		Action: "play", VideoIndex: ptr(0), Time: ptr(0.0), SenderId: "client1", RoomId: roomId,
	})
	require.NoError(t, err)

	c1 := h.conns["client1"].last(t, TypeSyncCommand).Payload.(SyncCommand)
	c2 := h.conns["client2"].last(t, TypeSyncCommand).Payload.(SyncCommand)
	assert.Equal(t, c1.ExecuteAt, c2.ExecuteAt)
	assert.InDelta(t, 0, c2.Time, 1e-9)
	assert.True(t, c2.IsPlaying)
	assert.Equal(t, "movie.mp4", c2.FileName)
	assert.Equal(t, 0, c2.VideoIndex)
}

func TestRequestSyncUsesClockModel(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{})
	h.join(t, "a")
	h.addFile(t, "a", "movie.mp4")

	_, err := h.ControlPlayback(ctx, &ControlPlaybackParams{
		Action: "play", VideoIndex: ptr(0), Time: ptr(10.0), SenderId: "a", RoomId: roomId,
	})
	require.NoError(t, err)

	h.clock.Add(5 * time.Second)
	update, err := h.RequestSync(ctx, &RequestSyncParams{SenderId: "a", RoomId: roomId})
	require.NoError(t, err)
	assert.InDelta(t, 15.0, update.Time, 1e-9)
	assert.True(t, update.IsPlaying)
	assert.Equal(t, ActionSync, update.Action)

	sent := h.conns["a"].last(t, TypeSyncUpdate).Payload.(SyncUpdate)
	assert.Equal(t, update, sent)

	_, err = h.ControlPlayback(ctx, &ControlPlaybackParams{
		Action: "pause", SenderId: "a", RoomId: roomId,
	})
	require.NoError(t, err)

	cmd := h.conns["a"].last(t, TypeSyncCommand).Payload.(SyncCommand)
	assert.Equal(t, 10.0, cmd.Time, "pause without time keeps the stored base time")
	assert.False(t, cmd.IsPlaying)

	h.clock.Add(time.Minute)
	update, err = h.RequestSync(ctx, &RequestSyncParams{SenderId: "a", RoomId: roomId})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, update.Time, 1e-9, "paused room must not advance")
}

func TestControlPlaybackErrors(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{})
	h.join(t, "a")

	_, err := h.ControlPlayback(ctx, &ControlPlaybackParams{Action: "play", SenderId: "a", RoomId: roomId})
	assert.ErrorIs(t, err, ErrNoVideoLoaded)

	_, err = h.ControlPlayback(ctx, &ControlPlaybackParams{Action: "load-video", VideoIndex: ptr(3), SenderId: "a", RoomId: roomId})
	assert.ErrorIs(t, err, ErrInvalidVideoIndex)

	_, err = h.ControlPlayback(ctx, &ControlPlaybackParams{Action: "rewind", SenderId: "a", RoomId: roomId})
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = h.ControlPlayback(ctx, &ControlPlaybackParams{Action: "seek", Time: ptr(-1.0), SenderId: "a", RoomId: roomId})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	h.addFile(t, "a", "movie.mp4")
	_, err = h.ControlPlayback(ctx, &ControlPlaybackParams{Action: "seek", VideoIndex: ptr(0), SenderId: "a", RoomId: roomId})
	assert.ErrorIs(t, err, ErrInvalidPayload, "seek without time")

	assert.Empty(t, h.conns["a"].ofType(TypeSyncCommand), "failed requests must not broadcast")
}

func TestMissingRoomIsSilent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{})
	h.connect(t, "a")

	_, err := h.ControlPlayback(ctx, &ControlPlaybackParams{Action: "play", SenderId: "a", RoomId: "ZZZZZZ"})
	assert.True(t, Silent(err))

	_, err = h.RequestSync(ctx, &RequestSyncParams{SenderId: "a", RoomId: "ZZZZZZ"})
	assert.True(t, Silent(err))

	h.join(t, "b")
	_, err = h.RequestSync(ctx, &RequestSyncParams{SenderId: "a", RoomId: roomId})
	assert.True(t, Silent(err), "non members are dropped too")
}

func TestPlayPermissionGate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{PlayPermissionGate: true})
	h.join(t, "a")
	h.join(t, "b")
	h.addFile(t, "a", "movie.mp4")

	require.NoError(t, h.SelectFile(ctx, &SelectFileParams{FileIndex: ptr(0), FileName: "movie.mp4", SenderId: "a", RoomId: roomId}))

	check, err := h.CheckPlayPermission(ctx, &CheckPlayPermissionParams{SenderId: "a", RoomId: roomId})
	require.NoError(t, err)
	assert.False(t, check.Granted)
	denied := h.conns["a"].last(t, TypePlayPermissionDenied).Payload.(PlayPermission)
	assert.Equal(t, []string{"b"}, denied.Waiting)
	assert.Empty(t, h.conns["b"].ofType(TypePlayPermissionDenied), "denial goes to the requester only")

	resp, err := h.ControlPlayback(ctx, &ControlPlaybackParams{Action: "play", VideoIndex: ptr(0), SenderId: "a", RoomId: roomId})
	require.NoError(t, err)
	assert.True(t, resp.Denied)
	assert.Empty(t, h.conns["b"].ofType(TypeSyncCommand))

	require.NoError(t, h.SelectFile(ctx, &SelectFileParams{FileIndex: ptr(0), FileName: "movie.mp4", SenderId: "b", RoomId: roomId}))

	check, err = h.CheckPlayPermission(ctx, &CheckPlayPermissionParams{SenderId: "a", RoomId: roomId})
	require.NoError(t, err)
	assert.True(t, check.Granted)
	assert.Len(t, h.conns["b"].ofType(TypePlayPermissionGranted), 1)

	resp, err = h.ControlPlayback(ctx, &ControlPlaybackParams{Action: "play", VideoIndex: ptr(0), SenderId: "a", RoomId: roomId})
	require.NoError(t, err)
	assert.False(t, resp.Denied)
	assert.Len(t, h.conns["b"].ofType(TypeSyncCommand), 1)

	// seek is never gated
	require.NoError(t, h.SelectFile(ctx, &SelectFileParams{SenderId: "b", RoomId: roomId}))
	resp, err = h.ControlPlayback(ctx, &ControlPlaybackParams{Action: "seek", Time: ptr(5.0), SenderId: "a", RoomId: roomId})
	require.NoError(t, err)
	assert.False(t, resp.Denied)
}

func TestPermissionCheckedWithoutGate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{})
	h.join(t, "a")
	h.join(t, "b")
	h.addFile(t, "a", "movie.mp4")

	check, err := h.CheckPlayPermission(ctx, &CheckPlayPermissionParams{SenderId: "b", RoomId: roomId})
	require.NoError(t, err)
	assert.False(t, check.Granted, "an explicit check always looks at member readiness")
	denied := h.conns["b"].last(t, TypePlayPermissionDenied).Payload.(PlayPermission)
	assert.Equal(t, []string{"a", "b"}, denied.Waiting)
	assert.Empty(t, h.conns["a"].ofType(TypePlayPermissionDenied))

	resp, err := h.ControlPlayback(ctx, &ControlPlaybackParams{Action: "play", VideoIndex: ptr(0), SenderId: "a", RoomId: roomId})
	require.NoError(t, err)
	assert.False(t, resp.Denied, "play is not intercepted without the gate")

	for _, id := range []string{"a", "b"} {
		require.NoError(t, h.SelectFile(ctx, &SelectFileParams{FileIndex: ptr(0), FileName: "movie.mp4", SenderId: id, RoomId: roomId}))
	}

	check, err = h.CheckPlayPermission(ctx, &CheckPlayPermissionParams{SenderId: "b", RoomId: roomId})
	require.NoError(t, err)
	assert.True(t, check.Granted)
	assert.Len(t, h.conns["a"].ofType(TypePlayPermissionGranted), 1)
}

func TestDownloadSourceAndTorrent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, Config{})
	h.join(t, "a")
	h.join(t, "b")
	h.addFile(t, "a", "movie.mp4")

	require.NoError(t, h.UpdateDownloadSource(ctx, &UpdateDownloadSourceParams{
		FileIndex: 0, DownloadSource: "https://example.com/movie.mp4", SenderId: "b", RoomId: roomId,
	}))
	for _, id := range []string{"a", "b"} {
		assert.Len(t, h.conns[id].ofType(TypeDownloadSourceUpdated), 1, "exactly one broadcast per update")
	}

	err := h.UpdateDownloadSource(ctx, &UpdateDownloadSourceParams{FileIndex: 5, SenderId: "b", RoomId: roomId})
	assert.ErrorIs(t, err, ErrInvalidVideoIndex)

	data := json.RawMessage(`{"opaque":[1,2,3]}`)
	require.NoError(t, h.UploadTorrent(ctx, &UploadTorrentParams{
		FileIndex: 0, TorrentData: data, TorrentFileName: "movie.torrent", SenderId: "a", RoomId: roomId,
	}))
	relayed := h.conns["b"].last(t, TypeTorrentUploaded).Payload.(TorrentUploaded)
	assert.JSONEq(t, string(data), string(relayed.TorrentData))

	state, err := h.GetRoomState(ctx, roomId)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/movie.mp4", state.DownloadSources[0])
	assert.Equal(t, "movie.torrent", state.TorrentFiles[0].TorrentFileName)
}

func TestLeaveWithdrawsUploaderFiles(t *testing.T) {
	h := newHarness(t, Config{})
	h.join(t, "a")
	h.join(t, "b")
	h.addFile(t, "a", "movie.mp4")
	h.addFile(t, "b", "movie.mp4")

	_, err := h.LeaveRoom(context.Background(), &LeaveRoomParams{SenderId: "a", RoomId: roomId})
	require.NoError(t, err)

	update := h.conns["b"].last(t, TypeFilesUpdated).Payload.(FilesUpdated)
	assert.Empty(t, update.Files)
}

func TestListRooms(t *testing.T) {
	h := newHarness(t, Config{})
	h.join(t, "a")
	h.addFile(t, "a", "movie.mp4")

	rooms, err := h.ListRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, RoomSummary{Id: roomId, MemberCount: 1, CurrentTrack: "No track"}, rooms[0])

	_, err = h.ControlPlayback(context.Background(), &ControlPlaybackParams{
		Action: "play", VideoIndex: ptr(0), SenderId: "a", RoomId: roomId,
	})
	require.NoError(t, err)

	rooms, err = h.ListRooms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "movie", rooms[0].CurrentTrack)
	assert.True(t, rooms[0].IsPlaying)
}

func TestPing(t *testing.T) {
	h := newHarness(t, Config{})
	h.connect(t, "a")

	pong := h.Ping(context.Background(), &PingParams{ClientTime: 123, SenderId: "a"})
	assert.Equal(t, int64(123), pong.ClientTime)
	assert.Equal(t, h.clock.Now().UnixMilli(), pong.ServerTime)
	assert.Len(t, h.conns["a"].ofType(TypePong), 1)
}

func TestConcurrentFirstJoin(t *testing.T) {
	h := newHarness(t, Config{})
	const n = 32

	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("m%02d", i)
		h.connect(t, ids[i])
	}

	var wg sync.WaitGroup
	hosts := make(chan string, n)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			resp, err := h.JoinRoom(context.Background(), &JoinRoomParams{RoomId: roomId, SenderId: id})
			if assert.NoError(t, err) && resp.IsHost {
				hosts <- id
			}
		}(id)
	}
	wg.Wait()
	close(hosts)

	assert.Len(t, hosts, 1, "exactly one joiner creates the room")

	state, err := h.GetRoomState(context.Background(), roomId)
	require.NoError(t, err)
	assert.Equal(t, n, state.MemberCount)
}

func TestRedisBackedService(t *testing.T) {
	ctx := context.Background()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rc.Close()

	mock := clock.NewMock()
	mock.Set(time.UnixMilli(1_700_000_000_000))
	svc := New(
		roomRedis.NewRepo(rc, time.Hour, slog.Default()),
		connInmemory.NewRepo(slog.Default()),
		&Config{Clock: mock},
		slog.Default(),
	)

	a, b := &fakeConn{}, &fakeConn{}
	require.NoError(t, svc.ConnectMember(ctx, &ConnectMemberParams{Conn: a, MemberId: "a"}))
	require.NoError(t, svc.ConnectMember(ctx, &ConnectMemberParams{Conn: b, MemberId: "b"}))

	_, err := svc.JoinRoom(ctx, &JoinRoomParams{RoomId: roomId, SenderId: "a"})
	require.NoError(t, err)
	_, err = svc.JoinRoom(ctx, &JoinRoomParams{RoomId: roomId, SenderId: "b"})
	require.NoError(t, err)

	for _, id := range []string{"a", "b"} {
		_, err = svc.AddFile(ctx, &AddFileParams{FileName: "movie.mp4", Type: "video", SenderId: id, RoomId: roomId})
		require.NoError(t, err)
	}

	resp, err := svc.ControlPlayback(ctx, &ControlPlaybackParams{
		Action: "play", VideoIndex: ptr(0), Time: ptr(10.0), SenderId: "a", RoomId: roomId,
	})
	require.NoError(t, err)
	assert.Equal(t, resp.Command.ServerTimestamp+500, resp.Command.ExecuteAt)

	mock.Add(5 * time.Second)
	state, err := svc.GetRoomState(ctx, roomId)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, state.CurrentTime, 1e-9)
	assert.Len(t, state.Playlist[0].AvailableFor, 2)

	leave, err := svc.DisconnectMember(ctx, &DisconnectMemberParams{MemberId: "a", RoomId: roomId})
	require.NoError(t, err)
	assert.Equal(t, "b", leave.NewHostId)

	leave, err = svc.DisconnectMember(ctx, &DisconnectMemberParams{MemberId: "b", RoomId: roomId})
	require.NoError(t, err)
	assert.True(t, leave.IsRoomDeleted)
	assert.False(t, s.Exists("room:"+roomId))
}
