package domain

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func seqIds() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("file-%d", n)
	}
}

func TestPlayerCurrentTime(t *testing.T) {
	start := time.UnixMilli(1_700_000_000_000)

	p := NewPlayer(start)
	p.CurrentIndex = 0
	p.Play(ptr(10.0), start)

	assert.InDelta(t, 15.0, p.CurrentTime(start.Add(5*time.Second)), 1e-9)
	assert.InDelta(t, 10.0, p.CurrentTime(start), 1e-9)

	p.Pause(ptr(10.0), start)
	assert.Equal(t, 10.0, p.CurrentTime(start.Add(time.Hour)), "paused player must not advance")
}

func TestPlayerWithoutTimeKeepsBaseTime(t *testing.T) {
	start := time.UnixMilli(1_700_000_000_000)

	p := NewPlayer(start)
	p.CurrentIndex = 0
	p.Play(ptr(3.0), start)

	later := start.Add(2 * time.Second)
	p.Pause(nil, later)
	assert.False(t, p.IsPlaying)
	assert.Equal(t, 3.0, p.BaseTime)
	assert.Equal(t, later.UnixMilli(), p.LastUpdate)

	p.Play(nil, later.Add(time.Minute))
	assert.True(t, p.IsPlaying)
	assert.Equal(t, 3.0, p.BaseTime)

	p.Pause(ptr(0.0), later.Add(2*time.Minute))
	assert.Equal(t, 0.0, p.BaseTime, "explicit zero is a real time")
}

func TestAddMemberFirstBecomesHost(t *testing.T) {
	now := time.Now()
	r := NewRoom("ABCDEF", 500*time.Millisecond, now)

	_, err := r.AddMember("a", 9, now)
	require.NoError(t, err)
	_, err = r.AddMember("b", 9, now)
	require.NoError(t, err)

	assert.Equal(t, "a", r.HostId)
	assert.Equal(t, 2, r.MemberCount())

	_, err = r.AddMember("a", 9, now)
	assert.ErrorIs(t, err, ErrMemberAlreadyExists)
}

func TestAddMemberLimit(t *testing.T) {
	now := time.Now()
	r := NewRoom("ABCDEF", 0, now)

	_, err := r.AddMember("a", 1, now)
	require.NoError(t, err)

	_, err = r.AddMember("b", 1, now)
	assert.ErrorIs(t, err, ErrMembersLimitReached)
}

func TestRemoveMemberHostHandoff(t *testing.T) {
	now := time.Now()
	r := NewRoom("ABCDEF", 0, now)
	for _, id := range []string{"a", "b", "c"} {
		_, err := r.AddMember(id, 0, now)
		require.NoError(t, err)
	}

	res, err := r.RemoveMember("a", now)
	require.NoError(t, err)
	assert.True(t, res.WasHost)
	assert.Equal(t, "b", res.NewHostId, "earliest remaining joiner must become host")
	assert.Equal(t, "b", r.HostId)

	res, err = r.RemoveMember("c", now)
	require.NoError(t, err)
	assert.False(t, res.WasHost)
	assert.Equal(t, "b", res.NewHostId)

	_, err = r.RemoveMember("b", now)
	require.NoError(t, err)
	assert.True(t, r.IsEmpty())
	assert.Empty(t, r.HostId)

	_, err = r.RemoveMember("b", now)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestRemoveMemberPrefersEarliestJoinedAt(t *testing.T) {
	now := time.Now()
	r := NewRoom("ABCDEF", 0, now)
	_, _ = r.AddMember("a", 0, now)
	_, _ = r.AddMember("b", 0, now.Add(time.Second))
	_, _ = r.AddMember("c", 0, now.Add(2*time.Second))

	// out of order storage must not matter
	r.Members[1], r.Members[2] = r.Members[2], r.Members[1]

	res, err := r.RemoveMember("a", now)
	require.NoError(t, err)
	assert.Equal(t, "b", res.NewHostId)
}

func TestHostAlwaysMember(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	now := time.Now()
	r := NewRoom("ABCDEF", 0, now)
	next := 0

	for i := 0; i < 500; i++ {
		if r.IsEmpty() || rng.Intn(2) == 0 {
			next++
			_, err := r.AddMember(fmt.Sprintf("m%d", next), 0, now)
			require.NoError(t, err)
		} else {
			victim := r.Members[rng.Intn(len(r.Members))].Id
			_, err := r.RemoveMember(victim, now)
			require.NoError(t, err)
		}

		if r.IsEmpty() {
			assert.Empty(t, r.HostId)
		} else {
			assert.True(t, r.HasMember(r.HostId), "host %q must be a member", r.HostId)
		}
	}
}

func TestDeclareFileMergesByFileName(t *testing.T) {
	now := time.Now()
	newId := seqIds()
	r := NewRoom("ABCDEF", 0, now)
	_, _ = r.AddMember("a", 0, now)
	_, _ = r.AddMember("b", 0, now)

	decl := FileDeclaration{FileName: "movie.mp4", Type: "video", Size: "1.2 GB"}

	res, err := r.DeclareFile("a", decl, 0, now, newId)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "movie", res.Entry.Name, "display name must strip the extension")

	res, err = r.DeclareFile("b", decl, 0, now, newId)
	require.NoError(t, err)
	assert.False(t, res.Created)

	res, err = r.DeclareFile("b", decl, 0, now, newId)
	require.NoError(t, err)

	require.Len(t, r.Playlist, 1)
	assert.Equal(t, []string{"a", "b"}, r.Playlist[0].AvailableFor)
	assert.Equal(t, "a", r.Playlist[0].UploadedBy)

	b, err := r.GetMember("b")
	require.NoError(t, err)
	assert.Len(t, b.Files, 1, "redeclaring must not duplicate the member file list")
}

func TestDeclareFilePlaylistLimit(t *testing.T) {
	now := time.Now()
	newId := seqIds()
	r := NewRoom("ABCDEF", 0, now)
	_, _ = r.AddMember("a", 0, now)

	_, err := r.DeclareFile("a", FileDeclaration{FileName: "one.mp4", Type: "video"}, 1, now, newId)
	require.NoError(t, err)

	_, err = r.DeclareFile("a", FileDeclaration{FileName: "two.mp4", Type: "video"}, 1, now, newId)
	assert.ErrorIs(t, err, ErrPlaylistLimitReached)

	_, err = r.DeclareFile("a", FileDeclaration{FileName: "one.mp4", Type: "video"}, 1, now, newId)
	assert.NoError(t, err, "merging into an existing entry is not limited")
}

func TestRemoveMemberWithdrawsUploadedFiles(t *testing.T) {
	now := time.Now()
	newId := seqIds()
	r := NewRoom("ABCDEF", 0, now)
	_, _ = r.AddMember("a", 0, now)
	_, _ = r.AddMember("b", 0, now)

	_, _ = r.DeclareFile("a", FileDeclaration{FileName: "first.mp4", Type: "video"}, 0, now, newId)
	_, _ = r.DeclareFile("b", FileDeclaration{FileName: "first.mp4", Type: "video"}, 0, now, newId)
	_, _ = r.DeclareFile("b", FileDeclaration{FileName: "second.mp4", Type: "video"}, 0, now, newId)
	r.SetDownloadSource(1, "https://example.com/second")

	require.NoError(t, r.ApplyPlayback(PlaybackRequest{Action: ActionLoadVideo, VideoIndex: ptr(1)}, now))

	res, err := r.RemoveMember("a", now)
	require.NoError(t, err)
	assert.True(t, res.PlaylistChanged)

	require.Len(t, r.Playlist, 1, "entry uploaded by the leaver is dropped even if others have it")
	assert.Equal(t, "second.mp4", r.Playlist[0].FileName)
	assert.Equal(t, 0, r.Player.CurrentIndex, "active selection follows its entry")
	assert.Equal(t, map[int]string{0: "https://example.com/second"}, r.DownloadSources)
}

func TestRemoveMemberStopsWhenActiveEntryDropped(t *testing.T) {
	now := time.Now()
	r := NewRoom("ABCDEF", 0, now)
	_, _ = r.AddMember("a", 0, now)
	_, _ = r.AddMember("b", 0, now)
	_, _ = r.DeclareFile("a", FileDeclaration{FileName: "x.mp4", Type: "video"}, 0, now, seqIds())
	require.NoError(t, r.ApplyPlayback(PlaybackRequest{Action: ActionPlay, VideoIndex: ptr(0), Time: ptr(4.0)}, now))

	_, err := r.RemoveMember("a", now)
	require.NoError(t, err)

	assert.False(t, r.Player.IsLoaded())
	assert.False(t, r.Player.IsPlaying)
}

func TestApplyPlayback(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	r := NewRoom("ABCDEF", 0, now)
	_, _ = r.AddMember("a", 0, now)

	err := r.ApplyPlayback(PlaybackRequest{Action: ActionPlay}, now)
	assert.ErrorIs(t, err, ErrNoVideoLoaded)

	err = r.ApplyPlayback(PlaybackRequest{Action: ActionLoadVideo, VideoIndex: ptr(0)}, now)
	assert.ErrorIs(t, err, ErrInvalidVideoId)

	_, _ = r.DeclareFile("a", FileDeclaration{Name: "Movie", FileName: "movie.mp4", Type: "video"}, 0, now, seqIds())

	require.NoError(t, r.ApplyPlayback(PlaybackRequest{Action: ActionLoadVideo, VideoIndex: ptr(0)}, now))
	assert.Equal(t, "Movie", r.Player.CurrentVideoName)
	assert.Equal(t, "movie.mp4", r.Player.CurrentFileName)
	assert.False(t, r.Player.IsPlaying)

	err = r.ApplyPlayback(PlaybackRequest{Action: ActionSeek}, now)
	assert.ErrorIs(t, err, ErrTimeRequired)

	require.NoError(t, r.ApplyPlayback(PlaybackRequest{Action: ActionPlay, Time: ptr(2.0)}, now))
	assert.True(t, r.Player.IsPlaying)

	later := now.Add(3 * time.Second)
	require.NoError(t, r.ApplyPlayback(PlaybackRequest{Action: ActionSeek, Time: ptr(42.0)}, later))
	assert.True(t, r.Player.IsPlaying, "seek keeps the transport state")
	assert.Equal(t, 42.0, r.CurrentTime(later))

	require.NoError(t, r.ApplyPlayback(PlaybackRequest{Action: ActionPause}, later.Add(time.Second)))
	assert.Equal(t, 42.0, r.Player.BaseTime, "pause without time keeps the stored base")

	err = r.ApplyPlayback(PlaybackRequest{Action: "rewind"}, now)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestSelectFileAndGate(t *testing.T) {
	now := time.Now()
	r := NewRoom("ABCDEF", 0, now)
	_, _ = r.AddMember("a", 0, now)
	_, _ = r.AddMember("b", 0, now)

	require.NoError(t, r.SelectFile("a", ptr(0), "movie.mp4"))
	assert.False(t, r.AllMembersSelected())

	require.NoError(t, r.SelectFile("b", ptr(0), "movie.mp4"))
	assert.True(t, r.AllMembersSelected())

	require.NoError(t, r.SelectFile("b", nil, ""))
	assert.False(t, r.AllMembersSelected())

	assert.ErrorIs(t, r.SelectFile("zzz", ptr(0), ""), ErrMemberNotFound)
}

func TestCloneDoesNotAlias(t *testing.T) {
	now := time.Now()
	r := NewRoom("ABCDEF", 0, now)
	_, _ = r.AddMember("a", 0, now)
	_, _ = r.DeclareFile("a", FileDeclaration{FileName: "x.mp4", Type: "video"}, 0, now, seqIds())

	c := r.Clone()
	c.Playlist[0].AvailableFor[0] = "changed"
	c.Members[0].Files[0].Name = "changed"
	c.SetDownloadSource(0, "src")

	assert.Equal(t, "a", r.Playlist[0].AvailableFor[0])
	assert.Equal(t, "x", r.Members[0].Files[0].Name)
	assert.Empty(t, r.DownloadSources)
}
