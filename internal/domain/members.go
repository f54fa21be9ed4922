package domain

import (
	"errors"
	"time"

	"golang.org/x/exp/slices"
)

var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("member already exists")
	ErrMembersLimitReached = errors.New("members limit reached")
)

type MemberFile struct {
	Name       string `json:"name"`
	FileName   string `json:"file_name"`
	Type       string `json:"type"`
	Size       string `json:"size"`
	UploadedAt int64  `json:"uploaded_at"`
}

type Member struct {
	Id                string       `json:"id"`
	Files             []MemberFile `json:"files"`
	SelectedFileIndex *int         `json:"selected_file_index"`
	SelectedFileName  string       `json:"selected_file_name"`
	JoinedAt          int64        `json:"joined_at"`
	JoinSeq           uint64       `json:"join_seq"`
}

func (m Member) HasSelection() bool {
	return m.SelectedFileIndex != nil
}

// joinedBefore orders members by join time, join sequence breaks ties.
func (m Member) joinedBefore(other Member) bool {
	if m.JoinedAt != other.JoinedAt {
		return m.JoinedAt < other.JoinedAt
	}

	return m.JoinSeq < other.JoinSeq
}

func (m *Member) declare(file MemberFile) {
	m.Files = slices.DeleteFunc(m.Files, func(f MemberFile) bool {
		return f.FileName == file.FileName
	})
	m.Files = append(m.Files, file)
}

func (m Member) clone() Member {
	c := m
	c.Files = slices.Clone(m.Files)
	if m.SelectedFileIndex != nil {
		idx := *m.SelectedFileIndex
		c.SelectedFileIndex = &idx
	}

	return c
}

func (r Room) memberIndex(id string) int {
	return slices.IndexFunc(r.Members, func(m Member) bool {
		return m.Id == id
	})
}

func (r Room) GetMember(id string) (Member, error) {
	idx := r.memberIndex(id)
	if idx == -1 {
		return Member{}, ErrMemberNotFound
	}

	return r.Members[idx], nil
}

func (r Room) HasMember(id string) bool {
	return r.memberIndex(id) != -1
}

func (r Room) MemberIds() []string {
	ids := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		ids = append(ids, m.Id)
	}

	return ids
}

func (r Room) MemberCount() int {
	return len(r.Members)
}

func (r Room) IsEmpty() bool {
	return len(r.Members) == 0
}

// AddMember appends a member. The first member of an empty room becomes host.
// limit <= 0 means no limit.
func (r *Room) AddMember(id string, limit int, now time.Time) (Member, error) {
	if r.HasMember(id) {
		return Member{}, ErrMemberAlreadyExists
	}

	if limit > 0 && len(r.Members) >= limit {
		return Member{}, ErrMembersLimitReached
	}

	r.JoinSeq++
	member := Member{
		Id:       id,
		Files:    []MemberFile{},
		JoinedAt: now.UnixMilli(),
		JoinSeq:  r.JoinSeq,
	}
	r.Members = append(r.Members, member)

	if len(r.Members) == 1 {
		r.HostId = id
	}

	return member, nil
}

type RemoveMemberResult struct {
	Member          Member
	WasHost         bool
	NewHostId       string
	PlaylistChanged bool
}

// RemoveMember drops a member, hands the host role to the earliest remaining
// joiner and withdraws the files the member uploaded first.
func (r *Room) RemoveMember(id string, now time.Time) (RemoveMemberResult, error) {
	idx := r.memberIndex(id)
	if idx == -1 {
		return RemoveMemberResult{}, ErrMemberNotFound
	}

	removed := r.Members[idx]
	r.Members = slices.Delete(r.Members, idx, idx+1)

	res := RemoveMemberResult{
		Member:  removed,
		WasHost: r.HostId == id,
	}

	if res.WasHost {
		r.HostId = ""
		if successor, ok := r.earliestMember(); ok {
			r.HostId = successor.Id
		}
	}
	res.NewHostId = r.HostId

	res.PlaylistChanged = r.withdrawFiles(id, now)

	return res, nil
}

func (r Room) earliestMember() (Member, bool) {
	if len(r.Members) == 0 {
		return Member{}, false
	}

	earliest := r.Members[0]
	for _, m := range r.Members[1:] {
		if m.joinedBefore(earliest) {
			earliest = m
		}
	}

	return earliest, true
}

// SelectFile records which playlist entry a member has picked locally. A nil
// index clears the selection.
func (r *Room) SelectFile(memberId string, index *int, fileName string) error {
	idx := r.memberIndex(memberId)
	if idx == -1 {
		return ErrMemberNotFound
	}

	m := &r.Members[idx]
	if index == nil {
		m.SelectedFileIndex = nil
		m.SelectedFileName = ""
		return nil
	}

	selected := *index
	m.SelectedFileIndex = &selected
	m.SelectedFileName = fileName

	return nil
}

func (r Room) AllMembersSelected() bool {
	if len(r.Members) == 0 {
		return false
	}

	for _, m := range r.Members {
		if !m.HasSelection() {
			return false
		}
	}

	return true
}
