package lawsuit

import (
	"context"
	"errors"
	"testing"

	"github.com/example/courtbot/src/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	state     types.GuildState
	appended  []*types.Lawsuit
	rooms     []*types.CourtRoom
	deleted   []string
	appendErr error
}

func (f *fakeStore) FindOrInsertGuildState(ctx context.Context, guildID string) (*types.GuildState, error) {
	state := f.state
	state.GuildID = guildID
	return &state, nil
}

func (f *fakeStore) SetCourtCategory(ctx context.Context, guildID, channelID string) error {
	f.state.CourtCategoryID = channelID
	return nil
}

func (f *fakeStore) AppendLawsuitAndRoom(ctx context.Context, lawsuit *types.Lawsuit, room *types.CourtRoom) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, lawsuit)
	f.rooms = append(f.rooms, room)
	f.state.Lawsuits = append(f.state.Lawsuits, *lawsuit)
	f.state.CourtRooms = append(f.state.CourtRooms, *room)
	return nil
}

func (f *fakeStore) UpdateLawsuitVerdict(ctx context.Context, guildID, roomID, verdict string) error {
	for i := range f.state.Lawsuits {
		l := &f.state.Lawsuits[i]
		if l.CourtRoom == roomID && l.Verdict == "" {
			l.Verdict = verdict
			return nil
		}
	}
	return types.ErrNoActiveLawsuit
}

func (f *fakeStore) DeleteGuildState(ctx context.Context, guildID string) error {
	f.deleted = append(f.deleted, guildID)
	f.state = types.GuildState{}
	return nil
}

type fakePlatform struct {
	nextChannelID string
	createErr     error
	created       []createCall
	categoryID    string
	categoryErr   error
	locked        []string
	lockErr       error
}

type createCall struct {
	categoryID string
	name       string
	members    []string
}

func (f *fakePlatform) CreateRestrictedRoom(ctx context.Context, guildID, categoryID, name string, memberIDs []string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, createCall{categoryID: categoryID, name: name, members: memberIDs})
	return f.nextChannelID, nil
}

func (f *fakePlatform) ResolveCategory(ctx context.Context, channelID string) (string, error) {
	if f.categoryErr != nil {
		return "", f.categoryErr
	}
	return f.categoryID, nil
}

func (f *fakePlatform) LockRoom(ctx context.Context, guildID, channelID string) error {
	if f.lockErr != nil {
		return f.lockErr
	}
	f.locked = append(f.locked, channelID)
	return nil
}

func params() CreateParams {
	return CreateParams{
		Plaintiff: "user-p",
		Accused:   "user-a",
		Judge:     "user-j",
		Reason:    "noise",
	}
}

func TestCreateWithoutCategoryFails(t *testing.T) {
	store := &fakeStore{}
	platform := &fakePlatform{nextChannelID: "chan-1"}
	m := NewManager(store, platform, nil)

	_, err := m.Create(context.Background(), "guild-1", params())
	require.ErrorIs(t, err, types.ErrUnconfigured)
	assert.Empty(t, store.appended)
	assert.Empty(t, platform.created)
}

func TestCreateRequiresReason(t *testing.T) {
	store := &fakeStore{state: types.GuildState{CourtCategoryID: "cat-1"}}
	m := NewManager(store, &fakePlatform{}, nil)

	p := params()
	p.Reason = "   "
	_, err := m.Create(context.Background(), "guild-1", p)
	require.ErrorIs(t, err, types.ErrInvalidTarget)
}

func TestCreateProvisionsRoomAndPersists(t *testing.T) {
	store := &fakeStore{state: types.GuildState{CourtCategoryID: "cat-1"}}
	platform := &fakePlatform{nextChannelID: "chan-1"}
	m := NewManager(store, platform, nil)

	suit, err := m.Create(context.Background(), "guild-1", params())
	require.NoError(t, err)

	assert.NotEmpty(t, suit.ID)
	assert.Equal(t, "chan-1", suit.CourtRoom)
	assert.True(t, suit.Active())

	require.Len(t, platform.created, 1)
	assert.Equal(t, "cat-1", platform.created[0].categoryID)
	assert.Equal(t, "court-room-1", platform.created[0].name)
	assert.ElementsMatch(t, []string{"user-p", "user-a", "user-j"}, platform.created[0].members)

	require.Len(t, store.appended, 1)
	require.Len(t, store.rooms, 1)
	assert.Equal(t, "chan-1", store.rooms[0].ChannelID)
}

func TestCreateIncludesLawyersOnce(t *testing.T) {
	store := &fakeStore{state: types.GuildState{CourtCategoryID: "cat-1"}}
	platform := &fakePlatform{nextChannelID: "chan-1"}
	m := NewManager(store, platform, nil)

	p := params()
	p.PlaintiffLawyer = "user-l"
	p.AccusedLawyer = "user-j" // judge doubling as lawyer must not repeat

	_, err := m.Create(context.Background(), "guild-1", p)
	require.NoError(t, err)

	require.Len(t, platform.created, 1)
	assert.ElementsMatch(t,
		[]string{"user-p", "user-a", "user-j", "user-l"},
		platform.created[0].members)
}

func TestCreateRoomNameCountsExistingRooms(t *testing.T) {
	store := &fakeStore{state: types.GuildState{
		CourtCategoryID: "cat-1",
		CourtRooms:      []types.CourtRoom{{ChannelID: "old-1"}, {ChannelID: "old-2"}},
	}}
	platform := &fakePlatform{nextChannelID: "chan-3"}
	m := NewManager(store, platform, nil)

	_, err := m.Create(context.Background(), "guild-1", params())
	require.NoError(t, err)
	assert.Equal(t, "court-room-3", platform.created[0].name)
}

func TestCreateRoomFailurePersistsNothing(t *testing.T) {
	store := &fakeStore{state: types.GuildState{CourtCategoryID: "cat-1"}}
	platform := &fakePlatform{createErr: types.ErrPlatformUnavailable}
	m := NewManager(store, platform, nil)

	_, err := m.Create(context.Background(), "guild-1", params())
	require.ErrorIs(t, err, types.ErrPlatformUnavailable)
	assert.Empty(t, store.appended)
	assert.Empty(t, store.rooms)
}

func TestSetCourtCategory(t *testing.T) {
	store := &fakeStore{}
	platform := &fakePlatform{categoryID: "cat-9"}
	m := NewManager(store, platform, nil)

	require.NoError(t, m.SetCourtCategory(context.Background(), "guild-1", "chan-9"))
	assert.Equal(t, "cat-9", store.state.CourtCategoryID)
}

func TestSetCourtCategoryRejectsNonCategory(t *testing.T) {
	store := &fakeStore{}
	platform := &fakePlatform{categoryErr: types.ErrInvalidTarget}
	m := NewManager(store, platform, nil)

	err := m.SetCourtCategory(context.Background(), "guild-1", "chan-9")
	require.ErrorIs(t, err, types.ErrInvalidTarget)
	assert.Empty(t, store.state.CourtCategoryID)
}

func activeSuit(room, judge string) types.Lawsuit {
	return types.Lawsuit{
		ID:        "suit-1",
		Plaintiff: "user-p",
		Accused:   "user-a",
		Judge:     judge,
		Reason:    "noise",
		CourtRoom: room,
	}
}

func TestCloseNoActiveLawsuit(t *testing.T) {
	store := &fakeStore{}
	m := NewManager(store, &fakePlatform{}, nil)

	err := m.Close(context.Background(), "guild-1", "user-j", "chan-1", "guilty", false)
	require.ErrorIs(t, err, types.ErrNoActiveLawsuit)
}

func TestCloseAlreadyClosedRoom(t *testing.T) {
	closed := activeSuit("chan-1", "user-j")
	closed.Verdict = "guilty"
	store := &fakeStore{state: types.GuildState{Lawsuits: []types.Lawsuit{closed}}}
	m := NewManager(store, &fakePlatform{}, nil)

	err := m.Close(context.Background(), "guild-1", "user-j", "chan-1", "innocent", false)
	require.ErrorIs(t, err, types.ErrNoActiveLawsuit)
	assert.Equal(t, "guilty", store.state.Lawsuits[0].Verdict)
}

func TestCloseRequiresVerdict(t *testing.T) {
	store := &fakeStore{state: types.GuildState{Lawsuits: []types.Lawsuit{activeSuit("chan-1", "user-j")}}}
	platform := &fakePlatform{}
	m := NewManager(store, platform, nil)

	err := m.Close(context.Background(), "guild-1", "user-j", "chan-1", "   ", false)
	require.ErrorIs(t, err, types.ErrInvalidTarget)
	assert.True(t, store.state.Lawsuits[0].Active(), "lawsuit must stay active")
	assert.Empty(t, platform.locked)
}

func TestCloseByNonJudgeForbidden(t *testing.T) {
	store := &fakeStore{state: types.GuildState{Lawsuits: []types.Lawsuit{activeSuit("chan-1", "user-j")}}}
	m := NewManager(store, &fakePlatform{}, nil)

	err := m.Close(context.Background(), "guild-1", "user-x", "chan-1", "guilty", false)
	require.ErrorIs(t, err, types.ErrForbidden)
	assert.Empty(t, store.state.Lawsuits[0].Verdict)
}

func TestCloseByJudge(t *testing.T) {
	store := &fakeStore{state: types.GuildState{Lawsuits: []types.Lawsuit{activeSuit("chan-1", "user-j")}}}
	platform := &fakePlatform{}
	m := NewManager(store, platform, nil)

	require.NoError(t, m.Close(context.Background(), "guild-1", "user-j", "chan-1", "guilty", false))
	assert.Equal(t, "guilty", store.state.Lawsuits[0].Verdict)
	assert.Equal(t, []string{"chan-1"}, platform.locked)
}

func TestCloseWithOverride(t *testing.T) {
	store := &fakeStore{state: types.GuildState{Lawsuits: []types.Lawsuit{activeSuit("chan-1", "user-j")}}}
	m := NewManager(store, &fakePlatform{}, nil)

	require.NoError(t, m.Close(context.Background(), "guild-1", "user-x", "chan-1", "guilty", true))
	assert.Equal(t, "guilty", store.state.Lawsuits[0].Verdict)
}

func TestCloseSucceedsWhenLockFails(t *testing.T) {
	store := &fakeStore{state: types.GuildState{Lawsuits: []types.Lawsuit{activeSuit("chan-1", "user-j")}}}
	platform := &fakePlatform{lockErr: types.ErrPlatformUnavailable}
	m := NewManager(store, platform, nil)

	// The verdict is persisted; the room lock is best-effort only.
	require.NoError(t, m.Close(context.Background(), "guild-1", "user-j", "chan-1", "guilty", false))
	assert.Equal(t, "guilty", store.state.Lawsuits[0].Verdict)
}

func TestCloseTwiceSecondLoses(t *testing.T) {
	store := &fakeStore{state: types.GuildState{Lawsuits: []types.Lawsuit{activeSuit("chan-1", "user-j")}}}
	m := NewManager(store, &fakePlatform{}, nil)

	require.NoError(t, m.Close(context.Background(), "guild-1", "user-j", "chan-1", "guilty", false))

	err := m.Close(context.Background(), "guild-1", "user-j", "chan-1", "innocent", false)
	require.ErrorIs(t, err, types.ErrNoActiveLawsuit)
	assert.Equal(t, "guilty", store.state.Lawsuits[0].Verdict)
}

func TestClearDeletesGuildState(t *testing.T) {
	store := &fakeStore{state: types.GuildState{
		CourtCategoryID: "cat-1",
		Lawsuits:        []types.Lawsuit{activeSuit("chan-1", "user-j")},
	}}
	m := NewManager(store, &fakePlatform{}, nil)

	require.NoError(t, m.Clear(context.Background(), "guild-1"))
	assert.Equal(t, []string{"guild-1"}, store.deleted)
	assert.Empty(t, store.state.Lawsuits)
	assert.Empty(t, store.state.CourtCategoryID)
}

func TestCloseRaceLoserObservesNoActiveLawsuit(t *testing.T) {
	// Simulates the conditional-update race: both closers read the lawsuit
	// as active, the store accepts only the first write.
	store := &fakeStore{state: types.GuildState{Lawsuits: []types.Lawsuit{activeSuit("chan-1", "user-j")}}}
	m := NewManager(store, &fakePlatform{}, nil)

	first := m.Close(context.Background(), "guild-1", "user-j", "chan-1", "guilty", false)
	second := m.Close(context.Background(), "guild-1", "user-j", "chan-1", "guilty", false)

	require.NoError(t, first)
	require.True(t, errors.Is(second, types.ErrNoActiveLawsuit))
}
