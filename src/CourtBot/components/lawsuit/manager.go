package lawsuit

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/courtbot/src/data"
	"github.com/example/courtbot/src/types"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store is the slice of the persistence gateway the lawsuit workflow needs.
type Store interface {
	FindOrInsertGuildState(ctx context.Context, guildID string) (*types.GuildState, error)
	SetCourtCategory(ctx context.Context, guildID, channelID string) error
	AppendLawsuitAndRoom(ctx context.Context, lawsuit *types.Lawsuit, room *types.CourtRoom) error
	UpdateLawsuitVerdict(ctx context.Context, guildID, roomID, verdict string) error
	DeleteGuildState(ctx context.Context, guildID string) error
}

// Platform is the slice of the Discord gateway the lawsuit workflow needs.
type Platform interface {
	CreateRestrictedRoom(ctx context.Context, guildID, categoryID, name string, memberIDs []string) (string, error)
	ResolveCategory(ctx context.Context, channelID string) (string, error)
	LockRoom(ctx context.Context, guildID, channelID string) error
}

// Manager drives the lawsuit lifecycle: room provisioning, verdicts and the
// full-guild clear.
type Manager struct {
	store    Store
	platform Platform
	rdb      *redis.Client
}

func NewManager(store Store, platform Platform, rdb *redis.Client) *Manager {
	return &Manager{store: store, platform: platform, rdb: rdb}
}

// CreateParams carries the participants of a new lawsuit. Lawyer fields may
// be empty.
type CreateParams struct {
	Plaintiff       string
	Accused         string
	Judge           string
	PlaintiffLawyer string
	AccusedLawyer   string
	Reason          string
}

// Create provisions a court room and persists the new lawsuit. The room is
// created first and nothing is written unless it succeeds, so a failed
// Discord call leaves no half-open lawsuit behind.
func (m *Manager) Create(ctx context.Context, guildID string, params CreateParams) (*types.Lawsuit, error) {
	if strings.TrimSpace(params.Reason) == "" {
		return nil, fmt.Errorf("reason must not be empty: %w", types.ErrInvalidTarget)
	}

	state, err := m.store.FindOrInsertGuildState(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if state.CourtCategoryID == "" {
		return nil, fmt.Errorf("court category not set: %w", types.ErrUnconfigured)
	}

	name := fmt.Sprintf("court-room-%d", len(state.CourtRooms)+1)
	channelID, err := m.platform.CreateRestrictedRoom(ctx, guildID, state.CourtCategoryID, name, params.memberIDs())
	if err != nil {
		return nil, err
	}

	suit := &types.Lawsuit{
		ID:              uuid.NewString(),
		GuildID:         guildID,
		Plaintiff:       params.Plaintiff,
		Accused:         params.Accused,
		Judge:           params.Judge,
		PlaintiffLawyer: params.PlaintiffLawyer,
		AccusedLawyer:   params.AccusedLawyer,
		Reason:          params.Reason,
		CourtRoom:       channelID,
	}
	room := &types.CourtRoom{GuildID: guildID, ChannelID: channelID}

	if err := m.store.AppendLawsuitAndRoom(ctx, suit, room); err != nil {
		// The room already exists on Discord. It is harmless: no lawsuit
		// references it, and the operator can delete it by hand.
		return nil, err
	}

	m.publish(ctx, "lawsuit.created", guildID, map[string]interface{}{
		"lawsuit": suit.ID,
		"room":    channelID,
		"judge":   suit.Judge,
	})

	return suit, nil
}

// SetCourtCategory validates that channelRef is a category container and
// stores it for the guild.
func (m *Manager) SetCourtCategory(ctx context.Context, guildID, channelRef string) error {
	categoryID, err := m.platform.ResolveCategory(ctx, channelRef)
	if err != nil {
		return err
	}
	return m.store.SetCourtCategory(ctx, guildID, categoryID)
}

// Close records the verdict for the active lawsuit in roomID. Only the
// recorded judge may close, unless permissionOverride is set (guild manager
// bypassing the judge gate). The "still active" precondition is re-checked
// atomically by the store, so concurrent closers cannot both win.
func (m *Manager) Close(ctx context.Context, guildID, actorID, roomID, verdict string, permissionOverride bool) error {
	// An empty verdict would leave the lawsuit active while reporting
	// success; a verdict-less close is not a close.
	if strings.TrimSpace(verdict) == "" {
		return fmt.Errorf("verdict must not be empty: %w", types.ErrInvalidTarget)
	}

	state, err := m.store.FindOrInsertGuildState(ctx, guildID)
	if err != nil {
		return err
	}

	var suit *types.Lawsuit
	for i := range state.Lawsuits {
		if state.Lawsuits[i].CourtRoom == roomID && state.Lawsuits[i].Active() {
			suit = &state.Lawsuits[i]
			break
		}
	}
	if suit == nil {
		return types.ErrNoActiveLawsuit
	}

	if actorID != suit.Judge && !permissionOverride {
		return fmt.Errorf("only the judge may close this lawsuit: %w", types.ErrForbidden)
	}

	if err := m.store.UpdateLawsuitVerdict(ctx, guildID, roomID, verdict); err != nil {
		return err
	}

	// Verdict is persisted; locking the room is best-effort and never
	// retried. The room itself is kept.
	if err := m.platform.LockRoom(ctx, guildID, roomID); err != nil {
		log.Printf("lawsuit: lock room %s after verdict: %v", roomID, err)
	}

	m.publish(ctx, "lawsuit.closed", guildID, map[string]interface{}{
		"lawsuit": suit.ID,
		"room":    roomID,
		"actor":   actorID,
	})

	return nil
}

// Clear deletes the entire guild state: configuration, rooms, lawsuits and
// prison entries. There is no per-item clear.
func (m *Manager) Clear(ctx context.Context, guildID string) error {
	if err := m.store.DeleteGuildState(ctx, guildID); err != nil {
		return err
	}

	m.publish(ctx, "guild.cleared", guildID, nil)
	return nil
}

func (m *Manager) publish(ctx context.Context, event, guildID string, fields map[string]interface{}) {
	if m.rdb == nil {
		return
	}
	payload := map[string]interface{}{
		"event": event,
		"guild": guildID,
		"time":  time.Now().Unix(),
	}
	for k, v := range fields {
		payload[k] = v
	}
	if err := data.PublishEvent(ctx, m.rdb, payload); err != nil {
		log.Printf("lawsuit: publish %s: %v", event, err)
	}
}

func (p CreateParams) memberIDs() []string {
	ids := []string{p.Plaintiff, p.Accused, p.Judge}
	for _, lawyer := range []string{p.PlaintiffLawyer, p.AccusedLawyer} {
		if lawyer != "" {
			ids = append(ids, lawyer)
		}
	}

	seen := make(map[string]bool, len(ids))
	unique := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique
}
