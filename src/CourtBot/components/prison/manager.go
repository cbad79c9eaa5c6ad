package prison

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/courtbot/src/data"
	"github.com/example/courtbot/src/types"
	"github.com/redis/go-redis/v9"
)

// Store is the slice of the persistence gateway the confinement workflow
// needs.
type Store interface {
	FindOrInsertGuildState(ctx context.Context, guildID string) (*types.GuildState, error)
	SetPrisonRole(ctx context.Context, guildID, roleID string) error
	AddPrisonEntry(ctx context.Context, guildID, userID string) error
	RemovePrisonEntry(ctx context.Context, guildID, userID string) error
	FindPrisonEntry(ctx context.Context, guildID, userID string) (bool, error)
}

// Platform is the slice of the Discord gateway the confinement workflow
// needs.
type Platform interface {
	AssignRole(ctx context.Context, guildID, userID, roleID string) error
	RevokeRole(ctx context.Context, guildID, userID, roleID string) error
}

// Manager keeps the persisted prison entries and the Discord role in sync.
// The entry is the source of truth; the role is reapplied from it whenever a
// member rejoins, because Discord drops all roles on leave.
type Manager struct {
	store    Store
	platform Platform
	rdb      *redis.Client
}

func NewManager(store Store, platform Platform, rdb *redis.Client) *Manager {
	return &Manager{store: store, platform: platform, rdb: rdb}
}

// SetRole stores the role applied to confined members.
func (m *Manager) SetRole(ctx context.Context, guildID, roleID string) error {
	return m.store.SetPrisonRole(ctx, guildID, roleID)
}

// Arrest confines a member. The entry is persisted before the role call, so
// a crash or Discord failure in between still leaves the correct fact on
// record; the role is then applied by the next join reconciliation. A failed
// role call is reported but does not undo the entry.
func (m *Manager) Arrest(ctx context.Context, guildID, userID string) error {
	state, err := m.store.FindOrInsertGuildState(ctx, guildID)
	if err != nil {
		return err
	}
	if state.PrisonRoleID == "" {
		return fmt.Errorf("prison role not set: %w", types.ErrUnconfigured)
	}

	if err := m.store.AddPrisonEntry(ctx, guildID, userID); err != nil {
		return err
	}

	m.publish(ctx, "prison.arrested", guildID, userID)

	if err := m.platform.AssignRole(ctx, guildID, userID, state.PrisonRoleID); err != nil {
		log.Printf("prison: arrest %s in guild %s: role pending: %v", userID, guildID, err)
		return err
	}

	return nil
}

// Release removes the confinement entry and revokes the role. The entry is
// removed first: a lingering role with no entry is harmless (it is never
// reasserted), while a lingering entry would re-confine the member on their
// next join. Role revocation is never retried automatically.
func (m *Manager) Release(ctx context.Context, guildID, userID string) error {
	state, err := m.store.FindOrInsertGuildState(ctx, guildID)
	if err != nil {
		return err
	}
	if state.PrisonRoleID == "" {
		return fmt.Errorf("prison role not set: %w", types.ErrUnconfigured)
	}

	if err := m.store.RemovePrisonEntry(ctx, guildID, userID); err != nil {
		return err
	}

	m.publish(ctx, "prison.released", guildID, userID)

	if err := m.platform.RevokeRole(ctx, guildID, userID, state.PrisonRoleID); err != nil {
		log.Printf("prison: release %s in guild %s: role still applied: %v", userID, guildID, err)
		return err
	}

	return nil
}

// HandleMemberJoin reapplies the prison role if the joining member has a
// confinement entry. It runs on every join and is a no-op when no role is
// configured or no entry exists.
func (m *Manager) HandleMemberJoin(ctx context.Context, guildID, userID string) error {
	state, err := m.store.FindOrInsertGuildState(ctx, guildID)
	if err != nil {
		return err
	}
	if state.PrisonRoleID == "" {
		return nil
	}

	confined, err := m.store.FindPrisonEntry(ctx, guildID, userID)
	if err != nil {
		return err
	}
	if !confined {
		return nil
	}

	log.Printf("prison: member %s rejoined guild %s while confined, reapplying role", userID, guildID)
	return m.platform.AssignRole(ctx, guildID, userID, state.PrisonRoleID)
}

func (m *Manager) publish(ctx context.Context, event, guildID, userID string) {
	if m.rdb == nil {
		return
	}
	err := data.PublishEvent(ctx, m.rdb, map[string]interface{}{
		"event": event,
		"guild": guildID,
		"user":  userID,
		"time":  time.Now().Unix(),
	})
	if err != nil {
		log.Printf("prison: publish %s: %v", event, err)
	}
}
