package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/courtbot/src/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the persistence gateway for guild court state. One logical record
// per guild; every mutation is an atomic per-guild update so concurrent
// commands cannot interleave partial writes.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindOrInsertGuildState returns the guild aggregate, creating a fresh empty
// record on first access. The insert is an upsert keyed on the guild ID so a
// concurrent first access cannot create duplicates.
func (s *Store) FindOrInsertGuildState(ctx context.Context, guildID string) (*types.GuildState, error) {
	db := s.db.WithContext(ctx)

	var state types.GuildState
	err := db.First(&state, "guild_id = ?", guildID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		state = types.GuildState{GuildID: guildID}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&state).Error; err != nil {
			return nil, storeErr("insert guild state", err)
		}
		// Re-read in case another writer won the insert.
		err = db.First(&state, "guild_id = ?", guildID).Error
	}
	if err != nil {
		return nil, storeErr("find guild state", err)
	}

	if err := db.Where("guild_id = ?", guildID).Order("id").Find(&state.CourtRooms).Error; err != nil {
		return nil, storeErr("load court rooms", err)
	}
	if err := db.Where("guild_id = ?", guildID).Order("created_at").Find(&state.Lawsuits).Error; err != nil {
		return nil, storeErr("load lawsuits", err)
	}
	if err := db.Where("guild_id = ?", guildID).Find(&state.PrisonEntries).Error; err != nil {
		return nil, storeErr("load prison entries", err)
	}

	return &state, nil
}

// SetCourtCategory stores the category channel lawsuits are provisioned under.
func (s *Store) SetCourtCategory(ctx context.Context, guildID, channelID string) error {
	return s.updateGuildField(ctx, guildID, "court_category_id", channelID)
}

// SetPrisonRole stores the role applied to confined members.
func (s *Store) SetPrisonRole(ctx context.Context, guildID, roleID string) error {
	return s.updateGuildField(ctx, guildID, "prison_role_id", roleID)
}

func (s *Store) updateGuildField(ctx context.Context, guildID, column, value string) error {
	if _, err := s.FindOrInsertGuildState(ctx, guildID); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).
		Model(&types.GuildState{}).
		Where("guild_id = ?", guildID).
		Update(column, value).Error
	if err != nil {
		return storeErr("update "+column, err)
	}
	return nil
}

// AppendLawsuitAndRoom persists a new lawsuit together with its provisioned
// room in one transaction.
func (s *Store) AppendLawsuitAndRoom(ctx context.Context, lawsuit *types.Lawsuit, room *types.CourtRoom) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		return tx.Create(lawsuit).Error
	})
	if err != nil {
		return storeErr("append lawsuit", err)
	}
	return nil
}

// UpdateLawsuitVerdict closes the active lawsuit in the given room. The
// "still active" precondition is part of the UPDATE itself, so of two
// concurrent closers exactly one wins; the loser gets ErrNoActiveLawsuit.
func (s *Store) UpdateLawsuitVerdict(ctx context.Context, guildID, roomID, verdict string) error {
	res := s.db.WithContext(ctx).
		Model(&types.Lawsuit{}).
		Where("guild_id = ? AND court_room = ? AND verdict = ''", guildID, roomID).
		Update("verdict", verdict)
	if res.Error != nil {
		return storeErr("update verdict", res.Error)
	}
	if res.RowsAffected == 0 {
		return types.ErrNoActiveLawsuit
	}
	return nil
}

// AddPrisonEntry records confinement for a user. Arresting an already
// confined user is a no-op.
func (s *Store) AddPrisonEntry(ctx context.Context, guildID, userID string) error {
	entry := types.PrisonEntry{GuildID: guildID, UserID: userID}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entry).Error
	if err != nil {
		return storeErr("add prison entry", err)
	}
	return nil
}

// RemovePrisonEntry deletes the confinement record for a user.
func (s *Store) RemovePrisonEntry(ctx context.Context, guildID, userID string) error {
	err := s.db.WithContext(ctx).
		Delete(&types.PrisonEntry{}, "guild_id = ? AND user_id = ?", guildID, userID).Error
	if err != nil {
		return storeErr("remove prison entry", err)
	}
	return nil
}

// FindPrisonEntry reports whether a confinement record exists for the user.
func (s *Store) FindPrisonEntry(ctx context.Context, guildID, userID string) (bool, error) {
	var entry types.PrisonEntry
	err := s.db.WithContext(ctx).
		First(&entry, "guild_id = ? AND user_id = ?", guildID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storeErr("find prison entry", err)
	}
	return true, nil
}

// DeleteGuildState removes everything stored for a guild: configuration,
// rooms, lawsuits and prison entries.
func (s *Store) DeleteGuildState(ctx context.Context, guildID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&types.PrisonEntry{}, "guild_id = ?", guildID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&types.Lawsuit{}, "guild_id = ?", guildID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&types.CourtRoom{}, "guild_id = ?", guildID).Error; err != nil {
			return err
		}
		return tx.Delete(&types.GuildState{}, "guild_id = ?", guildID).Error
	})
	if err != nil {
		return storeErr("delete guild state", err)
	}
	return nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, types.ErrPersistenceUnavailable, err)
}
