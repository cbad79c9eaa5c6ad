package types

import "time"

// GuildState is the per-guild configuration row. The child collections
// (court rooms, lawsuits, prison entries) hang off it by GuildID and are
// loaded together by the store's find-or-insert.
type GuildState struct {
	GuildID         string `gorm:"primaryKey;size:64"`
	CourtCategoryID string `gorm:"size:64"`
	PrisonRoleID    string `gorm:"size:64"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	CourtRooms    []CourtRoom   `gorm:"-"`
	Lawsuits      []Lawsuit     `gorm:"-"`
	PrisonEntries []PrisonEntry `gorm:"-"`
}

// CourtRoom is a provisioned court channel. Rooms survive lawsuit closure;
// only a full-guild clear removes them.
type CourtRoom struct {
	ID        uint64 `gorm:"primaryKey"`
	GuildID   string `gorm:"index;size:64;not null"`
	ChannelID string `gorm:"size:64;not null"`
	CreatedAt time.Time
}

// Lawsuit is a single dispute record. An empty Verdict means the lawsuit is
// still active; setting a verdict closes it. CourtRoom holds the sentinel ""
// until a channel has been provisioned.
type Lawsuit struct {
	ID              string `gorm:"primaryKey;size:36"`
	GuildID         string `gorm:"index;size:64;not null"`
	Plaintiff       string `gorm:"size:64;not null"`
	Accused         string `gorm:"size:64;not null"`
	Judge           string `gorm:"size:64;not null"`
	PlaintiffLawyer string `gorm:"size:64"`
	AccusedLawyer   string `gorm:"size:64"`
	Reason          string `gorm:"type:text;not null"`
	Verdict         string `gorm:"type:text"`
	CourtRoom       string `gorm:"size:64;index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Active reports whether no verdict has been recorded yet.
func (l Lawsuit) Active() bool { return l.Verdict == "" }

// PrisonEntry records that a member is confined. It is the source of truth;
// the Discord role is reapplied from it whenever the member rejoins.
type PrisonEntry struct {
	GuildID   string `gorm:"primaryKey;size:64"`
	UserID    string `gorm:"primaryKey;size:64"`
	CreatedAt time.Time
}

// Setting is one key/value configuration row loaded into the settings cache
// at startup.
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;not null"`
	Value string `gorm:"size:256;not null"`
}
