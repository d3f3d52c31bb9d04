package types

import "time"

// GuildSettings is the per-guild configuration row. One row per guild,
// created on first access with defaults and never deleted.
type GuildSettings struct {
	GuildID             string `gorm:"primaryKey;size:32"`
	SameChannel         bool
	SubmissionChannelID string `gorm:"size:32"` // empty = suggestions disabled
	ApprovedChannelID   string `gorm:"size:32"` // empty = approved suggestions not reposted
	RejectedChannelID   string `gorm:"size:32"` // empty = rejected suggestions not reposted
	NextID              uint64 `gorm:"not null"`
	UpEmoji             string `gorm:"size:64"` // emoji API name, empty = default
	DownEmoji           string `gorm:"size:64"`
	DeleteOnSubmit      bool
	DeleteOnResolve     bool
	AllowAttachments    bool
	UpdatedAt           time.Time
}

func (GuildSettings) TableName() string { return "guild_settings" }

// DefaultGuildSettings returns the settings a guild starts with.
func DefaultGuildSettings(guildID string) GuildSettings {
	return GuildSettings{
		GuildID:          guildID,
		NextID:           1,
		DeleteOnResolve:  true,
		AllowAttachments: true,
	}
}

// Message id values below the real Discord snowflake range are markers:
// MessageUnset means the suggestion was never posted, MessageOrphaned means
// it was resolved while no destination channel was configured and the
// original message was removed.
const (
	MessageUnset    = ""
	MessageOrphaned = "1"
)

// Suggestion is one tracked suggestion, keyed by (guild, suggestion id).
// Rows are never deleted; author fields are cleared by the erasure sweep.
type Suggestion struct {
	GuildID             string `gorm:"primaryKey;size:32;autoIncrement:false"`
	SuggestionID        uint64 `gorm:"primaryKey;autoIncrement:false"`
	AuthorID            string `gorm:"size:32;index"`
	AuthorName          string `gorm:"size:64"`
	AuthorDiscriminator string `gorm:"size:8"`
	MessageID           string `gorm:"size:32"`
	Body                string `gorm:"type:text;not null"`
	Finished            bool
	Approved            bool
	Rejected            bool
	HasReason           bool
	ReasonText          string `gorm:"type:text"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (Suggestion) TableName() string { return "suggestions" }

// Posted reports whether the suggestion was ever posted to a channel.
func (s Suggestion) Posted() bool {
	return s.MessageID != MessageUnset && s.MessageID != "0"
}

// SuggestionBan bars a guild member from submitting suggestions.
type SuggestionBan struct {
	GuildID    string `gorm:"primaryKey;size:32;autoIncrement:false"`
	UserID     string `gorm:"primaryKey;size:32;autoIncrement:false"`
	BannedByID string `gorm:"size:32"`
	CreatedAt  time.Time
}

func (SuggestionBan) TableName() string { return "suggestion_bans" }
