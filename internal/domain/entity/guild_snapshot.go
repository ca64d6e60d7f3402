package entity

import (
	"time"

	"github.com/dreschagin/guild-insights/internal/domain/valueobject"
)

// GuildSnapshot представляет полное состояние гильдии, полученное от gateway.
// Создается один раз на успешную сессию и после этого только читается.
type GuildSnapshot struct {
	ID                       string
	Name                     string
	OwnerID                  string
	OwnerName                string
	Description              string
	CreatedAt                time.Time
	IconURL                  string
	BannerURL                string
	VanityURLCode            string
	PremiumTier              int
	PremiumSubscriptionCount int
	VerificationLevel        int
	Features                 []string

	Members  []MemberRecord
	Channels []ChannelRecord
	Roles    []RoleRecord
	Emojis   []EmojiRecord

	CapturedAt time.Time
}

// MemberRecord описывает участника гильдии
type MemberRecord struct {
	ID       string
	Username string
	Bot      bool
	Status   valueobject.PresenceStatus
	RoleIDs  []string
}

// ChannelRecord описывает канал гильдии.
// NSFW имеет смысл только для текстовых каналов, Occupants - только для голосовых.
type ChannelRecord struct {
	ID        string
	Name      string
	Position  int
	Kind      valueobject.ChannelKind
	NSFW      bool
	Occupants int
}

// RoleRecord описывает роль гильдии
type RoleRecord struct {
	ID          string
	Name        string
	Color       int
	Position    int
	MemberCount int
	IsDefault   bool
}

// EmojiRecord описывает кастомный emoji гильдии
type EmojiRecord struct {
	ID       string
	Name     string
	URL      string
	Animated bool
}

// HasFeature проверяет наличие флага в наборе features гильдии
func (g *GuildSnapshot) HasFeature(feature string) bool {
	for _, f := range g.Features {
		if f == feature {
			return true
		}
	}
	return false
}
