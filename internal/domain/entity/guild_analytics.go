package entity

import (
	"time"

	"github.com/dreschagin/guild-insights/internal/domain/valueobject"
)

// GuildAnalytics is the derived report for one snapshot. It is built once by the
// aggregator and never mutated afterwards.
type GuildAnalytics struct {
	Server     ServerInfo
	Membership MembershipBreakdown
	Engagement EngagementStats
	Channels   ChannelBreakdown
	Roles      RoleRanking
	Emojis     EmojiAccounting
	Features   FeatureSet
	AnalyzedAt time.Time
}

// ServerInfo holds guild metadata. Empty strings mean the value was absent.
type ServerInfo struct {
	ID                       string
	Name                     string
	OwnerID                  string
	OwnerName                string
	Description              string
	CreatedAt                time.Time
	IconURL                  string
	BannerURL                string
	PremiumTier              int
	PremiumSubscriptionCount int
	VerificationLevel        int
}

type MembershipBreakdown struct {
	Total            int
	Humans           int
	Bots             int
	HumansPercentage float64
	BotsPercentage   float64
}

type EngagementStats struct {
	Online               int
	Idle                 int
	DND                  int
	Offline              int
	EngagementPercentage float64
	ActivityScore        float64
	Health               valueobject.HealthStatus
}

type ChannelBreakdown struct {
	Total      int
	TextCount  int
	VoiceCount int
	Text       []TextChannelEntry
	Voice      []VoiceChannelEntry
}

type TextChannelEntry struct {
	ID       string
	Name     string
	Position int
	NSFW     bool
}

type VoiceChannelEntry struct {
	ID        string
	Name      string
	Position  int
	Occupants int
}

type RoleRanking struct {
	Total     int
	Ranked    []RankedRole
	Hierarchy []string
}

type RankedRole struct {
	ID          string
	Name        string
	MemberCount int
	Color       int
	Position    int
}

type EmojiAccounting struct {
	Total          int
	Limit          int
	AvailableSlots int
	Static         []EmojiEntry
	Animated       []EmojiEntry
}

type EmojiEntry struct {
	ID   string
	Name string
	URL  string
}

type FeatureSet struct {
	All     []string
	Premium []string
}
