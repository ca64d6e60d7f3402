package dto

import (
	"time"

	"github.com/dreschagin/guild-insights/internal/domain/entity"
)

// AnalyticsReportDTO представляет отчет по гильдии для API и внешних получателей
type AnalyticsReportDTO struct {
	ServerInfo        ServerInfoDTO `json:"server_info"`
	Members           MembersDTO    `json:"members"`
	Engagement        EngagementDTO `json:"engagement"`
	Channels          ChannelsDTO   `json:"channels"`
	Roles             RolesDTO      `json:"roles"`
	Emojis            EmojisDTO     `json:"emojis"`
	Features          FeaturesDTO   `json:"features"`
	AnalysisTimestamp time.Time     `json:"analysis_timestamp"`
}

// ServerInfoDTO содержит метаданные гильдии. Отсутствующие значения сериализуются как null.
type ServerInfoDTO struct {
	ID                       string    `json:"id"`
	Name                     string    `json:"name"`
	Owner                    *OwnerDTO `json:"owner"`
	Description              *string   `json:"description"`
	CreatedAt                time.Time `json:"created_at"`
	IconURL                  *string   `json:"icon_url"`
	BannerURL                *string   `json:"banner_url"`
	PremiumTier              int       `json:"premium_tier"`
	PremiumSubscriptionCount int       `json:"premium_subscription_count"`
	VerificationLevel        int       `json:"verification_level"`
}

type OwnerDTO struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type MembersDTO struct {
	Total            int     `json:"total"`
	Humans           int     `json:"humans"`
	Bots             int     `json:"bots"`
	HumansPercentage float64 `json:"humans_percentage"`
	BotsPercentage   float64 `json:"bots_percentage"`
}

type EngagementDTO struct {
	Online               int     `json:"online"`
	Idle                 int     `json:"idle"`
	DND                  int     `json:"dnd"`
	Offline              int     `json:"offline"`
	EngagementPercentage float64 `json:"engagement_percentage"`
	ActivityScore        float64 `json:"activity_score"`
	HealthStatus         string  `json:"health_status"`
}

type ChannelsDTO struct {
	Total      int               `json:"total"`
	TextCount  int               `json:"text_count"`
	VoiceCount int               `json:"voice_count"`
	Text       []TextChannelDTO  `json:"text_channels"`
	Voice      []VoiceChannelDTO `json:"voice_channels"`
}

type TextChannelDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	NSFW     bool   `json:"nsfw"`
}

type VoiceChannelDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	Members  int    `json:"members"`
}

type RolesDTO struct {
	Total     int       `json:"total"`
	TopRoles  []RoleDTO `json:"top_roles"`
	Hierarchy []string  `json:"hierarchy"`
}

type RoleDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Members  int    `json:"members"`
	Color    int    `json:"color"`
	Position int    `json:"position"`
}

type EmojisDTO struct {
	Total          int        `json:"total"`
	Limit          int        `json:"limit"`
	AvailableSlots int        `json:"available_slots"`
	Static         []EmojiDTO `json:"static"`
	Animated       []EmojiDTO `json:"animated"`
}

type EmojiDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type FeaturesDTO struct {
	All     []string `json:"all"`
	Premium []string `json:"premium"`
}

// FromGuildAnalytics конвертирует отчет Domain слоя в DTO
func FromGuildAnalytics(report *entity.GuildAnalytics) *AnalyticsReportDTO {
	s := report.Server

	var owner *OwnerDTO
	if s.OwnerID != "" {
		owner = &OwnerDTO{ID: s.OwnerID, Name: s.OwnerName}
	}

	result := &AnalyticsReportDTO{
		ServerInfo: ServerInfoDTO{
			ID:                       s.ID,
			Name:                     s.Name,
			Owner:                    owner,
			Description:              nullable(s.Description),
			CreatedAt:                s.CreatedAt,
			IconURL:                  nullable(s.IconURL),
			BannerURL:                nullable(s.BannerURL),
			PremiumTier:              s.PremiumTier,
			PremiumSubscriptionCount: s.PremiumSubscriptionCount,
			VerificationLevel:        s.VerificationLevel,
		},
		Members: MembersDTO{
			Total:            report.Membership.Total,
			Humans:           report.Membership.Humans,
			Bots:             report.Membership.Bots,
			HumansPercentage: report.Membership.HumansPercentage,
			BotsPercentage:   report.Membership.BotsPercentage,
		},
		Engagement: EngagementDTO{
			Online:               report.Engagement.Online,
			Idle:                 report.Engagement.Idle,
			DND:                  report.Engagement.DND,
			Offline:              report.Engagement.Offline,
			EngagementPercentage: report.Engagement.EngagementPercentage,
			ActivityScore:        report.Engagement.ActivityScore,
			HealthStatus:         report.Engagement.Health.String(),
		},
		Channels: ChannelsDTO{
			Total:      report.Channels.Total,
			TextCount:  report.Channels.TextCount,
			VoiceCount: report.Channels.VoiceCount,
			Text:       make([]TextChannelDTO, 0, len(report.Channels.Text)),
			Voice:      make([]VoiceChannelDTO, 0, len(report.Channels.Voice)),
		},
		Roles: RolesDTO{
			Total:     report.Roles.Total,
			TopRoles:  make([]RoleDTO, 0, len(report.Roles.Ranked)),
			Hierarchy: append([]string{}, report.Roles.Hierarchy...),
		},
		Emojis: EmojisDTO{
			Total:          report.Emojis.Total,
			Limit:          report.Emojis.Limit,
			AvailableSlots: report.Emojis.AvailableSlots,
			Static:         toEmojiDTOs(report.Emojis.Static),
			Animated:       toEmojiDTOs(report.Emojis.Animated),
		},
		Features: FeaturesDTO{
			All:     append([]string{}, report.Features.All...),
			Premium: append([]string{}, report.Features.Premium...),
		},
		AnalysisTimestamp: report.AnalyzedAt,
	}

	for _, c := range report.Channels.Text {
		result.Channels.Text = append(result.Channels.Text, TextChannelDTO{
			ID: c.ID, Name: c.Name, Position: c.Position, NSFW: c.NSFW,
		})
	}
	for _, c := range report.Channels.Voice {
		result.Channels.Voice = append(result.Channels.Voice, VoiceChannelDTO{
			ID: c.ID, Name: c.Name, Position: c.Position, Members: c.Occupants,
		})
	}
	for _, r := range report.Roles.Ranked {
		result.Roles.TopRoles = append(result.Roles.TopRoles, RoleDTO{
			ID: r.ID, Name: r.Name, Members: r.MemberCount, Color: r.Color, Position: r.Position,
		})
	}

	return result
}

func toEmojiDTOs(entries []entity.EmojiEntry) []EmojiDTO {
	dtos := make([]EmojiDTO, len(entries))
	for i, e := range entries {
		dtos[i] = EmojiDTO{ID: e.ID, Name: e.Name, URL: e.URL}
	}
	return dtos
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
