package discord

import (
	"errors"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/dreschagin/guild-insights/internal/domain/entity"
	"github.com/dreschagin/guild-insights/internal/domain/valueobject"
)

var errMalformedGuild = errors.New("guild payload has no id")

// toSnapshot конвертирует состояние discordgo в снимок Domain слоя.
// Вызывающий держит read lock на State.
func toSnapshot(g *discordgo.Guild) (*entity.GuildSnapshot, error) {
	if g == nil || g.ID == "" {
		return nil, errMalformedGuild
	}

	snapshot := &entity.GuildSnapshot{
		ID:                       g.ID,
		Name:                     g.Name,
		OwnerID:                  g.OwnerID,
		Description:              g.Description,
		IconURL:                  iconURL(g),
		BannerURL:                bannerURL(g),
		VanityURLCode:            g.VanityURLCode,
		PremiumTier:              int(g.PremiumTier),
		PremiumSubscriptionCount: g.PremiumSubscriptionCount,
		VerificationLevel:        int(g.VerificationLevel),
		Features:                 make([]string, 0, len(g.Features)),
	}

	if created, err := discordgo.SnowflakeTimestamp(g.ID); err == nil {
		snapshot.CreatedAt = created.UTC()
	}

	for _, f := range g.Features {
		snapshot.Features = append(snapshot.Features, string(f))
	}

	statuses := make(map[string]valueobject.PresenceStatus, len(g.Presences))
	for _, p := range g.Presences {
		if p == nil || p.User == nil {
			continue
		}
		statuses[p.User.ID] = valueobject.ParsePresenceStatus(string(p.Status))
	}

	roleMembers := make(map[string]int, len(g.Roles))
	snapshot.Members = make([]entity.MemberRecord, 0, len(g.Members))
	for _, m := range g.Members {
		if m == nil || m.User == nil {
			continue
		}
		status, ok := statuses[m.User.ID]
		if !ok {
			status = valueobject.StatusOffline
		}
		snapshot.Members = append(snapshot.Members, entity.MemberRecord{
			ID:       m.User.ID,
			Username: m.User.Username,
			Bot:      m.User.Bot,
			Status:   status,
			RoleIDs:  append([]string(nil), m.Roles...),
		})
		for _, roleID := range m.Roles {
			roleMembers[roleID]++
		}
		if m.User.ID == g.OwnerID {
			snapshot.OwnerName = m.User.Username
		}
	}

	occupants := make(map[string]int)
	for _, vs := range g.VoiceStates {
		if vs == nil || vs.ChannelID == "" {
			continue
		}
		occupants[vs.ChannelID]++
	}

	snapshot.Channels = make([]entity.ChannelRecord, 0, len(g.Channels))
	for _, c := range g.Channels {
		if c == nil {
			continue
		}
		kind := channelKind(c.Type)
		record := entity.ChannelRecord{
			ID:       c.ID,
			Name:     c.Name,
			Position: c.Position,
			Kind:     kind,
		}
		switch kind {
		case valueobject.ChannelText:
			record.NSFW = c.NSFW
		case valueobject.ChannelVoice:
			record.Occupants = occupants[c.ID]
		}
		snapshot.Channels = append(snapshot.Channels, record)
	}

	snapshot.Roles = make([]entity.RoleRecord, 0, len(g.Roles))
	for _, r := range g.Roles {
		if r == nil {
			continue
		}
		isDefault := r.ID == g.ID
		count := roleMembers[r.ID]
		if isDefault {
			// @everyone не перечисляется в ролях участника
			count = len(snapshot.Members)
		}
		snapshot.Roles = append(snapshot.Roles, entity.RoleRecord{
			ID:          r.ID,
			Name:        r.Name,
			Color:       r.Color,
			Position:    r.Position,
			MemberCount: count,
			IsDefault:   isDefault,
		})
	}

	snapshot.Emojis = make([]entity.EmojiRecord, 0, len(g.Emojis))
	for _, e := range g.Emojis {
		if e == nil || e.ID == "" {
			continue
		}
		url := discordgo.EndpointEmoji(e.ID)
		if e.Animated {
			url = discordgo.EndpointEmojiAnimated(e.ID)
		}
		snapshot.Emojis = append(snapshot.Emojis, entity.EmojiRecord{
			ID:       e.ID,
			Name:     e.Name,
			URL:      url,
			Animated: e.Animated,
		})
	}

	return snapshot, nil
}

func channelKind(t discordgo.ChannelType) valueobject.ChannelKind {
	switch t {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews:
		return valueobject.ChannelText
	case discordgo.ChannelTypeGuildVoice:
		return valueobject.ChannelVoice
	default:
		return valueobject.ChannelOther
	}
}

func iconURL(g *discordgo.Guild) string {
	if g.Icon == "" {
		return ""
	}
	if strings.HasPrefix(g.Icon, "a_") {
		return discordgo.EndpointGuildIconAnimated(g.ID, g.Icon)
	}
	return discordgo.EndpointGuildIcon(g.ID, g.Icon)
}

func bannerURL(g *discordgo.Guild) string {
	if g.Banner == "" {
		return ""
	}
	return discordgo.EndpointGuildBanner(g.ID, g.Banner)
}
