package service

import (
	"math"
	"sort"
	"time"

	"github.com/dreschagin/guild-insights/internal/domain/entity"
	"github.com/dreschagin/guild-insights/internal/domain/valueobject"
)

const (
	channelListLimit   = 10
	roleDetailLimit    = 15
	roleHierarchyLimit = 10

	featureMoreEmoji  = "MORE_EMOJI"
	moreEmojiMinLimit = 200
)

// Лимиты кастомных emoji по уровню буста
var emojiLimitByTier = map[int]int{
	0: 50,
	1: 100,
	2: 150,
	3: 250,
}

// SnapshotAggregator строит аналитический отчет из снимка гильдии (Domain Service)
// Не выполняет I/O и не хранит состояние между вызовами
type SnapshotAggregator struct {
	now func() time.Time
}

// NewSnapshotAggregator создает новый SnapshotAggregator
func NewSnapshotAggregator() *SnapshotAggregator {
	return &SnapshotAggregator{now: time.Now}
}

// NewSnapshotAggregatorWithClock создает агрегатор с заданным источником времени (для тестов)
func NewSnapshotAggregatorWithClock(now func() time.Time) *SnapshotAggregator {
	return &SnapshotAggregator{now: now}
}

// Aggregate вычисляет все секции отчета
func (a *SnapshotAggregator) Aggregate(snapshot *entity.GuildSnapshot) *entity.GuildAnalytics {
	membership := a.membership(snapshot.Members)

	return &entity.GuildAnalytics{
		Server:     a.serverInfo(snapshot),
		Membership: membership,
		Engagement: a.engagement(snapshot.Members, membership.Humans),
		Channels:   a.channels(snapshot.Channels),
		Roles:      a.roles(snapshot.Roles),
		Emojis:     a.emojis(snapshot),
		Features:   a.features(snapshot),
		AnalyzedAt: a.now().UTC(),
	}
}

func (a *SnapshotAggregator) serverInfo(s *entity.GuildSnapshot) entity.ServerInfo {
	return entity.ServerInfo{
		ID:                       s.ID,
		Name:                     s.Name,
		OwnerID:                  s.OwnerID,
		OwnerName:                s.OwnerName,
		Description:              s.Description,
		CreatedAt:                s.CreatedAt,
		IconURL:                  s.IconURL,
		BannerURL:                s.BannerURL,
		PremiumTier:              s.PremiumTier,
		PremiumSubscriptionCount: s.PremiumSubscriptionCount,
		VerificationLevel:        s.VerificationLevel,
	}
}

func (a *SnapshotAggregator) membership(members []entity.MemberRecord) entity.MembershipBreakdown {
	var bots int
	for _, m := range members {
		if m.Bot {
			bots++
		}
	}

	total := len(members)
	humans := total - bots

	return entity.MembershipBreakdown{
		Total:            total,
		Humans:           humans,
		Bots:             bots,
		HumansPercentage: percentage(humans, total),
		BotsPercentage:   percentage(bots, total),
	}
}

// engagement считает статусы только среди людей, боты в активность не входят
func (a *SnapshotAggregator) engagement(members []entity.MemberRecord, humans int) entity.EngagementStats {
	var stats entity.EngagementStats
	for _, m := range members {
		if m.Bot {
			continue
		}
		switch m.Status {
		case valueobject.StatusOnline:
			stats.Online++
		case valueobject.StatusIdle:
			stats.Idle++
		case valueobject.StatusDND:
			stats.DND++
		default:
			stats.Offline++
		}
	}

	stats.EngagementPercentage = percentage(stats.Online, humans)

	// при offline = 0 делитель равен 1
	active := stats.Online + stats.Idle + stats.DND
	divisor := stats.Offline
	if divisor < 1 {
		divisor = 1
	}
	stats.ActivityScore = math.Min(100, round2(float64(active)/float64(divisor)*100))
	stats.Health = valueobject.ClassifyHealth(stats.EngagementPercentage)

	return stats
}

func (a *SnapshotAggregator) channels(channels []entity.ChannelRecord) entity.ChannelBreakdown {
	sorted := make([]entity.ChannelRecord, len(channels))
	copy(sorted, channels)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	result := entity.ChannelBreakdown{
		Total: len(channels),
		Text:  []entity.TextChannelEntry{},
		Voice: []entity.VoiceChannelEntry{},
	}

	for _, c := range sorted {
		switch c.Kind {
		case valueobject.ChannelText:
			result.TextCount++
			if len(result.Text) < channelListLimit {
				result.Text = append(result.Text, entity.TextChannelEntry{
					ID:       c.ID,
					Name:     c.Name,
					Position: c.Position,
					NSFW:     c.NSFW,
				})
			}
		case valueobject.ChannelVoice:
			result.VoiceCount++
			if len(result.Voice) < channelListLimit {
				result.Voice = append(result.Voice, entity.VoiceChannelEntry{
					ID:        c.ID,
					Name:      c.Name,
					Position:  c.Position,
					Occupants: c.Occupants,
				})
			}
		}
	}

	return result
}

func (a *SnapshotAggregator) roles(roles []entity.RoleRecord) entity.RoleRanking {
	ranked := make([]entity.RoleRecord, 0, len(roles))
	for _, r := range roles {
		if r.IsDefault || r.MemberCount < 1 {
			continue
		}
		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Position > ranked[j].Position
	})

	result := entity.RoleRanking{
		Total:     len(roles),
		Ranked:    make([]entity.RankedRole, 0, min(len(ranked), roleDetailLimit)),
		Hierarchy: make([]string, 0, min(len(ranked), roleHierarchyLimit)),
	}

	for i, r := range ranked {
		if i < roleDetailLimit {
			result.Ranked = append(result.Ranked, entity.RankedRole{
				ID:          r.ID,
				Name:        r.Name,
				MemberCount: r.MemberCount,
				Color:       r.Color,
				Position:    r.Position,
			})
		}
		if i < roleHierarchyLimit {
			result.Hierarchy = append(result.Hierarchy, r.Name)
		}
	}

	return result
}

func (a *SnapshotAggregator) emojis(s *entity.GuildSnapshot) entity.EmojiAccounting {
	result := entity.EmojiAccounting{
		Total:    len(s.Emojis),
		Limit:    EmojiLimit(s.PremiumTier, s.HasFeature(featureMoreEmoji)),
		Static:   []entity.EmojiEntry{},
		Animated: []entity.EmojiEntry{},
	}

	for _, e := range s.Emojis {
		entry := entity.EmojiEntry{ID: e.ID, Name: e.Name, URL: e.URL}
		if e.Animated {
			result.Animated = append(result.Animated, entry)
		} else {
			result.Static = append(result.Static, entry)
		}
	}

	// может быть отрицательным, если гильдия превысила лимит
	result.AvailableSlots = result.Limit - result.Total

	return result
}

func (a *SnapshotAggregator) features(s *entity.GuildSnapshot) entity.FeatureSet {
	all := make([]string, len(s.Features))
	copy(all, s.Features)

	premium := []string{}
	if s.BannerURL != "" {
		premium = append(premium, "banner")
	}
	if s.VanityURLCode != "" {
		premium = append(premium, "vanity_url")
	}
	if s.PremiumTier > 0 {
		premium = append(premium, "boosted")
	}

	return entity.FeatureSet{All: all, Premium: premium}
}

// EmojiLimit возвращает лимит кастомных emoji для уровня буста
func EmojiLimit(premiumTier int, moreEmoji bool) int {
	limit, ok := emojiLimitByTier[premiumTier]
	if !ok {
		if premiumTier > 3 {
			limit = emojiLimitByTier[3]
		} else {
			limit = emojiLimitByTier[0]
		}
	}
	if moreEmoji && limit < moreEmojiMinLimit {
		limit = moreEmojiMinLimit
	}
	return limit
}

func percentage(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
