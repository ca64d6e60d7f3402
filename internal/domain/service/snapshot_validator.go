package service

import (
	"errors"
	"fmt"

	"github.com/dreschagin/guild-insights/internal/domain/entity"
	"github.com/dreschagin/guild-insights/internal/domain/valueobject"
)

// ErrMalformedSnapshot возвращается, когда снимок нельзя передать агрегатору
var ErrMalformedSnapshot = errors.New("malformed guild snapshot")

// SnapshotValidator проверяет снимок на границе Session Manager (Domain Service)
type SnapshotValidator struct{}

// NewSnapshotValidator создает новый SnapshotValidator
func NewSnapshotValidator() *SnapshotValidator {
	return &SnapshotValidator{}
}

// Validate выполняет полную валидацию снимка
func (v *SnapshotValidator) Validate(snapshot *entity.GuildSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: snapshot is nil", ErrMalformedSnapshot)
	}

	if snapshot.ID == "" {
		return fmt.Errorf("%w: guild id is empty", ErrMalformedSnapshot)
	}

	if snapshot.PremiumTier < 0 {
		return fmt.Errorf("%w: negative premium tier %d", ErrMalformedSnapshot, snapshot.PremiumTier)
	}

	for i, m := range snapshot.Members {
		if m.ID == "" {
			return fmt.Errorf("%w: member %d has no id", ErrMalformedSnapshot, i)
		}
		if err := v.validateStatus(m.Status); err != nil {
			return fmt.Errorf("%w: member %s: %v", ErrMalformedSnapshot, m.ID, err)
		}
	}

	for i, c := range snapshot.Channels {
		switch c.Kind {
		case valueobject.ChannelText, valueobject.ChannelVoice, valueobject.ChannelOther:
		default:
			return fmt.Errorf("%w: channel %d has unknown kind %q", ErrMalformedSnapshot, i, c.Kind)
		}
		if c.Occupants < 0 {
			return fmt.Errorf("%w: channel %s has negative occupants", ErrMalformedSnapshot, c.ID)
		}
	}

	for _, r := range snapshot.Roles {
		if r.MemberCount < 0 {
			return fmt.Errorf("%w: role %s has negative member count", ErrMalformedSnapshot, r.ID)
		}
	}

	return nil
}

func (v *SnapshotValidator) validateStatus(status valueobject.PresenceStatus) error {
	switch status {
	case valueobject.StatusOnline, valueobject.StatusIdle, valueobject.StatusDND, valueobject.StatusOffline:
		return nil
	default:
		return fmt.Errorf("unknown presence status %q", status)
	}
}
