package valueobject

import "strings"

// PresenceStatus представляет статус присутствия участника (Value Object)
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusIdle    PresenceStatus = "idle"
	StatusDND     PresenceStatus = "dnd"
	StatusOffline PresenceStatus = "offline"
)

// ParsePresenceStatus приводит сырой статус gateway к одному из четырех значений.
// invisible и неизвестные значения считаются offline.
func ParsePresenceStatus(raw string) PresenceStatus {
	switch PresenceStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusOnline:
		return StatusOnline
	case StatusIdle:
		return StatusIdle
	case StatusDND:
		return StatusDND
	default:
		return StatusOffline
	}
}

// IsActive возвращает true для online, idle и dnd
func (s PresenceStatus) IsActive() bool {
	return s == StatusOnline || s == StatusIdle || s == StatusDND
}

func (s PresenceStatus) String() string {
	return string(s)
}
