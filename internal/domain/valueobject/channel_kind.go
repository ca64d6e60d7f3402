package valueobject

// ChannelKind представляет класс канала для аналитики (Value Object)
type ChannelKind string

const (
	ChannelText  ChannelKind = "text"
	ChannelVoice ChannelKind = "voice"
	ChannelOther ChannelKind = "other"
)

func (k ChannelKind) String() string {
	return string(k)
}
