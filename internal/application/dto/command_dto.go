package dto

// SubmitCommandRequest тело запроса на постановку команды в очередь
type SubmitCommandRequest struct {
	GuildID     string   `json:"guild_id"`
	ChannelName string   `json:"channel_name,omitempty"`
	CategoryID  string   `json:"category_id,omitempty"`
	Topic       string   `json:"topic,omitempty"`
	Embed       EmbedDTO `json:"embed"`
	// EmbedFields JSON-массив полей embed в виде строки
	EmbedFields string `json:"embed_fields,omitempty"`
}

// EmbedDTO описывает embed сообщения бота
type EmbedDTO struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Image       string `json:"image,omitempty"`
	Footer      string `json:"footer,omitempty"`
}

// TicketCommandDTO запись команды в очереди, которую читает бот
type TicketCommandDTO struct {
	Action      string          `json:"action"`
	RequesterID string          `json:"requester_id"`
	ChannelName string          `json:"channel_name,omitempty"`
	CategoryID  string          `json:"category_id,omitempty"`
	Topic       string          `json:"topic,omitempty"`
	Embed       CommandEmbedDTO `json:"embed"`
	CreatedAt   int64           `json:"created_at"`
}

// CommandEmbedDTO embed с разобранными полями
type CommandEmbedDTO struct {
	EmbedDTO
	Fields []map[string]interface{} `json:"fields"`
}

// DiscordUserDTO пользователь, возвращаемый /users/@me
type DiscordUserDTO struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
}

// SubmitCommandResponse ответ на постановку команды
type SubmitCommandResponse struct {
	CommandID string `json:"command_id"`
	Path      string `json:"path"`
}
