package model

type Workspace struct {
	ID            ID     `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	SlackTeamID   string `json:"slack_team_id,omitempty"`
	SlackTeamName string `json:"slack_team_name,omitempty"`
	IsActive      bool   `json:"is_active"`
	LanguageFrom  string `json:"language_from,omitempty"`
	LanguageTo    string `json:"language_to,omitempty"`
	ChannelCount  int    `json:"channel_count,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

type WorkspaceInput struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	BotToken      string `json:"bot_token,omitempty"`
	SigningSecret string `json:"signing_secret,omitempty"`
	AppToken      string `json:"app_token,omitempty"`
	LanguageFrom  string `json:"language_from,omitempty"`
	LanguageTo    string `json:"language_to,omitempty"`
}

type WorkspaceStats struct {
	TotalChannels     int `json:"total_channels"`
	TotalMessages     int `json:"total_messages"`
	TotalTranslations int `json:"total_translations"`
	ActiveUsers       int `json:"active_users"`
}

type Channel struct {
	ID          ID     `json:"id"`
	WorkspaceID ID     `json:"workspace_id"`
	Name        string `json:"name"`
	SlackID     string `json:"slack_channel_id,omitempty"`
	IsActive    bool   `json:"is_active"`
}

type ChatHistory struct {
	ID             ID     `json:"id"`
	WorkspaceID    ID     `json:"workspace_id"`
	ChannelID      ID     `json:"channel_id"`
	ChannelName    string `json:"channel_name,omitempty"`
	UserName       string `json:"user_name,omitempty"`
	OriginalText   string `json:"original_text"`
	TranslatedText string `json:"translated_text,omitempty"`
	SourceLanguage string `json:"source_language,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

type ChatHistoryQuery struct {
	ChannelID string
	Search    string
	StartDate string
	EndDate   string
	Limit     int
	Offset    int
}
