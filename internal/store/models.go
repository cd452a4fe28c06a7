package store

import "time"

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Notion workspace connection, empty until the OAuth flow completes.
	NotionAccessToken   string
	NotionWorkspaceID   string
	NotionWorkspaceName string
	NotionWorkspaceIcon string
	NotionBotID         string
	NotionConnectedAt   *time.Time
}

// NotionConnected reports whether the user has linked a workspace.
func (u User) NotionConnected() bool {
	return u.NotionAccessToken != ""
}

// NotionConnection is the payload persisted after an OAuth exchange.
type NotionConnection struct {
	AccessToken   string
	WorkspaceID   string
	WorkspaceName string
	WorkspaceIcon string
	BotID         string
}

// TemplateRecord is a saved template document. Data holds the template JSON
// as produced by the generator or edited by the user; PlainText is the
// derived text used for full text search.
type TemplateRecord struct {
	ID            string
	UserID        string
	Title         string
	Icon          string
	Description   string
	Data          []byte
	PlainText     string
	NotionPageID  string
	NotionPageURL string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TemplateSummary is the listing projection of a saved template, without
// the document body.
type TemplateSummary struct {
	ID            string
	Title         string
	Icon          string
	Description   string
	NotionPageURL string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
