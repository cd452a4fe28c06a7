package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a row the caller asked for does not exist or
// is not visible to the requesting user.
var ErrNotFound = errors.New("not found")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Name, user.Email, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

const userColumns = `
	id, name, email, password_hash, created_at, updated_at,
	COALESCE(notion_access_token, ''), COALESCE(notion_workspace_id, ''),
	COALESCE(notion_workspace_name, ''), COALESCE(notion_workspace_icon, ''),
	COALESCE(notion_bot_id, ''), notion_connected_at
`

func scanUser(row *sql.Row) (User, error) {
	var user User
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.CreatedAt, &user.UpdatedAt,
		&user.NotionAccessToken, &user.NotionWorkspaceID,
		&user.NotionWorkspaceName, &user.NotionWorkspaceIcon,
		&user.NotionBotID, &user.NotionConnectedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *PostgresStore) SetNotionConnection(ctx context.Context, userID string, conn NotionConnection) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			notion_access_token = $2,
			notion_workspace_id = $3,
			notion_workspace_name = $4,
			notion_workspace_icon = $5,
			notion_bot_id = $6,
			notion_connected_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
	`, userID, conn.AccessToken, conn.WorkspaceID, conn.WorkspaceName, conn.WorkspaceIcon, conn.BotID)
	if err != nil {
		return fmt.Errorf("set notion connection: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) ClearNotionConnection(ctx context.Context, userID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			notion_access_token = NULL,
			notion_workspace_id = NULL,
			notion_workspace_name = NULL,
			notion_workspace_icon = NULL,
			notion_bot_id = NULL,
			notion_connected_at = NULL,
			updated_at = NOW()
		WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("clear notion connection: %w", err)
	}
	return requireRow(result)
}

func (s *PostgresStore) SaveTemplate(ctx context.Context, record TemplateRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO templates (id, user_id, title, icon, description, data, plain_text, notion_page_id, notion_page_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			icon = EXCLUDED.icon,
			description = EXCLUDED.description,
			data = EXCLUDED.data,
			plain_text = EXCLUDED.plain_text,
			notion_page_id = EXCLUDED.notion_page_id,
			notion_page_url = EXCLUDED.notion_page_url,
			updated_at = NOW()
		WHERE templates.user_id = EXCLUDED.user_id
	`, record.ID, record.UserID, record.Title, record.Icon, record.Description,
		record.Data, record.PlainText, record.NotionPageID, record.NotionPageURL)
	if err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}

const templateColumns = `
	id, user_id, title, COALESCE(icon, ''), COALESCE(description, ''),
	data, COALESCE(plain_text, ''), COALESCE(notion_page_id, ''),
	COALESCE(notion_page_url, ''), created_at, updated_at
`

func (s *PostgresStore) GetTemplate(ctx context.Context, id, userID string) (TemplateRecord, error) {
	var record TemplateRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM templates WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(
		&record.ID, &record.UserID, &record.Title, &record.Icon, &record.Description,
		&record.Data, &record.PlainText, &record.NotionPageID,
		&record.NotionPageURL, &record.CreatedAt, &record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return TemplateRecord{}, ErrNotFound
	}
	if err != nil {
		return TemplateRecord{}, fmt.Errorf("get template: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListTemplates(ctx context.Context, userID string) ([]TemplateSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, COALESCE(icon, ''), COALESCE(description, ''),
			COALESCE(notion_page_url, ''), created_at, updated_at
		FROM templates
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	summaries := []TemplateSummary{}
	for rows.Next() {
		var item TemplateSummary
		if err := rows.Scan(&item.ID, &item.Title, &item.Icon, &item.Description,
			&item.NotionPageURL, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan template summary: %w", err)
		}
		summaries = append(summaries, item)
	}
	return summaries, rows.Err()
}

func (s *PostgresStore) DeleteTemplate(ctx context.Context, id, userID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM templates WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return requireRow(result)
}

// SearchTemplates runs a websearch-style full text query over a user's saved
// templates. This is the fallback path when Meilisearch is not configured.
func (s *PostgresStore) SearchTemplates(ctx context.Context, userID, query string, limit int) ([]TemplateSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, COALESCE(icon, ''), COALESCE(description, ''),
			COALESCE(notion_page_url, ''), created_at, updated_at
		FROM templates
		WHERE user_id = $1
			AND to_tsvector('simple', title || ' ' || COALESCE(description, '') || ' ' || COALESCE(plain_text, ''))
				@@ websearch_to_tsquery('simple', $2)
		ORDER BY ts_rank(
			to_tsvector('simple', title || ' ' || COALESCE(description, '') || ' ' || COALESCE(plain_text, '')),
			websearch_to_tsquery('simple', $2)
		) DESC
		LIMIT $3
	`, userID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search templates: %w", err)
	}
	defer rows.Close()

	hits := []TemplateSummary{}
	for rows.Next() {
		var item TemplateSummary
		if err := rows.Scan(&item.ID, &item.Title, &item.Icon, &item.Description,
			&item.NotionPageURL, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		hits = append(hits, item)
	}
	return hits, rows.Err()
}

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRefreshSession(ctx context.Context, tokenHash string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id FROM refresh_sessions WHERE token_hash = $1 AND expires_at > NOW()
	`, tokenHash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get refresh session: %w", err)
	}
	return userID, nil
}

func (s *PostgresStore) DeleteRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return fmt.Errorf("delete refresh session: %w", err)
	}
	return nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
