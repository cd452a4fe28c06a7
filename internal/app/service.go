package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"templet/api/internal/auth"
	"templet/api/internal/authpw"
	"templet/api/internal/config"
	"templet/api/internal/export"
	"templet/api/internal/gemini"
	"templet/api/internal/gitrepo"
	"templet/api/internal/notion"
	"templet/api/internal/objectstore"
	"templet/api/internal/search"
	"templet/api/internal/session"
	"templet/api/internal/store"
	"templet/api/internal/template"
	"templet/api/internal/util"
)

// Session is an authenticated caller, resolved from an access token or
// freshly issued on sign in.
type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	JTI          string
	ExpiresAt    time.Time
}

const (
	minDescriptionLength = 10
	maxImageBytes        = 10 << 20
)

type dataStore interface {
	CreateUser(context.Context, store.User) error
	GetUserByEmail(context.Context, string) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	SetNotionConnection(context.Context, string, store.NotionConnection) error
	ClearNotionConnection(context.Context, string) error
	SaveTemplate(context.Context, store.TemplateRecord) error
	GetTemplate(context.Context, string, string) (store.TemplateRecord, error)
	ListTemplates(context.Context, string) ([]store.TemplateSummary, error)
	DeleteTemplate(context.Context, string, string) error
	SaveRefreshSession(context.Context, string, string, time.Time) error
	GetRefreshSession(context.Context, string) (string, error)
	DeleteRefreshSession(context.Context, string) error
	Ping(ctx context.Context) error
}

// sessionStore is the Redis-backed refresh token store. When nil the
// service falls back to the refresh_sessions table in Postgres.
type sessionStore interface {
	Save(ctx context.Context, tokenHash string, sess session.Session, expiresAt time.Time) error
	Lookup(ctx context.Context, tokenHash string) (session.Session, error)
	Revoke(ctx context.Context, tokenHash string) error
	Ping(ctx context.Context) error
}

type generator interface {
	Generate(ctx context.Context, description string) (*template.Template, error)
	GenerateFromImage(ctx context.Context, data []byte, mimeType, description string) (*template.Template, error)
}

type gitService interface {
	EnsureTemplateRepo(templateID string, initial *template.Template, author string) error
	CommitTemplate(templateID string, doc *template.Template, author, message string) (gitrepo.CommitInfo, error)
	History(templateID string, limit int) ([]gitrepo.CommitInfo, error)
	GetByHash(templateID, hash string) (*template.Template, error)
	Remove(templateID string) error
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	authPw   *authpw.Service
	gen      generator
	git      gitService
	search   *search.Service
	export   *export.Service
	uploads  *objectstore.Store
}

func New(cfg config.Config, dataStore *store.PostgresStore, gen generator, gitService *gitrepo.Service, searchService *search.Service) *Service {
	return &Service{
		cfg:    cfg,
		store:  dataStore,
		authPw: authpw.NewService(dataStore),
		gen:    gen,
		git:    gitService,
		search: searchService,
		export: export.NewService(),
	}
}

func NewWithSessionStore(cfg config.Config, dataStore *store.PostgresStore, sessions *session.RedisStore, gen generator, gitService *gitrepo.Service, searchService *search.Service) *Service {
	service := New(cfg, dataStore, gen, gitService, searchService)
	service.sessions = sessions
	return service
}

// SetUploadStore enables archival of uploaded reference images to object
// storage. Optional; generation works without it.
func (s *Service) SetUploadStore(uploads *objectstore.Store) {
	s.uploads = uploads
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) SessionStorePing(ctx context.Context) (checked bool, err error) {
	if s.sessions == nil {
		return false, nil
	}
	return true, s.sessions.Ping(ctx)
}

func (s *Service) SearchBackend() (configured, healthy bool) {
	return s.search.MeiliStatus()
}

// --- Accounts and sessions ---

func (s *Service) SignUp(ctx context.Context, email, password, name string) (Session, error) {
	user, err := s.authPw.SignUp(ctx, authpw.SignUpRequest{
		Email:    email,
		Password: password,
		Name:     name,
	})
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.authPw.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), user.ID, user.Name, jti, s.cfg.AccessTTL)
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.saveRefreshSession(ctx, auth.HashToken(refresh), user, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.Name,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) saveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error {
	if s.sessions != nil {
		return s.sessions.Save(ctx, tokenHash, session.Session{UserID: user.ID, Name: user.Name}, expiresAt)
	}
	return s.store.SaveRefreshSession(ctx, tokenHash, user.ID, expiresAt)
}

func (s *Service) lookupRefreshSession(ctx context.Context, tokenHash string) (string, error) {
	if s.sessions != nil {
		sess, err := s.sessions.Lookup(ctx, tokenHash)
		if err != nil {
			return "", err
		}
		return sess.UserID, nil
	}
	return s.store.GetRefreshSession(ctx, tokenHash)
}

func (s *Service) revokeRefreshSession(ctx context.Context, tokenHash string) error {
	if s.sessions != nil {
		return s.sessions.Revoke(ctx, tokenHash)
	}
	return s.store.DeleteRefreshSession(ctx, tokenHash)
}

// Refresh rotates a refresh token: the old token is revoked before the new
// session is issued, so a replayed token fails.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	userID, err := s.lookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, auth.ErrInvalidToken
	}
	if err := s.revokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	user, err := s.store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return Session{}, err
	}
	sess := Session{
		Token:    token,
		UserID:   user.ID,
		UserName: user.Name,
		JTI:      claims.ID,
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.revokeRefreshSession(ctx, auth.HashToken(refreshToken))
}

// --- Template generation ---

func (s *Service) GenerateTemplate(ctx context.Context, description string) (*template.Template, error) {
	description = strings.TrimSpace(description)
	if len([]rune(description)) < minDescriptionLength {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			fmt.Sprintf("description must be at least %d characters", minDescriptionLength), nil)
	}
	tpl, err := s.gen.Generate(ctx, description)
	if err != nil {
		return nil, mapGenerateError(err)
	}
	return tpl, nil
}

func (s *Service) GenerateTemplateFromImage(ctx context.Context, data []byte, mimeType, description string) (*template.Template, error) {
	if len(data) == 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "image is required", nil)
	}
	if len(data) > maxImageBytes {
		return nil, domainError(http.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE", "image exceeds the 10MB limit", nil)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "file must be an image", nil)
	}

	s.archiveUpload(data, mimeType)

	tpl, err := s.gen.GenerateFromImage(ctx, data, mimeType, strings.TrimSpace(description))
	if err != nil {
		return nil, mapGenerateError(err)
	}
	return tpl, nil
}

// archiveUpload keeps a copy of the reference image in object storage.
// Best effort; a failed archive never blocks generation.
func (s *Service) archiveUpload(data []byte, mimeType string) {
	if s.uploads == nil {
		return
	}
	name := util.NewID("img") + extensionForMime(mimeType)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.uploads.Put(ctx, name, data, mimeType); err != nil {
			log.Printf("uploads: archive %s: %v", name, err)
		}
	}()
}

func extensionForMime(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}

func mapGenerateError(err error) error {
	if errors.Is(err, gemini.ErrEmptyResponse) || errors.Is(err, template.ErrParse) {
		return domainError(http.StatusBadGateway, "GENERATION_FAILED", "The generator returned an unusable response, try rephrasing your request", nil)
	}
	return err
}

// --- Notion page operations ---

// notionToken resolves the API token for a Notion call: an explicit key in
// the request wins, then the session user's connected workspace token.
func (s *Service) notionToken(ctx context.Context, sess *Session, notionKey string) (string, error) {
	if key := strings.TrimSpace(notionKey); key != "" {
		return key, nil
	}
	if sess != nil {
		user, err := s.store.GetUserByID(ctx, sess.UserID)
		if err != nil {
			return "", err
		}
		if user.NotionConnected() {
			return user.NotionAccessToken, nil
		}
	}
	return "", domainError(http.StatusBadRequest, "NOTION_KEY_REQUIRED", "Provide a Notion API key or connect your workspace", nil)
}

func (s *Service) notionClient(token string) *notion.Client {
	return notion.NewClientWithBaseURL(token, s.cfg.NotionBaseURL)
}

type CreateNotionPageInput struct {
	NotionKey    string
	ParentPageID string
	Template     *template.Template
}

func (s *Service) CreateNotionPage(ctx context.Context, sess *Session, in CreateNotionPageInput) (map[string]any, error) {
	if in.Template == nil || strings.TrimSpace(in.Template.Title) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "template with a title is required", nil)
	}
	if strings.TrimSpace(in.ParentPageID) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "parentPageId is required", nil)
	}
	token, err := s.notionToken(ctx, sess, in.NotionKey)
	if err != nil {
		return nil, err
	}
	page, err := notion.CreateTemplatePage(ctx, s.notionClient(token), notion.NormalizePageID(in.ParentPageID), in.Template)
	if err != nil {
		return nil, mapNotionError(err)
	}
	return map[string]any{"success": true, "pageId": page.ID, "url": page.URL}, nil
}

func (s *Service) FetchNotionPage(ctx context.Context, sess *Session, notionKey, pageID string) (*template.Template, error) {
	if strings.TrimSpace(pageID) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "pageId is required", nil)
	}
	token, err := s.notionToken(ctx, sess, notionKey)
	if err != nil {
		return nil, err
	}
	tpl, err := notion.FetchTemplate(ctx, s.notionClient(token), notion.NormalizePageID(pageID))
	if err != nil {
		return nil, mapNotionError(err)
	}
	return tpl, nil
}

type UpdateNotionPageInput struct {
	NotionKey string
	PageID    string
	Title     string
	Icon      string
	Original  []template.Block
	Updated   []template.Block
}

func (s *Service) UpdateNotionPage(ctx context.Context, sess *Session, in UpdateNotionPageInput) (notion.SyncReport, error) {
	if strings.TrimSpace(in.PageID) == "" {
		return notion.SyncReport{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "pageId is required", nil)
	}
	token, err := s.notionToken(ctx, sess, in.NotionKey)
	if err != nil {
		return notion.SyncReport{}, err
	}
	report, err := notion.UpdateTemplatePage(ctx, s.notionClient(token), notion.NormalizePageID(in.PageID), in.Title, in.Icon, in.Original, in.Updated)
	if err != nil {
		return notion.SyncReport{}, mapNotionError(err)
	}
	return report, nil
}

func mapNotionError(err error) error {
	if notion.IsUnauthorized(err) {
		return domainError(http.StatusUnauthorized, "NOTION_UNAUTHORIZED", "Notion rejected the API token", nil)
	}
	if notion.IsNotFound(err) {
		return domainError(http.StatusNotFound, "NOTION_NOT_FOUND", "Page not found or the integration has no access to it", nil)
	}
	var apiErr *notion.APIError
	if errors.As(err, &apiErr) {
		return domainError(http.StatusBadGateway, "NOTION_ERROR", apiErr.Message, map[string]any{"notionCode": apiErr.Code})
	}
	return err
}

// --- Notion OAuth ---

func (s *Service) NotionAuthorizeURL(sess Session) (string, error) {
	if s.cfg.NotionClientID == "" {
		return "", domainError(http.StatusServiceUnavailable, "NOTION_OAUTH_UNAVAILABLE", "Notion OAuth is not configured", nil)
	}
	// The state is a short lived token bound to the user, verified on
	// callback so a connection cannot be grafted onto another account.
	state, err := auth.IssueToken([]byte(s.cfg.JWTSecret), sess.UserID, sess.UserName, util.NewID("st"), 10*time.Minute)
	if err != nil {
		return "", err
	}
	return notion.AuthorizeURL(s.cfg.NotionBaseURL, s.cfg.NotionClientID, s.cfg.NotionRedirectURI, state), nil
}

func (s *Service) ConnectNotion(ctx context.Context, state, code string) (map[string]any, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), state)
	if err != nil {
		return nil, domainError(http.StatusBadRequest, "INVALID_STATE", "OAuth state is invalid or expired", nil)
	}
	token, err := notion.ExchangeOAuthCode(ctx, s.cfg.NotionBaseURL, s.cfg.NotionClientID, s.cfg.NotionClientSecret, s.cfg.NotionRedirectURI, code)
	if err != nil {
		return nil, domainError(http.StatusBadGateway, "NOTION_OAUTH_FAILED", "Could not exchange the authorization code", nil)
	}
	conn := store.NotionConnection{
		AccessToken:   token.AccessToken,
		WorkspaceID:   token.WorkspaceID,
		WorkspaceName: token.WorkspaceName,
		WorkspaceIcon: token.WorkspaceIcon,
		BotID:         token.BotID,
	}
	if err := s.store.SetNotionConnection(ctx, claims.Subject, conn); err != nil {
		return nil, err
	}
	return map[string]any{
		"connected":     true,
		"workspaceName": token.WorkspaceName,
		"workspaceIcon": token.WorkspaceIcon,
	}, nil
}

func (s *Service) DisconnectNotion(ctx context.Context, sess Session) error {
	return s.store.ClearNotionConnection(ctx, sess.UserID)
}

func (s *Service) NotionConnection(ctx context.Context, sess Session) (map[string]any, error) {
	user, err := s.store.GetUserByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if !user.NotionConnected() {
		return map[string]any{"connected": false}, nil
	}
	return map[string]any{
		"connected":     true,
		"workspaceName": user.NotionWorkspaceName,
		"workspaceIcon": user.NotionWorkspaceIcon,
	}, nil
}

// --- Saved templates ---

type SaveTemplateInput struct {
	ID            string
	Description   string
	Template      *template.Template
	NotionPageID  string
	NotionPageURL string
	Message       string
}

func (s *Service) SaveTemplate(ctx context.Context, sess Session, in SaveTemplateInput) (map[string]any, error) {
	if in.Template == nil || strings.TrimSpace(in.Template.Title) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "template with a title is required", nil)
	}

	templateID := strings.TrimSpace(in.ID)
	isNew := templateID == ""
	if isNew {
		templateID = util.NewID("tpl")
	} else {
		// Updates require the caller to own the existing record.
		if _, err := s.store.GetTemplate(ctx, templateID, sess.UserID); err != nil {
			return nil, err
		}
	}

	data, err := json.Marshal(in.Template)
	if err != nil {
		return nil, err
	}
	record := store.TemplateRecord{
		ID:            templateID,
		UserID:        sess.UserID,
		Title:         in.Template.Title,
		Icon:          in.Template.Icon,
		Description:   strings.TrimSpace(in.Description),
		Data:          data,
		PlainText:     in.Template.PlainText(),
		NotionPageID:  in.NotionPageID,
		NotionPageURL: in.NotionPageURL,
	}
	if err := s.store.SaveTemplate(ctx, record); err != nil {
		return nil, err
	}

	var commit gitrepo.CommitInfo
	if isNew {
		if err := s.git.EnsureTemplateRepo(templateID, in.Template, sess.UserName); err != nil {
			return nil, err
		}
		history, err := s.git.History(templateID, 1)
		if err == nil && len(history) > 0 {
			commit = history[0]
		}
	} else {
		message := strings.TrimSpace(in.Message)
		if message == "" {
			message = "Update template"
		}
		commit, err = s.git.CommitTemplate(templateID, in.Template, sess.UserName, message)
		if err != nil {
			return nil, err
		}
	}

	s.search.IndexTemplate(search.TemplateRecord{
		ID:            templateID,
		UserID:        sess.UserID,
		Title:         record.Title,
		Icon:          record.Icon,
		Description:   record.Description,
		PlainText:     record.PlainText,
		NotionPageURL: record.NotionPageURL,
	})

	payload := map[string]any{
		"id":    templateID,
		"title": record.Title,
	}
	if commit.Hash != "" {
		payload["version"] = commit.Hash
	}
	return payload, nil
}

func (s *Service) ListTemplates(ctx context.Context, sess Session) ([]store.TemplateSummary, error) {
	return s.store.ListTemplates(ctx, sess.UserID)
}

func (s *Service) GetTemplate(ctx context.Context, sess Session, id string) (map[string]any, error) {
	record, err := s.store.GetTemplate(ctx, id, sess.UserID)
	if err != nil {
		return nil, err
	}
	var tpl template.Template
	if err := json.Unmarshal(record.Data, &tpl); err != nil {
		return nil, err
	}
	return map[string]any{
		"id":            record.ID,
		"title":         record.Title,
		"icon":          record.Icon,
		"description":   record.Description,
		"template":      tpl,
		"notionPageId":  record.NotionPageID,
		"notionPageUrl": record.NotionPageURL,
		"createdAt":     record.CreatedAt,
		"updatedAt":     record.UpdatedAt,
	}, nil
}

func (s *Service) DeleteTemplate(ctx context.Context, sess Session, id string) error {
	if err := s.store.DeleteTemplate(ctx, id, sess.UserID); err != nil {
		return err
	}
	if err := s.git.Remove(id); err != nil {
		log.Printf("gitrepo: remove %s: %v", id, err)
	}
	s.search.DeleteTemplate(id)
	return nil
}

// --- Version history ---

func (s *Service) TemplateHistory(ctx context.Context, sess Session, id string, limit int) ([]gitrepo.CommitInfo, error) {
	if _, err := s.store.GetTemplate(ctx, id, sess.UserID); err != nil {
		return nil, err
	}
	return s.git.History(id, limit)
}

func (s *Service) TemplateVersion(ctx context.Context, sess Session, id, hash string) (*template.Template, error) {
	if _, err := s.store.GetTemplate(ctx, id, sess.UserID); err != nil {
		return nil, err
	}
	tpl, err := s.git.GetByHash(id, hash)
	if err != nil {
		return nil, domainError(http.StatusNotFound, "VERSION_NOT_FOUND", "Version not found", nil)
	}
	return tpl, nil
}

func (s *Service) CompareVersions(ctx context.Context, sess Session, id, fromHash, toHash string) (map[string]any, error) {
	if _, err := s.store.GetTemplate(ctx, id, sess.UserID); err != nil {
		return nil, err
	}
	from, err := s.git.GetByHash(id, fromHash)
	if err != nil {
		return nil, domainError(http.StatusNotFound, "VERSION_NOT_FOUND", "Version not found", map[string]any{"hash": fromHash})
	}
	to, err := s.git.GetByHash(id, toHash)
	if err != nil {
		return nil, domainError(http.StatusNotFound, "VERSION_NOT_FOUND", "Version not found", map[string]any{"hash": toHash})
	}
	return map[string]any{
		"from":    fromHash,
		"to":      toHash,
		"changes": gitrepo.DiffVersions(from, to),
	}, nil
}

// --- Export ---

func (s *Service) ExportTemplate(ctx context.Context, sess Session, id string, format export.Format) (*export.Result, error) {
	record, err := s.store.GetTemplate(ctx, id, sess.UserID)
	if err != nil {
		return nil, err
	}
	var tpl template.Template
	if err := json.Unmarshal(record.Data, &tpl); err != nil {
		return nil, err
	}
	result, err := s.export.Export(&tpl, format)
	if err != nil {
		if errors.Is(err, export.ErrPDFDependencyMissing) {
			return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF export is not available on this server", nil)
		}
		return nil, err
	}
	return result, nil
}

// --- Search ---

func (s *Service) Search(ctx context.Context, sess Session, text string, limit, offset int) search.Response {
	return s.search.Search(ctx, search.Query{
		UserID: sess.UserID,
		Text:   text,
		Limit:  limit,
		Offset: offset,
	})
}
