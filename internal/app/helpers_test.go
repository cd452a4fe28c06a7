package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"templet/api/internal/authpw"
	"templet/api/internal/config"
	"templet/api/internal/export"
	"templet/api/internal/gitrepo"
	"templet/api/internal/search"
	"templet/api/internal/store"
	"templet/api/internal/template"
)

type refreshRecord struct {
	userID    string
	expiresAt time.Time
}

type fakeStore struct {
	mu        sync.Mutex
	users     map[string]store.User
	templates map[string]store.TemplateRecord
	refresh   map[string]refreshRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[string]store.User),
		templates: make(map[string]store.TemplateRecord),
		refresh:   make(map[string]refreshRecord),
	}
}

func (f *fakeStore) CreateUser(_ context.Context, user store.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return store.User{}, store.ErrNotFound
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeStore) SetNotionConnection(_ context.Context, userID string, conn store.NotionConnection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	now := time.Now()
	user.NotionAccessToken = conn.AccessToken
	user.NotionWorkspaceID = conn.WorkspaceID
	user.NotionWorkspaceName = conn.WorkspaceName
	user.NotionWorkspaceIcon = conn.WorkspaceIcon
	user.NotionBotID = conn.BotID
	user.NotionConnectedAt = &now
	f.users[userID] = user
	return nil
}

func (f *fakeStore) ClearNotionConnection(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	user.NotionAccessToken = ""
	user.NotionWorkspaceID = ""
	user.NotionWorkspaceName = ""
	user.NotionWorkspaceIcon = ""
	user.NotionBotID = ""
	user.NotionConnectedAt = nil
	f.users[userID] = user
	return nil
}

func (f *fakeStore) SaveTemplate(_ context.Context, record store.TemplateRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.templates[record.ID]; ok {
		if existing.UserID != record.UserID {
			return nil
		}
		record.CreatedAt = existing.CreatedAt
	} else {
		record.CreatedAt = time.Now()
	}
	record.UpdatedAt = time.Now()
	f.templates[record.ID] = record
	return nil
}

func (f *fakeStore) GetTemplate(_ context.Context, id, userID string) (store.TemplateRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.templates[id]
	if !ok || record.UserID != userID {
		return store.TemplateRecord{}, store.ErrNotFound
	}
	return record, nil
}

func (f *fakeStore) ListTemplates(_ context.Context, userID string) ([]store.TemplateSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.TemplateSummary
	for _, record := range f.templates {
		if record.UserID != userID {
			continue
		}
		out = append(out, store.TemplateSummary{
			ID:            record.ID,
			Title:         record.Title,
			Icon:          record.Icon,
			Description:   record.Description,
			NotionPageURL: record.NotionPageURL,
			CreatedAt:     record.CreatedAt,
			UpdatedAt:     record.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) DeleteTemplate(_ context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.templates[id]
	if !ok || record.UserID != userID {
		return store.ErrNotFound
	}
	delete(f.templates, id)
	return nil
}

func (f *fakeStore) SearchTemplates(_ context.Context, userID, query string, limit int) ([]store.TemplateSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	needle := strings.ToLower(query)
	var out []store.TemplateSummary
	for _, record := range f.templates {
		if record.UserID != userID {
			continue
		}
		haystack := strings.ToLower(record.Title + " " + record.Description + " " + record.PlainText)
		if !strings.Contains(haystack, needle) {
			continue
		}
		out = append(out, store.TemplateSummary{
			ID:            record.ID,
			Title:         record.Title,
			Description:   record.Description,
			NotionPageURL: record.NotionPageURL,
		})
		if len(out) >= limit {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) SaveRefreshSession(_ context.Context, tokenHash, userID string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh[tokenHash] = refreshRecord{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeStore) GetRefreshSession(_ context.Context, tokenHash string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.refresh[tokenHash]
	if !ok || time.Now().After(record.expiresAt) {
		return "", store.ErrNotFound
	}
	return record.userID, nil
}

func (f *fakeStore) DeleteRefreshSession(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.refresh, tokenHash)
	return nil
}

func (f *fakeStore) Ping(_ context.Context) error {
	return nil
}

type fakeCommit struct {
	info gitrepo.CommitInfo
	doc  template.Template
}

type fakeGit struct {
	mu    sync.Mutex
	repos map[string][]fakeCommit
	seq   int
}

func newFakeGit() *fakeGit {
	return &fakeGit{repos: make(map[string][]fakeCommit)}
}

func (g *fakeGit) commit(templateID string, doc *template.Template, author, message string) gitrepo.CommitInfo {
	g.seq++
	info := gitrepo.CommitInfo{
		Hash:      fmt.Sprintf("%07x", g.seq),
		Message:   message,
		Author:    author,
		CreatedAt: time.Now(),
	}
	g.repos[templateID] = append(g.repos[templateID], fakeCommit{info: info, doc: *doc})
	return info
}

func (g *fakeGit) EnsureTemplateRepo(templateID string, initial *template.Template, author string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.repos[templateID]; ok {
		return nil
	}
	g.commit(templateID, initial, author, "Initial version")
	return nil
}

func (g *fakeGit) CommitTemplate(templateID string, doc *template.Template, author, message string) (gitrepo.CommitInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.repos[templateID]; !ok {
		return gitrepo.CommitInfo{}, fmt.Errorf("repository %s does not exist", templateID)
	}
	return g.commit(templateID, doc, author, message), nil
}

func (g *fakeGit) History(templateID string, limit int) ([]gitrepo.CommitInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	commits, ok := g.repos[templateID]
	if !ok {
		return nil, fmt.Errorf("repository %s does not exist", templateID)
	}
	var out []gitrepo.CommitInfo
	for i := len(commits) - 1; i >= 0; i-- {
		out = append(out, commits[i].info)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (g *fakeGit) GetByHash(templateID, hash string) (*template.Template, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, commit := range g.repos[templateID] {
		if commit.info.Hash == hash {
			doc := commit.doc
			return &doc, nil
		}
	}
	return nil, fmt.Errorf("unknown version %s", hash)
}

func (g *fakeGit) Remove(templateID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.repos, templateID)
	return nil
}

type fakeGenerator struct {
	tpl       *template.Template
	err       error
	lastInput string
	lastMime  string
}

func (g *fakeGenerator) Generate(_ context.Context, description string) (*template.Template, error) {
	g.lastInput = description
	if g.err != nil {
		return nil, g.err
	}
	return g.tpl, nil
}

func (g *fakeGenerator) GenerateFromImage(_ context.Context, _ []byte, mimeType, description string) (*template.Template, error) {
	g.lastInput = description
	g.lastMime = mimeType
	if g.err != nil {
		return nil, g.err
	}
	return g.tpl, nil
}

func connWithToken(token string) store.NotionConnection {
	return store.NotionConnection{
		AccessToken:   token,
		WorkspaceID:   "ws-1",
		WorkspaceName: "Mina's Workspace",
		BotID:         "bot-1",
	}
}

func sampleTemplate() *template.Template {
	return &template.Template{
		Title: "Weekly Planner",
		Icon:  "🗓️",
		Blocks: []template.Block{
			{Kind: template.KindHeading1, Content: "This Week"},
			{Kind: template.KindToDo, Content: "Plan sprint"},
		},
	}
}

type testEnv struct {
	server  *httptest.Server
	store   *fakeStore
	git     *fakeGit
	gen     *fakeGenerator
	service *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Config{
		JWTSecret:     "test-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		NotionBaseURL: "https://api.notion.com",
	}
	dataStore := newFakeStore()
	git := newFakeGit()
	gen := &fakeGenerator{tpl: sampleTemplate()}

	service := &Service{
		cfg:    cfg,
		store:  dataStore,
		authPw: authpw.NewService(dataStore),
		gen:    gen,
		git:    git,
		search: search.NewService(nil, search.NewPgFTS(dataStore)),
		export: export.NewService(),
	}

	server := httptest.NewServer(NewHTTPServer(service, "*").Handler())
	t.Cleanup(server.Close)

	return &testEnv{server: server, store: dataStore, git: git, gen: gen, service: service}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var payload map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp, payload
}

func (e *testEnv) signUp(t *testing.T, email string) (token, refreshToken string) {
	t.Helper()
	resp, payload := e.request(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"email":    email,
		"password": "hunter2hunter2",
		"name":     "Mina",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d, payload %v", resp.StatusCode, payload)
	}
	token, _ = payload["token"].(string)
	refreshToken, _ = payload["refreshToken"].(string)
	if token == "" || refreshToken == "" {
		t.Fatalf("signup returned empty tokens: %v", payload)
	}
	return token, refreshToken
}
