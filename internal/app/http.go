package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"templet/api/internal/auth"
	"templet/api/internal/authpw"
	"templet/api/internal/export"
	"templet/api/internal/store"
	"templet/api/internal/template"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		s.handleReady(w, r)
		return
	}

	// Account routes, no session required
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signup" {
		s.handleAuthSignUp(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signin" {
		s.handleAuthSignIn(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		session, err := s.service.SessionFromToken(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "userName": session.UserName, "userId": session.UserID})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/refresh" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		session, err := s.service.Refresh(r.Context(), body.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
			return
		}
		writeJSON(w, http.StatusOK, sessionPayload(session))
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/logout" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = decodeBody(r, &body)
		_ = s.service.Logout(r.Context(), body.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	// The OAuth callback carries no bearer token; identity travels in the
	// signed state parameter instead.
	if r.Method == http.MethodGet && r.URL.Path == "/api/auth/notion/callback" {
		s.handleNotionCallback(w, r)
		return
	}

	// Generation and Notion page routes accept an anonymous caller with an
	// explicit API key, so the session here is optional.
	if r.Method == http.MethodPost && r.URL.Path == "/api/generate" {
		s.handleGenerate(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/generate/image" {
		s.handleGenerateImage(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/notion/create" {
		s.handleNotionCreate(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/notion/fetch" {
		s.handleNotionFetch(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/notion/update" {
		s.handleNotionUpdate(w, r)
		return
	}

	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/auth/notion" {
		authorizeURL, err := s.service.NotionAuthorizeURL(session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"url": authorizeURL})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/auth/notion/status" {
		payload, err := s.service.NotionConnection(r.Context(), session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, payload)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/notion/disconnect" {
		if err := s.service.DisconnectNotion(r.Context(), session); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"connected": false})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		limit, ok := queryInt(w, r, "limit", 20)
		if !ok {
			return
		}
		offset, ok := queryInt(w, r, "offset", 0)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.service.Search(r.Context(), session, q, limit, offset))
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/templates" {
		items, err := s.service.ListTemplates(r.Context(), session)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list templates", nil)
			return
		}
		if items == nil {
			items = []store.TemplateSummary{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"templates": items})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/templates" {
		s.handleSaveTemplate(w, r, session)
		return
	}

	parts := splitPath(r.URL.Path)

	// /api/templates/{id}[...]
	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "templates" {
		templateID := parts[2]

		if len(parts) == 3 {
			switch r.Method {
			case http.MethodGet:
				payload, err := s.service.GetTemplate(r.Context(), session, templateID)
				if err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusOK, payload)
				return
			case http.MethodPut:
				s.handleSaveTemplateByID(w, r, session, templateID)
				return
			case http.MethodDelete:
				if err := s.service.DeleteTemplate(r.Context(), session, templateID); err != nil {
					status, code, message, details := mapError(err)
					writeError(w, status, code, message, details)
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{"ok": true})
				return
			}
		}

		if len(parts) == 4 && parts[3] == "history" && r.Method == http.MethodGet {
			limit, ok := queryInt(w, r, "limit", 50)
			if !ok {
				return
			}
			commits, err := s.service.TemplateHistory(r.Context(), session, templateID, limit)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"commits": commits})
			return
		}

		if len(parts) == 5 && parts[3] == "versions" && r.Method == http.MethodGet {
			tpl, err := s.service.TemplateVersion(r.Context(), session, templateID, parts[4])
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"template": tpl})
			return
		}

		if len(parts) == 4 && parts[3] == "compare" && r.Method == http.MethodGet {
			from := strings.TrimSpace(r.URL.Query().Get("from"))
			to := strings.TrimSpace(r.URL.Query().Get("to"))
			if from == "" || to == "" {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "from and to are required", nil)
				return
			}
			payload, err := s.service.CompareVersions(r.Context(), session, templateID, from, to)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, payload)
			return
		}

		if len(parts) == 4 && parts[3] == "export" && r.Method == http.MethodGet {
			s.handleExport(w, r, session, templateID)
			return
		}
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database": map[string]any{"status": "ok"},
	}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["database"] = map[string]any{"status": "error", "error": err.Error()}
	}

	if checked, err := s.service.SessionStorePing(ctx); checked {
		if err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["redis"] = map[string]any{"status": "error", "error": err.Error()}
		} else {
			checks["redis"] = map[string]any{"status": "ok"}
		}
	}

	// A down Meilisearch degrades search to the Postgres fallback, it does
	// not make the service unready.
	if configured, healthy := s.service.SearchBackend(); configured {
		searchStatus := "ok"
		if !healthy {
			searchStatus = "degraded"
		}
		checks["meilisearch"] = map[string]any{"status": searchStatus}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleAuthSignUp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	session, err := s.service.SignUp(r.Context(), body.Email, body.Password, body.Name)
	if err != nil {
		if errors.Is(err, authpw.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "EMAIL_EXISTS", "Email already registered", nil)
			return
		}
		var domainErr *DomainError
		if errors.As(err, &domainErr) {
			writeError(w, domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details)
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusCreated, sessionPayload(session))
}

func (s *HTTPServer) handleAuthSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	session, err := s.service.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, authpw.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Sign in failed", nil)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(session))
}

func (s *HTTPServer) handleNotionCallback(w http.ResponseWriter, r *http.Request) {
	state := strings.TrimSpace(r.URL.Query().Get("state"))
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if oauthErr := strings.TrimSpace(r.URL.Query().Get("error")); oauthErr != "" {
		s.redirectAfterOAuth(w, r, "error="+oauthErr)
		return
	}
	if state == "" || code == "" {
		writeError(w, http.StatusBadRequest, "INVALID_STATE", "state and code are required", nil)
		return
	}
	if _, err := s.service.ConnectNotion(r.Context(), state, code); err != nil {
		status, errCode, message, details := mapError(err)
		writeError(w, status, errCode, message, details)
		return
	}
	s.redirectAfterOAuth(w, r, "notion=connected")
}

// redirectAfterOAuth sends the browser back to the frontend when one is
// configured, otherwise answers with JSON for API-only deployments.
func (s *HTTPServer) redirectAfterOAuth(w http.ResponseWriter, r *http.Request, fragment string) {
	appURL := strings.TrimSpace(s.service.cfg.AppURL)
	if appURL == "" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": !strings.HasPrefix(fragment, "error=")})
		return
	}
	w.Header().Del("Content-Type")
	http.Redirect(w, r, strings.TrimRight(appURL, "/")+"/settings?"+fragment, http.StatusFound)
}

// optionalSession resolves the bearer token if present. Generation and
// Notion routes work for anonymous callers that bring their own API key.
func (s *HTTPServer) optionalSession(r *http.Request) *Session {
	token := bearerToken(r)
	if token == "" {
		return nil
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		return nil
	}
	return &session
}

func (s *HTTPServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Description string `json:"description"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	tpl, err := s.service.GenerateTemplate(r.Context(), body.Description)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"template": tpl})
}

// handleGenerateImage accepts either a multipart form with an "image" file
// or a JSON body with base64 image data.
func (s *HTTPServer) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var data []byte
	var mimeType, description string

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "could not parse multipart form", nil)
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "image file is required", nil)
			return
		}
		defer file.Close()
		data, err = io.ReadAll(io.LimitReader(file, maxImageBytes+1))
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "could not read image file", nil)
			return
		}
		mimeType = header.Header.Get("Content-Type")
		description = r.FormValue("description")
	} else {
		var body struct {
			Image       string `json:"image"`
			MimeType    string `json:"mimeType"`
			Description string `json:"description"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		var err error
		data, err = base64.StdEncoding.DecodeString(body.Image)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "image must be base64 encoded", nil)
			return
		}
		mimeType = body.MimeType
		description = body.Description
	}

	tpl, err := s.service.GenerateTemplateFromImage(r.Context(), data, mimeType, description)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"template": tpl})
}

func (s *HTTPServer) handleNotionCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NotionKey    string             `json:"notionApiKey"`
		ParentPageID string             `json:"parentPageId"`
		Template     *template.Template `json:"template"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	payload, err := s.service.CreateNotionPage(r.Context(), s.optionalSession(r), CreateNotionPageInput{
		NotionKey:    body.NotionKey,
		ParentPageID: body.ParentPageID,
		Template:     body.Template,
	})
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleNotionFetch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NotionKey string `json:"notionApiKey"`
		PageID    string `json:"pageId"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	tpl, err := s.service.FetchNotionPage(r.Context(), s.optionalSession(r), body.NotionKey, body.PageID)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "template": tpl})
}

func (s *HTTPServer) handleNotionUpdate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NotionKey string           `json:"notionApiKey"`
		PageID    string           `json:"pageId"`
		Title     string           `json:"title"`
		Icon      string           `json:"icon"`
		Original  []template.Block `json:"original"`
		Updated   []template.Block `json:"updated"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	report, err := s.service.UpdateNotionPage(r.Context(), s.optionalSession(r), UpdateNotionPageInput{
		NotionKey: body.NotionKey,
		PageID:    body.PageID,
		Title:     body.Title,
		Icon:      body.Icon,
		Original:  body.Original,
		Updated:   body.Updated,
	})
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"deleted": report.Deleted,
		"updated": report.Updated,
		"created": report.Created,
		"skipped": report.Skipped,
	})
}

type saveTemplateBody struct {
	ID            string             `json:"id"`
	Description   string             `json:"description"`
	Template      *template.Template `json:"template"`
	NotionPageID  string             `json:"notionPageId"`
	NotionPageURL string             `json:"notionPageUrl"`
	Message       string             `json:"message"`
}

func (s *HTTPServer) handleSaveTemplate(w http.ResponseWriter, r *http.Request, session Session) {
	var body saveTemplateBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	s.saveTemplate(w, r, session, body)
}

func (s *HTTPServer) handleSaveTemplateByID(w http.ResponseWriter, r *http.Request, session Session, templateID string) {
	var body saveTemplateBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	body.ID = templateID
	s.saveTemplate(w, r, session, body)
}

func (s *HTTPServer) saveTemplate(w http.ResponseWriter, r *http.Request, session Session, body saveTemplateBody) {
	payload, err := s.service.SaveTemplate(r.Context(), session, SaveTemplateInput{
		ID:            body.ID,
		Description:   body.Description,
		Template:      body.Template,
		NotionPageID:  body.NotionPageID,
		NotionPageURL: body.NotionPageURL,
		Message:       body.Message,
	})
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request, session Session, templateID string) {
	format := export.Format(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = export.FormatPDF
	}
	result, err := s.service.ExportTemplate(r.Context(), session, templateID, format)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return Session{}, false
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return Session{}, false
	}
	return session, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func queryInt(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", name+" must be an integer", nil)
		return 0, false
	}
	return parsed, true
}

func sessionPayload(session Session) map[string]any {
	return map[string]any{
		"token":        session.Token,
		"refreshToken": session.RefreshToken,
		"userName":     session.UserName,
		"userId":       session.UserID,
		"expiresAt":    session.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
