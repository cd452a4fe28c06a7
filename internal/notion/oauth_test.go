package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestAuthorizeURL(t *testing.T) {
	raw := AuthorizeURL("https://api.notion.com", "client1", "https://app.example.com/callback", "state123")
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Path != "/v1/oauth/authorize" {
		t.Errorf("path = %s", parsed.Path)
	}
	q := parsed.Query()
	if q.Get("client_id") != "client1" || q.Get("response_type") != "code" ||
		q.Get("owner") != "user" || q.Get("state") != "state123" {
		t.Errorf("query = %v", q)
	}
}

func TestExchangeOAuthCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/oauth/token" {
			t.Errorf("path = %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client1" || pass != "secret1" {
			t.Errorf("basic auth = %s:%s (%v)", user, pass, ok)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["grant_type"] != "authorization_code" || body["code"] != "code123" {
			t.Errorf("body = %v", body)
		}
		w.Write([]byte(`{
			"access_token": "ntn_token",
			"workspace_id": "ws1",
			"workspace_name": "Acme",
			"bot_id": "bot1"
		}`))
	}))
	defer srv.Close()

	token, err := ExchangeOAuthCode(context.Background(), srv.URL, "client1", "secret1", "https://app/cb", "code123")
	if err != nil {
		t.Fatal(err)
	}
	if token.AccessToken != "ntn_token" || token.WorkspaceName != "Acme" {
		t.Errorf("token = %+v", token)
	}
}

func TestExchangeOAuthCodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","message":"Invalid code."}`))
	}))
	defer srv.Close()

	_, err := ExchangeOAuthCode(context.Background(), srv.URL, "c", "s", "cb", "expired")
	if err == nil {
		t.Fatal("want error")
	}
	if !strings.Contains(err.Error(), "Invalid code") {
		t.Errorf("err = %v", err)
	}
}
