package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"tiller/internal/config"
	"tiller/internal/db"
	"tiller/internal/engine"
	"tiller/internal/migrate"
)

var fixedNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T, auth AuthConfig) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	cfg := config.Default("journal-1")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, cfg)
	e.Now = func() time.Time { return fixedNow }
	if err := e.Repo.UpsertJournalConfig(context.Background(), cfg.Journal.ID, cfg); err != nil {
		t.Fatalf("seed journal config: %v", err)
	}
	handler, err := New(Config{Engine: e, BasePath: "/v0", Auth: auth})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func TestCommitmentLifecycleOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t, AuthConfig{})
	defer cleanup()
	client := srv.Client()

	createRes, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/commitments", map[string]any{
		"title":          "Send board update",
		"direction":      "i_owe",
		"due_date":       fixedNow.AddDate(0, 0, -1).Format(time.RFC3339),
		"priority_score": 80,
	}, nil)
	if createRes.StatusCode != http.StatusCreated {
		t.Fatalf("create commitment status %d: %s", createRes.StatusCode, string(data))
	}
	var created CommitmentResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal commitment: %v", err)
	}
	if created.Status != "open" {
		t.Fatalf("expected open commitment, got %q", created.Status)
	}

	dashRes, dashData := doJSON(t, client, http.MethodGet, srv.URL+"/v0/dashboard", nil, nil)
	if dashRes.StatusCode != http.StatusOK {
		t.Fatalf("dashboard status %d: %s", dashRes.StatusCode, string(dashData))
	}
	var dash struct {
		Commitments struct {
			Overdue []struct {
				ID string `json:"id"`
			} `json:"overdue"`
		} `json:"commitments"`
	}
	if err := json.Unmarshal(dashData, &dash); err != nil {
		t.Fatalf("unmarshal dashboard: %v", err)
	}
	if len(dash.Commitments.Overdue) != 1 || dash.Commitments.Overdue[0].ID != created.ID {
		t.Fatalf("expected commitment in overdue bucket, got %+v", dash.Commitments)
	}

	patchRes, patchData := doJSON(t, client, http.MethodPatch, srv.URL+"/v0/commitments/"+created.ID, map[string]any{
		"title":          "Send board update with metrics",
		"clear_due_date": true,
	}, nil)
	if patchRes.StatusCode != http.StatusOK {
		t.Fatalf("update status %d: %s", patchRes.StatusCode, string(patchData))
	}
	var patched CommitmentResponse
	if err := json.Unmarshal(patchData, &patched); err != nil {
		t.Fatalf("unmarshal updated commitment: %v", err)
	}
	if patched.Title != "Send board update with metrics" || patched.DueDate != nil {
		t.Fatalf("updated commitment = %+v", patched)
	}

	doneRes, doneData := doJSON(t, client, http.MethodPost, srv.URL+"/v0/commitments/"+created.ID+"/complete", nil, nil)
	if doneRes.StatusCode != http.StatusOK {
		t.Fatalf("complete status %d: %s", doneRes.StatusCode, string(doneData))
	}
	var done CommitmentResponse
	if err := json.Unmarshal(doneData, &done); err != nil {
		t.Fatalf("unmarshal done commitment: %v", err)
	}
	if done.Status != "done" || done.CompletedAt == nil {
		t.Fatalf("expected done commitment with completed_at, got %+v", done)
	}

	againRes, againData := doJSON(t, client, http.MethodPost, srv.URL+"/v0/commitments/"+created.ID+"/complete", nil, nil)
	if againRes.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 completing twice, got %d: %s", againRes.StatusCode, string(againData))
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(againData, &envelope); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if envelope.Error.Code != "conflict" {
		t.Fatalf("expected conflict code, got %q", envelope.Error.Code)
	}
}

func TestDecisionReviewOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t, AuthConfig{})
	defer cleanup()
	client := srv.Client()

	createRes, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/entries", map[string]any{
		"title":       "Reorg platform team",
		"is_decision": true,
		"rationale":   "Ownership is split across three leads",
		"confidence":  4,
		"stakes":      "high",
		"review_date": fixedNow.AddDate(0, 0, 3).Format(time.RFC3339),
	}, nil)
	if createRes.StatusCode != http.StatusCreated {
		t.Fatalf("create entry status %d: %s", createRes.StatusCode, string(data))
	}
	var entry EntryResponse
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("unmarshal entry: %v", err)
	}
	if entry.Outcome == nil || *entry.Outcome != "pending" {
		t.Fatalf("expected pending outcome, got %+v", entry.Outcome)
	}

	reviewRes, reviewData := doJSON(t, client, http.MethodPost, srv.URL+"/v0/entries/"+entry.ID+"/review", map[string]any{
		"outcome": "validated",
	}, nil)
	if reviewRes.StatusCode != http.StatusOK {
		t.Fatalf("review status %d: %s", reviewRes.StatusCode, string(reviewData))
	}
	var reviewed EntryResponse
	if err := json.Unmarshal(reviewData, &reviewed); err != nil {
		t.Fatalf("unmarshal reviewed entry: %v", err)
	}
	if reviewed.Outcome == nil || *reviewed.Outcome != "validated" || reviewed.OutcomeDate == nil {
		t.Fatalf("expected validated outcome with date, got %+v", reviewed)
	}

	missRes, missData := doJSON(t, client, http.MethodGet, srv.URL+"/v0/entries/no-such-entry", nil, nil)
	if missRes.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", missRes.StatusCode, string(missData))
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(missData, &envelope); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if envelope.Error.Code != "not_found" {
		t.Fatalf("expected not_found code, got %q", envelope.Error.Code)
	}
}

func TestReflectionFollowUpsOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t, AuthConfig{})
	defer cleanup()
	client := srv.Client()

	createRes, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/reflections", map[string]any{
		"reflection_type": "quick",
		"mood":            "confident",
		"tags":            []string{"delegation"},
		"answers": []map[string]string{
			{"question": "What's on your mind?", "answer": "Need to hand off the migration review"},
		},
		"follow_ups": []map[string]any{
			{"title": "Hand off migration review", "direction": "i_owe"},
		},
	}, nil)
	if createRes.StatusCode != http.StatusCreated {
		t.Fatalf("create reflection status %d: %s", createRes.StatusCode, string(data))
	}
	var ref ReflectionResponse
	if err := json.Unmarshal(data, &ref); err != nil {
		t.Fatalf("unmarshal reflection: %v", err)
	}
	if len(ref.GeneratedCommitmentIDs) != 1 {
		t.Fatalf("expected 1 generated commitment, got %v", ref.GeneratedCommitmentIDs)
	}

	getRes, getData := doJSON(t, client, http.MethodGet, srv.URL+"/v0/commitments/"+ref.GeneratedCommitmentIDs[0], nil, nil)
	if getRes.StatusCode != http.StatusOK {
		t.Fatalf("get generated commitment status %d: %s", getRes.StatusCode, string(getData))
	}

	badRes, badData := doJSON(t, client, http.MethodPost, srv.URL+"/v0/reflections", map[string]any{
		"reflection_type": "periodic",
		"answers": []map[string]string{
			{"question": "What went well?", "answer": "Shipping cadence held"},
		},
	}, nil)
	if badRes.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for periodic without period, got %d: %s", badRes.StatusCode, string(badData))
	}
}

func TestSuggestThemesOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t, AuthConfig{})
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/reflections/suggest-themes", map[string]any{
		"answers": []map[string]string{
			{"question": "What's on your mind?", "answer": "Back to back interviews left me drained"},
		},
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("suggest themes status %d: %s", res.StatusCode, string(data))
	}
	var body struct {
		Themes []string `json:"themes"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("unmarshal themes: %v", err)
	}
	want := map[string]bool{"hiring": false, "energy": false}
	for _, theme := range body.Themes {
		if _, ok := want[theme]; ok {
			want[theme] = true
		}
	}
	for theme, seen := range want {
		if !seen {
			t.Fatalf("expected theme %q in %v", theme, body.Themes)
		}
	}
}

func TestAuthEnforcement(t *testing.T) {
	srv, cleanup := newTestServer(t, AuthConfig{JWTSecret: "test-secret"})
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/dashboard", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d: %s", res.StatusCode, string(data))
	}

	healthRes, _ := doJSON(t, client, http.MethodGet, srv.URL+"/v0/health", nil, nil)
	if healthRes.StatusCode != http.StatusOK {
		t.Fatalf("health should be open, got %d", healthRes.StatusCode)
	}

	loginRes, loginData := doJSON(t, client, http.MethodPost, srv.URL+"/v0/auth/dev/login", map[string]any{
		"subject": "tester",
	}, nil)
	if loginRes.StatusCode != http.StatusOK {
		t.Fatalf("dev login status %d: %s", loginRes.StatusCode, string(loginData))
	}
	var login DevLoginResponse
	if err := json.Unmarshal(loginData, &login); err != nil {
		t.Fatalf("unmarshal login: %v", err)
	}
	if login.Token == "" {
		t.Fatal("expected non-empty token")
	}

	authedRes, authedData := doJSON(t, client, http.MethodGet, srv.URL+"/v0/dashboard", nil, map[string]string{
		"Authorization": "Bearer " + login.Token,
	})
	if authedRes.StatusCode != http.StatusOK {
		t.Fatalf("authed dashboard status %d: %s", authedRes.StatusCode, string(authedData))
	}

	badRes, _ := doJSON(t, client, http.MethodGet, srv.URL+"/v0/dashboard", nil, map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	if badRes.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", badRes.StatusCode)
	}

	meRes, meData := doJSON(t, client, http.MethodGet, srv.URL+"/v0/auth/me", nil, map[string]string{
		"Authorization": "Bearer " + login.Token,
	})
	if meRes.StatusCode != http.StatusOK {
		t.Fatalf("auth/me status %d: %s", meRes.StatusCode, string(meData))
	}
	var me Principal
	if err := json.Unmarshal(meData, &me); err != nil {
		t.Fatalf("unmarshal principal: %v", err)
	}
	if me.Subject != "tester" || me.Source != "jwt" {
		t.Fatalf("principal = %+v", me)
	}
}

func TestWhoAmIWithoutAuthConfigured(t *testing.T) {
	srv, cleanup := newTestServer(t, AuthConfig{})
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/auth/me", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("auth/me status %d: %s", res.StatusCode, string(data))
	}
	var me Principal
	if err := json.Unmarshal(data, &me); err != nil {
		t.Fatalf("unmarshal principal: %v", err)
	}
	if me.Source != "open" {
		t.Fatalf("principal = %+v, want open source", me)
	}
}

func TestOpenAPIAndDocsServed(t *testing.T) {
	srv, cleanup := newTestServer(t, AuthConfig{})
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v0/openapi.json", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("openapi status %d", res.StatusCode)
	}
	var oas struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
	}
	if err := json.Unmarshal(data, &oas); err != nil {
		t.Fatalf("unmarshal openapi: %v", err)
	}
	if oas.Info.Title != "Tiller API" {
		t.Fatalf("unexpected API title %q", oas.Info.Title)
	}

	docsRes, docsData := doJSON(t, client, http.MethodGet, srv.URL+"/docs", nil, nil)
	if docsRes.StatusCode != http.StatusOK {
		t.Fatalf("docs status %d", docsRes.StatusCode)
	}
	if !bytes.Contains(docsData, []byte("swagger-ui")) {
		t.Fatal("expected swagger ui page")
	}
}
