//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ilng/roster/config"
	"github.com/ilng/roster/internal/seed"
	"github.com/ilng/roster/internal/server"
	"github.com/ilng/roster/types"
)

const (
	serverPort    = 18080
	adminUsername = "admin_user"
	adminPassword = "e2e-admin-pass"
)

var baseURL = fmt.Sprintf("http://localhost:%d", serverPort)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	dataDir, err := os.MkdirTemp("", "roster-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create data dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(dataDir)

	cfg := testConfig(dataDir)
	if err := seedStore(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed store: %v\n", err)
		os.Exit(1)
	}

	srv, err := server.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		os.Exit(1)
	}

	runCtx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(runCtx) }()

	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		stop()
		<-done
		os.Exit(1)
	}

	code := m.Run()

	stop()
	if err := <-done; err != nil {
		fmt.Fprintf(os.Stderr, "server stopped with error: %v\n", err)
	}
	os.Exit(code)
}

func testConfig(dataDir string) config.Config {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("STORE_BACKEND", "file")
	_ = os.Setenv("DATA_DIR", dataDir)
	_ = os.Setenv("EVENTS_BACKEND", "none")
	_ = os.Setenv("BACKUP_BACKEND", "")
	_ = os.Setenv("DISCORD_BOT_TOKEN", "")
	_ = os.Setenv("LOGIN_MAX_ATTEMPTS", "100")
	return config.LoadConfig()
}

func seedStore(ctx context.Context, cfg config.Config) error {
	rt, err := server.OpenRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	doc, err := seed.Default()
	if err != nil {
		return err
	}
	_, err = seed.Apply(ctx, rt.Store, rt.Audit, doc, seed.Options{AdminPassword: adminPassword})
	return err
}

func TestSoldierLifecycle(t *testing.T) {
	adminToken := login(t, adminUsername, adminPassword)

	username := fmt.Sprintf("recruit_%d", time.Now().UnixNano())
	var recruit types.User
	call(t, http.MethodPost, "/api/users", adminToken, map[string]any{
		"username":        username,
		"password":        "recruit-pass",
		"discordId":       fmt.Sprintf("%d", time.Now().UnixNano()),
		"discordUsername": username,
		"firstName":       "Pat",
		"lastName":        "Recruit",
		"rank":            "PV1",
		"role":            "Soldier",
		"unit":            "1st Battalion",
	}, http.StatusCreated, &recruit)
	if recruit.ID == "" {
		t.Fatalf("expected user id to be set")
	}
	if recruit.PasswordHash != "" {
		t.Fatalf("password hash leaked in create response")
	}

	token := login(t, username, "recruit-pass")

	var session types.DutyLog
	call(t, http.MethodPost, "/api/duty/on", token, nil, http.StatusCreated, &session)
	if !session.Open() {
		t.Fatalf("expected an open duty session")
	}
	call(t, http.MethodPost, "/api/duty/on", token, nil, http.StatusConflict, nil)
	call(t, http.MethodPost, "/api/duty/off", token, nil, http.StatusOK, &session)
	if session.Open() || session.Duration == nil {
		t.Fatalf("expected a closed session with a duration")
	}

	call(t, http.MethodPost, "/api/promotions", token, map[string]any{
		"userId": recruit.ID, "toRank": "PV2",
	}, http.StatusForbidden, nil)

	call(t, http.MethodPost, "/api/promotions", adminToken, map[string]any{
		"userId": recruit.ID, "toRank": "PV2", "reason": "basic training complete",
	}, http.StatusCreated, nil)
	call(t, http.MethodPost, "/api/promotions", adminToken, map[string]any{
		"userId": recruit.ID, "toRank": "PV1",
	}, http.StatusConflict, nil)

	for _, amount := range []int{10, 10, -5} {
		call(t, http.MethodPost, "/api/merit-points", adminToken, map[string]any{
			"userId": recruit.ID, "amount": amount, "reason": "e2e",
		}, http.StatusCreated, nil)
	}

	var me struct {
		User        types.User `json:"user"`
		Permissions []string   `json:"permissions"`
	}
	call(t, http.MethodGet, "/api/auth/me", token, nil, http.StatusOK, &me)
	if me.User.Rank != "PV2" {
		t.Fatalf("unexpected rank after promotion: %q", me.User.Rank)
	}
	if me.User.MeritPoints != 15 {
		t.Fatalf("unexpected merit balance: %d", me.User.MeritPoints)
	}

	var audit struct {
		Items []struct {
			Action string `json:"action"`
		} `json:"items"`
		Total int `json:"total"`
	}
	call(t, http.MethodGet, "/api/audit?limit=100", adminToken, nil, http.StatusOK, &audit)
	actions := make(map[string]bool)
	for _, item := range audit.Items {
		actions[item.Action] = true
	}
	for _, want := range []string{"user_created", "duty_started", "duty_ended", "promotion_approved", "merit_points_awarded"} {
		if !actions[want] {
			t.Fatalf("audit trail is missing %q", want)
		}
	}
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	var resp struct {
		Error string `json:"error"`
	}
	call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "nobody", "password": "x",
	}, http.StatusUnauthorized, &resp)
	if resp.Error != "invalid username or password" {
		t.Fatalf("unexpected error message: %q", resp.Error)
	}
}

func login(t *testing.T, username, password string) string {
	t.Helper()

	var resp struct {
		Token string `json:"token"`
	}
	call(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	}, http.StatusOK, &resp)
	if resp.Token == "" {
		t.Fatalf("missing token in login response")
	}
	return resp.Token
}

func call(t *testing.T, method, path, token string, payload any, wantStatus int, out any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		msg, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s status %d (want %d): %s", method, path, resp.StatusCode, wantStatus, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}
