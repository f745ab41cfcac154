package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/contentwriter/api/internal/backend"
	"github.com/contentwriter/api/internal/clipboard"
	"github.com/contentwriter/api/internal/config"
	"github.com/contentwriter/api/internal/service"
	"github.com/contentwriter/api/internal/store"
	ws "github.com/contentwriter/api/internal/websocket"
	"github.com/contentwriter/api/internal/worker"
)

const testJWTSecret = "test-secret-for-e2e"

// testApp holds all components needed for testing
type testApp struct {
	app     *fiber.App
	redis   *miniredis.Miniredis
	results *store.ResultStore
}

// inlineEnqueuer runs related topics tasks as soon as they are enqueued.
type inlineEnqueuer struct {
	worker *worker.TopicsWorker
}

func (e *inlineEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if err := e.worker.ProcessTask(context.Background(), task); err != nil {
		return nil, err
	}
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Name: "content-writer-test", Env: "test"},
		JWT:       config.JWTConfig{Secret: testJWTSecret, Expiration: 1},
		RateLimit: config.RateLimitConfig{GeneratePerMin: 10000, ImagePerHour: 10000, SegmentPerMin: 10000},
	}
}

// setupApp builds the app the way main does, with the mock backend,
// miniredis and related topics processed inline.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	return setupAppWithConfig(t, testConfig())
}

func setupAppWithConfig(t *testing.T, cfg *config.Config) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	log := zerolog.Nop()
	hub := ws.NewHub(log)
	go hub.Run()
	t.Cleanup(hub.Stop)

	provider, err := backend.New(context.Background(), &config.Config{Backend: config.BackendConfig{Provider: "mock"}})
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}

	results := store.NewResultStore(redisClient)
	enqueuer := &inlineEnqueuer{}
	topicsService := service.NewTopicsService(provider, results, enqueuer, 0.5, time.Second)
	enqueuer.worker = worker.NewTopicsWorker(topicsService, hub, log)

	authService := service.NewAuthService(store.NewMemoryCredentialStore(), cfg.JWT.Secret, time.Hour)
	generationService := service.NewGenerationService(provider, results, topicsService, clipboard.NewTracker(redisClient), nil, log)

	app := New(Deps{
		Config:     cfg,
		Redis:      redisClient,
		Auth:       authService,
		Generation: generationService,
		Topics:     topicsService,
		Owner:      results,
		Hub:        hub,
		Log:        log,
	})

	return &testApp{app: app, redis: mr, results: results}
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// signupAndLogin registers a user and returns a session token.
func signupAndLogin(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	body := `{"username":"` + username + `","password":"secret1","confirmPassword":"secret1"}`
	resp, err := doRequest(app, http.MethodPost, "/auth/signup", body, nil)
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	assertStatus(t, resp, http.StatusCreated)

	resp, err = doRequest(app, http.MethodPost, "/auth/login", `{"username":"`+username+`","password":"secret1"}`, nil)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	token, _ := parseJSON(t, resp)["token"].(string)
	if token == "" {
		t.Fatal("expected token in login response")
	}
	return token
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(app *fiber.App, token, method, path, body string) (*http.Response, error) {
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func errorCode(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

func errorMessage(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	msg, _ := e["message"].(string)
	return msg
}
