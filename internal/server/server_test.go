package server

import (
	"encoding/base64"
	"net/http"
	"strings"
	"testing"
)

func TestBaseURL(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if _, ok := body["timestamp"]; !ok {
		t.Error("expected 'timestamp' field in response")
	}
}

func TestHealth(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/health", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %v", body["status"])
	}
	services, ok := body["services"].(map[string]interface{})
	if !ok {
		t.Fatal("expected 'services' field in response")
	}
	if services["redis"] != true {
		t.Errorf("expected redis to be reachable, got %v", services["redis"])
	}
}

func TestMetrics(t *testing.T) {
	ta := setupApp(t)

	// one request so the request counters have a sample
	if _, err := doRequest(ta.app, http.MethodGet, "/", "", nil); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	resp, err := doRequest(ta.app, http.MethodGet, "/metrics", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	if body := readBody(t, resp); !strings.Contains(body, "contentwriter_api_requests_total") {
		t.Error("expected request counter in metrics output")
	}
}

func TestSignup_ValidationMessages(t *testing.T) {
	ta := setupApp(t)

	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"empty", `{"username":"  ","password":"secret1","confirmPassword":"secret1"}`, http.StatusBadRequest, "Username and password cannot be empty."},
		{"mismatch", `{"username":"bob","password":"secret1","confirmPassword":"secret2"}`, http.StatusBadRequest, "Passwords do not match."},
		{"short", `{"username":"bob","password":"abc","confirmPassword":"abc"}`, http.StatusBadRequest, "Password must be at least 6 characters long."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := doRequest(ta.app, http.MethodPost, "/auth/signup", tt.body, nil)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			assertStatus(t, resp, tt.status)
			if msg := errorMessage(parseJSON(t, resp)); msg != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, msg)
			}
		})
	}
}

func TestSignupLoginLogout(t *testing.T) {
	ta := setupApp(t)

	token := signupAndLogin(t, ta.app, "alice")

	// duplicate username
	resp, err := doRequest(ta.app, http.MethodPost, "/auth/signup",
		`{"username":"alice","password":"secret1","confirmPassword":"secret1"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusConflict)
	if msg := errorMessage(parseJSON(t, resp)); msg != "Username already exists." {
		t.Errorf("unexpected message %q", msg)
	}

	// wrong password
	resp, err = doRequest(ta.app, http.MethodPost, "/auth/login", `{"username":"alice","password":"nope123"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusUnauthorized)
	if msg := errorMessage(parseJSON(t, resp)); msg != "Invalid username or password." {
		t.Errorf("unexpected message %q", msg)
	}

	resp, err = doAuthRequest(ta.app, token, http.MethodGet, "/api/auth/me", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	if body := parseJSON(t, resp); body["username"] != "alice" {
		t.Errorf("expected username alice, got %v", body["username"])
	}

	resp, err = doAuthRequest(ta.app, token, http.MethodGet, "/auth/verify", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	if resp.Header.Get("X-User-Id") != "alice" {
		t.Errorf("expected X-User-Id alice, got %q", resp.Header.Get("X-User-Id"))
	}

	resp, err = doAuthRequest(ta.app, token, http.MethodPost, "/api/auth/logout", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNoContent)

	// the token is useless once the session is closed
	resp, err = doAuthRequest(ta.app, token, http.MethodGet, "/api/auth/me", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusUnauthorized)

	resp, err = doAuthRequest(ta.app, token, http.MethodGet, "/auth/verify", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusUnauthorized)
}

func TestGenerate_NoAuth(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodPost, "/api/generate", `{"input":"x"}`, nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusUnauthorized)
}

func TestGenerate_InvalidMode(t *testing.T) {
	ta := setupApp(t)
	token := signupAndLogin(t, ta.app, "alice")

	resp, err := doAuthRequest(ta.app, token, http.MethodPost, "/api/generate", `{"input":"x","mode":"poem"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)
	if code := errorCode(parseJSON(t, resp)); code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %q", code)
	}
}

func TestGenerate_EmptyInput(t *testing.T) {
	ta := setupApp(t)
	token := signupAndLogin(t, ta.app, "alice")

	resp, err := doAuthRequest(ta.app, token, http.MethodPost, "/api/generate", `{"input":"   ","mode":"rewrite"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusBadRequest)

	body := parseJSON(t, resp)
	if code := errorCode(body); code != "EMPTY_INPUT" {
		t.Errorf("expected EMPTY_INPUT, got %q", code)
	}
	if msg := errorMessage(body); msg != "Please enter a topic or text to generate content." {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestGenerate_TextFlow(t *testing.T) {
	ta := setupApp(t)
	token := signupAndLogin(t, ta.app, "alice")

	resp, err := doAuthRequest(ta.app, token, http.MethodPost, "/api/generate",
		`{"input":"Go concurrency","mode":"blog_post","tone":"casual"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	if result["kind"] != "text" {
		t.Fatalf("expected text result, got %v", result["kind"])
	}
	generationID, _ := result["id"].(string)
	segments, ok := result["segments"].([]interface{})
	if !ok || len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %v", result["segments"])
	}
	code := segments[1].(map[string]interface{})
	if code["kind"] != "code" || code["id"] != "code-1" || code["language"] != "text" {
		t.Errorf("unexpected code segment %v", code)
	}
	if !strings.Contains(code["text"].(string), "The writing tone should be consistently casual.") {
		t.Errorf("expected the compiled prompt in the mock output, got %q", code["text"])
	}

	// related topics were produced for this generation
	resp, err = doAuthRequest(ta.app, token, http.MethodGet, "/api/topics/last", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	topics := parseJSON(t, resp)
	if topics["status"] != "succeeded" || topics["generationId"] != generationID {
		t.Errorf("unexpected topics state %v", topics)
	}
	if list, _ := topics["topics"].([]interface{}); len(list) != 3 {
		t.Errorf("expected 3 topics, got %v", topics["topics"])
	}

	// copy one code block, then read the indicators back
	resp, err = doAuthRequest(ta.app, token, http.MethodPost, "/api/generations/last/copy", `{"segmentId":"code-1"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	copied := parseJSON(t, resp)
	if copied["text"] != code["text"] || copied["copiedForMs"] != float64(2000) {
		t.Errorf("unexpected copy response %v", copied)
	}

	resp, err = doAuthRequest(ta.app, token, http.MethodGet, "/api/generations/last", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	last := parseJSON(t, resp)
	lastResult := last["result"].(map[string]interface{})
	lastSegments := lastResult["segments"].([]interface{})
	if lastSegments[1].(map[string]interface{})["copied"] != true {
		t.Error("expected code-1 to be marked copied")
	}
	if last["allCopied"] != false {
		t.Error("expected full text not to be marked copied")
	}

	// prose segments cannot be copied on their own
	resp, err = doAuthRequest(ta.app, token, http.MethodPost, "/api/generations/last/copy", `{"segmentId":"text-0"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)

	// no image to download
	resp, err = doAuthRequest(ta.app, token, http.MethodGet, "/api/generations/last/download", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusConflict)
}

func TestGenerate_ImageFlow(t *testing.T) {
	ta := setupApp(t)
	token := signupAndLogin(t, ta.app, "alice")

	resp, err := doAuthRequest(ta.app, token, http.MethodPost, "/api/generate",
		`{"input":"a lighthouse at dusk","mode":"generate_image"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	image, ok := result["image"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected image in result, got %v", result)
	}
	dataURL, _ := image["dataUrl"].(string)
	if !strings.HasPrefix(dataURL, "data:image/jpeg;base64,") {
		t.Errorf("unexpected data url %q", dataURL)
	}
	if image["altText"] != "a lighthouse at dusk" {
		t.Errorf("unexpected alt text %v", image["altText"])
	}

	// image generations never ask for related topics
	resp, err = doAuthRequest(ta.app, token, http.MethodGet, "/api/topics/last", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)

	resp, err = doAuthRequest(ta.app, token, http.MethodGet, "/api/generations/last/download", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename=a_lighthouse_at_dusk.jpeg` {
		t.Errorf("unexpected content disposition %q", cd)
	}

	want, _ := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, "data:image/jpeg;base64,"))
	if got := readBody(t, resp); got != string(want) {
		t.Error("downloaded bytes differ from the data url")
	}
}

func TestLast_NoResult(t *testing.T) {
	ta := setupApp(t)
	token := signupAndLogin(t, ta.app, "alice")

	resp, err := doAuthRequest(ta.app, token, http.MethodGet, "/api/generations/last", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)
}

func TestLastResult_PerUser(t *testing.T) {
	ta := setupApp(t)
	alice := signupAndLogin(t, ta.app, "alice")
	bob := signupAndLogin(t, ta.app, "bob")

	if _, err := doAuthRequest(ta.app, alice, http.MethodPost, "/api/generate", `{"input":"alice topic"}`); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	resp, err := doAuthRequest(ta.app, bob, http.MethodGet, "/api/generations/last", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusNotFound)

	resp, err = doAuthRequest(ta.app, alice, http.MethodGet, "/api/generations/last", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	result := parseJSON(t, resp)["result"].(map[string]interface{})
	if result["input"] != "alice topic" {
		t.Errorf("unexpected input %v", result["input"])
	}
}

func TestSegments(t *testing.T) {
	ta := setupApp(t)
	token := signupAndLogin(t, ta.app, "alice")

	body := `{"text":"Intro\n` + "```" + `python\nprint(1)\n` + "```" + `\nOutro"}`
	resp, err := doAuthRequest(ta.app, token, http.MethodPost, "/api/segments", body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	segments, _ := parseJSON(t, resp)["segments"].([]interface{})
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	code := segments[1].(map[string]interface{})
	if code["html"] != `<pre><code class="language-python">print(1)</code></pre>` {
		t.Errorf("unexpected code html %v", code["html"])
	}
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/ws/topics/abc", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusUpgradeRequired)
}

func TestGatewayMode(t *testing.T) {
	cfg := testConfig()
	cfg.Gateway.Enabled = true
	ta := setupAppWithConfig(t, cfg)

	resp, err := doRequest(ta.app, http.MethodGet, "/api/auth/me", "", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusUnauthorized)

	resp, err = doRequest(ta.app, http.MethodGet, "/api/auth/me", "", map[string]string{
		"X-User-Id":   "carol",
		"X-User-Name": "Carol",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)
	if body := parseJSON(t, resp); body["username"] != "Carol" {
		t.Errorf("expected username Carol, got %v", body["username"])
	}
}

func TestOptions(t *testing.T) {
	ta := setupApp(t)
	token := signupAndLogin(t, ta.app, "alice")

	resp, err := doAuthRequest(ta.app, token, http.MethodGet, "/api/options", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	body := parseJSON(t, resp)
	modes, _ := body["modes"].([]interface{})
	if len(modes) != 5 {
		t.Fatalf("expected 5 modes, got %d", len(modes))
	}
	if label := modes[3].(map[string]interface{})["label"]; label != "SEO Optimized Content" {
		t.Errorf("unexpected label %v", label)
	}
	if tones, _ := body["tones"].([]interface{}); len(tones) != 6 {
		t.Errorf("expected 6 tones, got %d", len(tones))
	}
	if body["defaultMode"] != "blog_post" || body["defaultTone"] != "default" {
		t.Errorf("unexpected defaults %v %v", body["defaultMode"], body["defaultTone"])
	}
}
