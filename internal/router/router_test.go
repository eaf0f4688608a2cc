package router

import (
	"context"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/catalog"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/config"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/experiment"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/markers"
	"github.com/Kimleng-THAI/ConfirmationBiasDesignExperiment/internal/repository"
)

const passcode = "Lab-Passcode-42!"

const climateJSON = `{"topic": "Climate", "articles": [
  {"headline": "Carbon tax works", "summary": "Revenue rises", "content": "First.\n\nSecond.", "articleCode": "T01A", "linkedStatementCode": "S01", "articleType": "confirmatory"}
]}`

const statementsYAML = `
statements:
  - code: S01
    topic_code: T01
    topic: Climate
    text: Governments should tax carbon.
    attention_word: tax
    attention_answer: "YES"
  - code: S02
    topic_code: T01
    topic: Climate
    text: Carbon markets reduce emissions.
`

var csrfMeta = regexp.MustCompile(`<meta name="csrf-token" content="([^"]*)">`)

func setupRouter(t *testing.T, rateLimit uint) (*gin.Engine, *experiment.Experiment) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)

	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	config.Conf = &config.Config{
		Server: config.ServerConfig{
			SessionSecret:  "test-session-secret-0123456789abcdef",
			LoginRateLimit: rateLimit,
		},
		Experimenter: config.ExperimenterConfig{PasswordHash: string(hash)},
	}

	dir := t.TempDir()
	for name, body := range map[string]string{"climate.json": climateJSON, "statements.yaml": statementsYAML} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cat := catalog.New(log, config.CatalogConfig{
		Directory:      dir,
		StatementsFile: filepath.Join(dir, "statements.yaml"),
		Topics:         []config.TopicConfig{{Name: "Climate", Code: "T01", File: "climate.json"}},
	})
	cfg := config.DefaultExperiment()
	cfg.TransitionDelay = 0
	cfg.AgreementPromptDelay = 0
	cfg.AttentionTimeout = time.Hour
	cfg.ShuffleStatements = false
	cfg.OutputDir = filepath.Join(dir, "out")

	exp := experiment.New(experiment.Deps{
		Log:     log,
		Config:  cfg,
		Catalog: cat,
		Files:   repository.NewSessionFiles(cfg.OutputDir),
	})
	t.Cleanup(func() { exp.Close(context.Background()) })

	return Setup(log, Deps{Experiment: exp, Hub: markers.NewHub(log, 8)}), exp
}

// browser keeps the session cookie and the last CSRF token it was shown.
type browser struct {
	t       *testing.T
	r       *gin.Engine
	cookies map[string]*http.Cookie
	csrf    string
}

func newBrowser(t *testing.T, r *gin.Engine) *browser {
	return &browser{t: t, r: r, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		if form.Get("_csrf") == "" && b.csrf != "" {
			form.Set("_csrf", b.csrf)
		}
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	b.r.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	if m := csrfMeta.FindStringSubmatch(w.Body.String()); m != nil {
		b.csrf = html.UnescapeString(m[1])
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, path, nil)
}

func (b *browser) post(path string, kv ...string) *httptest.ResponseRecorder {
	form := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		form.Set(kv[i], kv[i+1])
	}
	return b.do(http.MethodPost, path, form)
}

func wantRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusSeeOther && w.Code != http.StatusFound {
		t.Fatalf("status = %d, want a redirect to %s; body: %s", w.Code, location, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != location {
		t.Fatalf("Location = %q, want %q", got, location)
	}
}

func wantPage(t *testing.T, w *httptest.ResponseRecorder, contains string) {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), contains) {
		t.Fatalf("page does not contain %q:\n%s", contains, w.Body.String())
	}
}

func login(t *testing.T, b *browser) {
	t.Helper()
	b.get("/experimenter/login")
	wantRedirect(t, b.post("/experimenter/login", "passcode", passcode), "/")
}

func TestHealthz(t *testing.T) {
	r, _ := setupRouter(t, 5)
	w := newBrowser(t, r).get("/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["active"] != false || body["scene"] != "subject" {
		t.Errorf("healthz = %v", body)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r, _ := setupRouter(t, 5)
	w := newBrowser(t, r).get("/experimenter/login")
	if csp := w.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "'nonce-") {
		t.Errorf("CSP = %q", csp)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestExperimenterPagesRequireLogin(t *testing.T) {
	r, _ := setupRouter(t, 5)
	b := newBrowser(t, r)

	wantRedirect(t, b.get("/"), "/experimenter/login")
	wantRedirect(t, b.get("/report"), "/experimenter/login")
	b.get("/experimenter/login")
	wantRedirect(t, b.post("/subject", "subject", "P01"), "/experimenter/login")

	w := b.post("/experimenter/login", "passcode", "wrong")
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "Invalid passcode") {
		t.Fatalf("bad passcode: status %d", w.Code)
	}

	wantRedirect(t, b.post("/experimenter/login", "passcode", passcode), "/")
	wantPage(t, b.get("/"), "Subject number")
	wantPage(t, b.get("/report"), "archive is disabled")

	wantRedirect(t, b.post("/experimenter/logout"), "/experimenter/login")
	wantRedirect(t, b.get("/"), "/experimenter/login")
}

func TestCSRFTokenRequired(t *testing.T) {
	r, _ := setupRouter(t, 5)
	b := newBrowser(t, r)
	b.get("/experimenter/login")

	w := b.post("/experimenter/login", "passcode", passcode, "_csrf", "forged")
	if w.Code != http.StatusForbidden {
		t.Fatalf("forged token: status = %d, want 403", w.Code)
	}

	fresh := newBrowser(t, r)
	w = fresh.post("/experimenter/login", "passcode", passcode)
	if w.Code != http.StatusForbidden {
		t.Fatalf("missing token: status = %d, want 403", w.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	r, _ := setupRouter(t, 2)
	b := newBrowser(t, r)
	b.get("/experimenter/login")

	first := b.post("/experimenter/login", "passcode", "wrong")
	if first.Code == http.StatusTooManyRequests {
		t.Fatal("first attempt was rate limited")
	}
	var last *httptest.ResponseRecorder
	for i := 0; i < 4; i++ {
		last = b.post("/experimenter/login", "passcode", "wrong")
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", last.Code)
	}
}

func TestParticipantFlow(t *testing.T) {
	r, exp := setupRouter(t, 5)
	b := newBrowser(t, r)
	login(t, b)

	w := b.post("/subject", "subject", "bad subject!")
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "Enter a subject number") {
		t.Fatalf("invalid subject: status %d", w.Code)
	}

	wantRedirect(t, b.post("/subject", "subject", "P01"), "/instructions")
	wantRedirect(t, b.get("/"), "/instructions")
	wantRedirect(t, b.get("/statements"), "/instructions")
	wantRedirect(t, b.post("/statements/rate", "option", "4"), "/instructions")
	wantPage(t, b.get("/instructions"), "Part 1")

	wantRedirect(t, b.post("/instructions"), "/statements")
	wantPage(t, b.get("/statements"), "Governments should tax carbon.")

	wantRedirect(t, b.post("/statements/rate", "option", "9"), "/statements")
	wantPage(t, b.get("/statements"), "1 / 2")

	wantRedirect(t, b.post("/statements/rate", "option", "4"), "/statements")
	wantPage(t, b.get("/statements"), "<strong>tax</strong>")
	wantRedirect(t, b.post("/statements/attention", "answer", "YES"), "/statements")

	wantPage(t, b.get("/statements"), "Carbon markets reduce emissions.")
	wantRedirect(t, b.post("/statements/rate", "option", "2"), "/articles/instructions")
	wantRedirect(t, b.post("/articles/instructions"), "/topics")
	wantPage(t, b.get("/topics"), "Climate")

	wantRedirect(t, b.post("/topics", "topic", "Climate"), "/articles")
	wantPage(t, b.get("/articles"), "Carbon tax works")
	wantRedirect(t, b.post("/articles/open", "headline", "Carbon tax works"), "/article")
	w = b.get("/article")
	wantPage(t, w, "Second.")
	if !strings.Contains(w.Body.String(), "/article/rate") {
		t.Fatal("agreement prompt not shown with a zero delay")
	}

	if got := exp.Current().Subject; got != "P01" {
		t.Errorf("subject = %q", got)
	}
}

func TestScrollReport(t *testing.T) {
	r, _ := setupRouter(t, 5)
	b := newBrowser(t, r)
	b.get("/experimenter/login")

	if w := b.post("/article/scroll", "position", "2"); w.Code != http.StatusBadRequest {
		t.Errorf("out of range position: status = %d", w.Code)
	}
	if w := b.post("/article/scroll", "position", "0.5"); w.Code != http.StatusConflict {
		t.Errorf("no article open: status = %d", w.Code)
	}
}

func TestNeuralMarkerOutsideArticle(t *testing.T) {
	r, _ := setupRouter(t, 5)
	b := newBrowser(t, r)
	login(t, b)

	if w := b.post("/markers/neural", "marker", "ALPHA"); w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
	if w := b.post("/markers/neural", "marker", "two words"); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
