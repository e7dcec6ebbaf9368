package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/englishquiz/internal/auth"
	appI18n "github.com/pavelanni/englishquiz/internal/i18n"
	"github.com/pavelanni/englishquiz/internal/model"
	"github.com/pavelanni/englishquiz/internal/quiz"
	"github.com/pavelanni/englishquiz/internal/report"
	"github.com/pavelanni/englishquiz/internal/store"
)

const (
	testSecret   = "test-secret"
	testEmail    = "admin@example.com"
	testPassword = "s3cret-pass"
)

func TestMain(m *testing.M) {
	if err := appI18n.Init("en"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

type testEnv struct {
	h      *Handler
	store  *store.Store
	router chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	tokens, err := auth.NewIssuer(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	h, err := New(s, tokens, model.ServerConfig{SecureCookies: true, TokenTTL: time.Hour, Lang: "en"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := chi.NewRouter()
	r.Use(appI18n.Middleware("en"))
	h.Routes(r)
	return &testEnv{h: h, store: s, router: r}
}

// fixtureQuestions is shared by the quiz session and the server so both
// sides score the same set.
func fixtureQuestions() []model.Question {
	return []model.Question{
		{Prompt: "She ___ to school every day.", Options: []string{"go", "goes", "going", "gone"}, Answer: "goes", Explanation: "Third person singular takes -s."},
		{Prompt: "They ___ playing football now.", Options: []string{"is", "am", "are", "be"}, Answer: "are"},
		{Prompt: "I have lived here ___ 2010.", Options: []string{"for", "since", "from", "at"}, Answer: "since"},
		{Prompt: "He is ___ honest man.", Options: []string{"a", "an", "the", "no article"}, Answer: "an"},
	}
}

func (e *testEnv) seedQuestions(t *testing.T) []model.Question {
	t.Helper()
	qs := fixtureQuestions()
	for i := range qs {
		id, err := e.store.InsertQuestion(context.Background(), qs[i])
		if err != nil {
			t.Fatalf("InsertQuestion: %v", err)
		}
		qs[i].ID = id
		qs[i].Category = model.DefaultCategory
	}
	return qs
}

func (e *testEnv) createAdmin(t *testing.T) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if _, err := e.store.CreateAdmin(context.Background(), model.Admin{Email: testEmail, PasswordHash: string(hash)}); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
}

func (e *testEnv) do(t *testing.T, method, path, contentType, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	e.createAdmin(t)
	rec := e.do(t, http.MethodPost, "/api/auth/login", "application/json",
		fmt.Sprintf(`{"email":%q,"password":%q}`, testEmail, testPassword))
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	c := findCookie(rec, tokenCookieName)
	if c == nil {
		t.Fatal("login did not set the token cookie")
	}
	return c
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type submissionResponse struct {
	Message    string                  `json:"message"`
	Submission model.SubmissionCreated `json:"submission"`
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, rec)["error"]
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(nil, nil, model.ServerConfig{}); err == nil {
		t.Fatal("New(nil, nil) should fail")
	}
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestListQuestionsEmpty(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/api/questions", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := errorBody(t, rec); got != "No questions found" {
		t.Errorf("error = %q", got)
	}
}

func TestListQuestions(t *testing.T) {
	e := newTestEnv(t)
	want := e.seedQuestions(t)

	rec := e.do(t, http.MethodGet, "/api/questions", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decodeBody[[]model.Question](t, rec)
	if len(got) != len(want) {
		t.Fatalf("got %d questions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Answer != want[i].Answer || len(got[i].Options) != model.OptionsPerQuestion {
			t.Errorf("question %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCreateSubmissionScoresServerSide(t *testing.T) {
	e := newTestEnv(t)
	e.seedQuestions(t)

	// Two correct, one wrong, one unanswered. The client-sent score is ignored.
	body := `{"studentName":"  Ana  ","answers":["goes","is","since",null],"timeSpent":95,"score":4}`
	rec := e.do(t, http.MethodPost, "/api/submissions", "application/json", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody[submissionResponse](t, rec)
	if resp.Message == "" || resp.Submission.ID == "" {
		t.Fatalf("incomplete response %+v", resp)
	}
	sub := resp.Submission
	if sub.StudentName != "Ana" || sub.Score != 2 || sub.TotalQuestions != 4 || sub.Percentage != 50 {
		t.Errorf("submission = %+v, want Ana 2/4 50%%", sub)
	}

	stored, err := e.store.GetSubmission(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	if stored.TimeSpent != 95 || len(stored.Answers) != 4 || stored.Answers[3] != nil {
		t.Errorf("stored submission = %+v", stored)
	}
}

func TestCreateSubmissionValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"studentName":`},
		{"missing name", `{"answers":["a"],"timeSpent":1}`},
		{"blank name", `{"studentName":"   ","answers":["a"],"timeSpent":1}`},
		{"missing answers", `{"studentName":"Ana","timeSpent":1}`},
		{"answers not a list", `{"studentName":"Ana","answers":"a","timeSpent":1}`},
		{"negative time", `{"studentName":"Ana","answers":["a"],"timeSpent":-5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			rec := e.do(t, http.MethodPost, "/api/submissions", "application/json", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			if errorBody(t, rec) == "" {
				t.Error("expected an error message")
			}
			subs, err := e.store.ListSubmissionSummaries(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if len(subs) != 0 {
				t.Errorf("rejected submission was stored")
			}
		})
	}
}

func TestClientAndServerScoresAgree(t *testing.T) {
	selections := [][]string{
		{"goes", "are", "since", "an"},
		{"go", "are", "for", "an"},
		{"go", "is", "for", "a"},
		{"goes"},
		{},
	}

	for i, picks := range selections {
		t.Run(fmt.Sprintf("attempt %d", i), func(t *testing.T) {
			e := newTestEnv(t)
			qs := e.seedQuestions(t)

			s, err := quiz.New(qs, 60).Start("Ana")
			if err != nil {
				t.Fatalf("Start: %v", err)
			}
			for _, p := range picks {
				if s, err = s.Select(p); err != nil {
					t.Fatalf("Select(%q): %v", p, err)
				}
				if s, err = s.Next(); err != nil {
					t.Fatalf("Next: %v", err)
				}
				if s.Explaining {
					if s, err = s.Proceed(); err != nil {
						t.Fatalf("Proceed: %v", err)
					}
				}
			}
			s = s.Finish()

			req, err := s.SubmissionRequest()
			if err != nil {
				t.Fatalf("SubmissionRequest: %v", err)
			}
			body, _ := json.Marshal(req)
			rec := e.do(t, http.MethodPost, "/api/submissions", "application/json", string(body))
			if rec.Code != http.StatusCreated {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			got := decodeBody[submissionResponse](t, rec).Submission
			if got.Score != s.Score() || got.Percentage != s.Percentage() {
				t.Errorf("server %d (%d%%), client %d (%d%%)", got.Score, got.Percentage, s.Score(), s.Percentage())
			}
		})
	}
}

func TestLoginJSON(t *testing.T) {
	e := newTestEnv(t)
	c := e.login(t)

	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteStrictMode {
		t.Errorf("cookie flags: httpOnly=%v secure=%v sameSite=%v", c.HttpOnly, c.Secure, c.SameSite)
	}
	if c.MaxAge != int(time.Hour.Seconds()) {
		t.Errorf("MaxAge = %d, want %d", c.MaxAge, int(time.Hour.Seconds()))
	}
	if c.Path != "/" {
		t.Errorf("Path = %q", c.Path)
	}
}

func TestLoginEmailIsCaseInsensitive(t *testing.T) {
	e := newTestEnv(t)
	e.createAdmin(t)
	rec := e.do(t, http.MethodPost, "/api/auth/login", "application/json",
		fmt.Sprintf(`{"email":"  ADMIN@Example.com ","password":%q}`, testPassword))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodPost, "/api/auth/login", "application/x-www-form-urlencoded",
		"email=+Admin%40EXAMPLE.com+&password="+testPassword)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("form status = %d, want 303", rec.Code)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	e := newTestEnv(t)
	e.createAdmin(t)

	cases := map[string]string{
		"unknown email":  `{"email":"nobody@example.com","password":"s3cret-pass"}`,
		"wrong password": `{"email":"admin@example.com","password":"wrong"}`,
	}
	bodies := map[string]string{}
	for name, body := range cases {
		rec := e.do(t, http.MethodPost, "/api/auth/login", "application/json", body)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rec.Code)
		}
		if findCookie(rec, tokenCookieName) != nil {
			t.Errorf("%s: cookie set on failed login", name)
		}
		bodies[name] = rec.Body.String()
	}
	if bodies["unknown email"] != bodies["wrong password"] {
		t.Errorf("responses differ: %q vs %q", bodies["unknown email"], bodies["wrong password"])
	}
	if !strings.Contains(bodies["wrong password"], "Invalid credentials") {
		t.Errorf("body = %q", bodies["wrong password"])
	}
}

func TestLoginRejectsMissingFields(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPost, "/api/auth/login", "application/json", `{"email":"admin@example.com"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLoginForm(t *testing.T) {
	e := newTestEnv(t)
	e.createAdmin(t)

	rec := e.do(t, http.MethodPost, "/api/auth/login", "application/x-www-form-urlencoded",
		"email=admin%40example.com&password="+testPassword)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/dashboard" {
		t.Fatalf("status = %d location = %q", rec.Code, rec.Header().Get("Location"))
	}
	if findCookie(rec, tokenCookieName) == nil {
		t.Error("form login did not set the cookie")
	}

	rec = e.do(t, http.MethodPost, "/api/auth/login", "application/x-www-form-urlencoded",
		"email=admin%40example.com&password=wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid email or password") {
		t.Errorf("login page should show the error, got %s", rec.Body.String())
	}
}

func TestLoginFormStoreFailure(t *testing.T) {
	e := newTestEnv(t)
	e.createAdmin(t)
	e.store.Close()

	rec := e.do(t, http.MethodPost, "/api/auth/login", "application/x-www-form-urlencoded",
		"email=admin%40example.com&password="+testPassword)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); strings.HasPrefix(ct, "application/json") {
		t.Errorf("form login answered with %q", ct)
	}
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPost, "/api/auth/logout", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	c := findCookie(rec, tokenCookieName)
	if c == nil || c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("logout cookie = %+v, want cleared", c)
	}

	rec = e.do(t, http.MethodPost, "/api/auth/logout", "application/x-www-form-urlencoded", "")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/login" {
		t.Errorf("form logout = %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func signedToken(t *testing.T, secret string, claims jwt.Claims, method jwt.SigningMethod) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestAdminGateRejectsBadTokens(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not.a.token"},
		{"wrong secret", signedToken(t, "other-secret", jwt.RegisteredClaims{
			Subject: "1", IssuedAt: jwt.NewNumericDate(now), ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}, jwt.SigningMethodHS256)},
		{"expired", signedToken(t, testSecret, jwt.RegisteredClaims{
			Subject: "1", IssuedAt: jwt.NewNumericDate(now.Add(-2 * time.Hour)), ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		}, jwt.SigningMethodHS256)},
	}
	paths := []string{"/api/admin/submissions", "/api/admin/stats"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			var cookies []*http.Cookie
			if tt.token != "" {
				cookies = append(cookies, &http.Cookie{Name: tokenCookieName, Value: tt.token})
			}
			for _, p := range paths {
				rec := e.do(t, http.MethodGet, p, "", "", cookies...)
				if rec.Code != http.StatusUnauthorized {
					t.Errorf("%s: status = %d, want 401", p, rec.Code)
					continue
				}
				if got := errorBody(t, rec); got != "Unauthorized" {
					t.Errorf("%s: error = %q", p, got)
				}
			}
			rec := e.do(t, http.MethodPost, "/api/questions", "application/json", `{}`, cookies...)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("POST /api/questions: status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestAdminSubmissionsNewestFirst(t *testing.T) {
	e := newTestEnv(t)
	e.seedQuestions(t)
	cookie := e.login(t)

	for _, name := range []string{"First", "Second", "Third"} {
		body := fmt.Sprintf(`{"studentName":%q,"answers":["goes"],"timeSpent":10}`, name)
		if rec := e.do(t, http.MethodPost, "/api/submissions", "application/json", body); rec.Code != http.StatusCreated {
			t.Fatalf("submit %s: %d", name, rec.Code)
		}
	}

	rec := e.do(t, http.MethodGet, "/api/admin/submissions", "", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `"answers"`) {
		t.Error("summaries must not include answers")
	}
	subs := decodeBody[[]model.SubmissionSummary](t, rec)
	if len(subs) != 3 {
		t.Fatalf("got %d submissions", len(subs))
	}
	if subs[0].StudentName != "Third" || subs[2].StudentName != "First" {
		t.Errorf("order = %s, %s, %s", subs[0].StudentName, subs[1].StudentName, subs[2].StudentName)
	}
}

func TestAdminSubmissionsEmpty(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t)
	rec := e.do(t, http.MethodGet, "/api/admin/submissions", "", "", cookie)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty list = %d %q", rec.Code, rec.Body.String())
	}
}

func TestAdminStats(t *testing.T) {
	e := newTestEnv(t)
	e.seedQuestions(t)
	cookie := e.login(t)

	for _, answers := range []string{`["goes","are","since","an"]`, `["goes","is","for","a"]`} {
		body := fmt.Sprintf(`{"studentName":"Ana","answers":%s,"timeSpent":10}`, answers)
		if rec := e.do(t, http.MethodPost, "/api/submissions", "application/json", body); rec.Code != http.StatusCreated {
			t.Fatalf("submit: %d", rec.Code)
		}
	}

	rec := e.do(t, http.MethodGet, "/api/admin/stats", "", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decodeBody[report.Summary](t, rec)
	if got.Count != 2 || got.Average != 62.5 || got.Max != 100 {
		t.Errorf("stats = %+v, want 2 / 62.5 / 100", got)
	}
}

func TestDashboard(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/admin/dashboard", "", "")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/login" {
		t.Fatalf("unauthenticated dashboard = %d %q", rec.Code, rec.Header().Get("Location"))
	}

	e.seedQuestions(t)
	cookie := e.login(t)
	body := `{"studentName":"<b>Bo</b>","answers":["goes","are","since","an"],"timeSpent":75}`
	if rec := e.do(t, http.MethodPost, "/api/submissions", "application/json", body); rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d", rec.Code)
	}

	rec = e.do(t, http.MethodGet, "/admin/dashboard", "", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	page := rec.Body.String()
	for _, want := range []string{"&lt;b&gt;Bo&lt;/b&gt;", "4/4", "100%", "Excellent", "1:15"} {
		if !strings.Contains(page, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if strings.Contains(page, "<b>Bo</b>") {
		t.Error("student name rendered unescaped")
	}
}

func TestLoginPageRedirectsWhenLoggedIn(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/admin/login", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `action="/api/auth/login"`) {
		t.Fatalf("login page = %d", rec.Code)
	}

	cookie := e.login(t)
	rec = e.do(t, http.MethodGet, "/admin/login", "", "", cookie)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want redirect", rec.Code)
	}
}

func TestIndexPage(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "No questions are available yet.") {
		t.Errorf("empty index = %d %s", rec.Code, rec.Body.String())
	}

	e.seedQuestions(t)
	rec = e.do(t, http.MethodGet, "/", "", "")
	if !strings.Contains(rec.Body.String(), "4 questions, 5 minutes.") {
		t.Errorf("index should show the question count: %s", rec.Body.String())
	}
}

type fakeCache struct {
	questions   []model.Question
	invalidated int
}

func (f *fakeCache) ListQuestions(context.Context) ([]model.Question, error) {
	return f.questions, nil
}

func (f *fakeCache) Invalidate(context.Context) error {
	f.invalidated++
	return nil
}

func TestCreateQuestion(t *testing.T) {
	e := newTestEnv(t)
	cache := &fakeCache{}
	e.h.UseQuestionCache(cache)
	cookie := e.login(t)

	body := `{"prompt":"Pick the past tense of go.","options":["goed","went","gone","going"],"answer":"went"}`
	rec := e.do(t, http.MethodPost, "/api/questions", "application/json", body, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	q := decodeBody[model.Question](t, rec)
	if q.ID == 0 || q.Category != model.DefaultCategory {
		t.Errorf("created question = %+v", q)
	}
	if cache.invalidated != 1 {
		t.Errorf("cache invalidated %d times, want 1", cache.invalidated)
	}

	bad := `{"prompt":"Pick one.","options":["a","b","c","d"],"answer":"e"}`
	rec = e.do(t, http.MethodPost, "/api/questions", "application/json", bad, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("answer outside options: status = %d, want 400", rec.Code)
	}
	rec = e.do(t, http.MethodPost, "/api/questions", "application/json", `{"prompt":"x","options":["a","b"],"answer":"a"}`, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("two options: status = %d, want 400", rec.Code)
	}
	if n, _ := e.store.QuestionCount(context.Background()); n != 1 {
		t.Errorf("QuestionCount = %d, want 1", n)
	}
}

func TestQuestionsServedFromCache(t *testing.T) {
	e := newTestEnv(t)
	e.h.UseQuestionCache(&fakeCache{questions: fixtureQuestions()})

	rec := e.do(t, http.MethodGet, "/api/questions", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeBody[[]model.Question](t, rec); len(got) != 4 {
		t.Errorf("got %d questions from cache", len(got))
	}
}

func TestImportQuestions(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t)

	body := `[
		{"prompt":"Choose: I ___ a student.","options":["am","is","are","be"],"answer":"am"},
		{"prompt":"Choose: We ___ happy.","options":["am","is","are","be"],"answer":"are","category":"grammar"}
	]`
	rec := e.do(t, http.MethodPost, "/api/admin/questions/import?name=batch.json", "application/json", body, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[importResult](t, rec); got.Imported != 2 || got.Duplicate {
		t.Errorf("result = %+v", got)
	}

	rec = e.do(t, http.MethodPost, "/api/admin/questions/import?name=batch.json", "application/json", body, cookie)
	if got := decodeBody[importResult](t, rec); rec.Code != http.StatusOK || !got.Duplicate {
		t.Errorf("re-import = %d %+v, want duplicate", rec.Code, got)
	}
	if n, _ := e.store.QuestionCount(context.Background()); n != 2 {
		t.Errorf("QuestionCount = %d, want 2", n)
	}

	changed := `[{"prompt":"Choose: They ___ here.","options":["am","is","are","be"],"answer":"are"}]`
	rec = e.do(t, http.MethodPost, "/api/admin/questions/import?name=batch.json", "application/json", changed, cookie)
	if rec.Code != http.StatusConflict {
		t.Errorf("changed re-import status = %d, want 409", rec.Code)
	}
	if n, _ := e.store.QuestionCount(context.Background()); n != 2 {
		t.Errorf("QuestionCount = %d after changed re-import, want 2", n)
	}
}

func TestImportQuestionsRejectsInvalidBatch(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t)

	body := `[
		{"prompt":"ok","options":["a","b","c","d"],"answer":"a"},
		{"prompt":"","options":["a","b","c","d"],"answer":"a"}
	]`
	rec := e.do(t, http.MethodPost, "/api/admin/questions/import", "application/json", body, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := errorBody(t, rec); !strings.HasPrefix(got, "question 2") {
		t.Errorf("error = %q", got)
	}
	if n, _ := e.store.QuestionCount(context.Background()); n != 0 {
		t.Errorf("partial batch stored %d questions", n)
	}
}
