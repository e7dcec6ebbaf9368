package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pavelanni/englishquiz/internal/scoring"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "AppTitle"); got != "English Quiz" {
		t.Errorf("T(AppTitle) = %q, want 'English Quiz'", got)
	}
	if got := T(ctx, "LogIn"); got != "Log in" {
		t.Errorf("T(LogIn) = %q, want 'Log in'", got)
	}
}

func TestTranslateIndonesian(t *testing.T) {
	ctx := initLang(t, "id")

	if got := T(ctx, "AppTitle"); got != "Kuis Bahasa Inggris" {
		t.Errorf("T(AppTitle) = %q, want 'Kuis Bahasa Inggris'", got)
	}
	if got := Grade(ctx, scoring.GradeGood); got != "Baik" {
		t.Errorf("Grade(Good) = %q, want 'Baik'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Tp(ctx, "QuestionsAvailable", 1); got != "1 question, 5 minutes." {
		t.Errorf("Tp(QuestionsAvailable, 1) = %q", got)
	}
	if got := Tp(ctx, "QuestionsAvailable", 10); got != "10 questions, 5 minutes." {
		t.Errorf("Tp(QuestionsAvailable, 10) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "QuestionN", map[string]any{"N": 3, "Total": 10})
	if got != "Question 3 of 10" {
		t.Errorf("Td(QuestionN) = %q, want 'Question 3 of 10'", got)
	}
}

func TestGradeLabels(t *testing.T) {
	ctx := initLang(t, "en")

	for _, label := range []string{scoring.GradeExcellent, scoring.GradeGood, scoring.GradeNeedsImprovement} {
		if got := Grade(ctx, label); got != label {
			t.Errorf("Grade(%q) = %q, want the English label unchanged", label, got)
		}
	}
	if got := Grade(ctx, "Unknown"); got != "Unknown" {
		t.Errorf("Grade(Unknown) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestFallbackLocalizer(t *testing.T) {
	initLang(t, "id")
	if got := T(context.Background(), "LogIn"); got != "Masuk" {
		t.Errorf("T without localizer = %q, want default-language 'Masuk'", got)
	}
}

func TestMiddlewareNegotiatesLanguage(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(T(r.Context(), "AppTitle")))
	}))

	tests := []struct {
		name           string
		target         string
		acceptLanguage string
		want           string
	}{
		{"default", "/", "", "English Quiz"},
		{"accept-language", "/", "id-ID,id;q=0.9,en;q=0.8", "Kuis Bahasa Inggris"},
		{"unknown language falls back", "/", "fr-FR", "English Quiz"},
		{"query wins", "/?lang=en", "id", "English Quiz"},
		{"query only", "/?lang=id", "", "Kuis Bahasa Inggris"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.acceptLanguage != "" {
				req.Header.Set("Accept-Language", tt.acceptLanguage)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
		})
	}
}
