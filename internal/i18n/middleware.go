package i18n

import "net/http"

// Middleware picks the language of each request and stores its localizer in
// the request context. An explicit ?lang= wins over Accept-Language; lang
// is the fallback when neither names a loaded locale.
func Middleware(lang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			prefs := make([]string, 0, 3)
			if q := r.URL.Query().Get("lang"); q != "" {
				prefs = append(prefs, q)
			}
			if al := r.Header.Get("Accept-Language"); al != "" {
				prefs = append(prefs, al)
			}
			prefs = append(prefs, lang)
			w.Header().Add("Vary", "Accept-Language")
			next.ServeHTTP(w, r.WithContext(WithLocalizer(r.Context(), NewLocalizer(prefs...))))
		})
	}
}
