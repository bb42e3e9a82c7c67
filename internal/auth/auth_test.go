package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		cfg        Config
		path       string
		header     string
		wantStatus int
	}{
		{"disabled", FromToken(""), "/api/v1/batch/distance", "", http.StatusOK},
		{"public path", FromToken("s3cret"), "/api/v1/distance", "", http.StatusOK},
		{"probe", FromToken("s3cret"), "/healthz", "", http.StatusOK},
		{"missing header", FromToken("s3cret"), "/api/v1/batch/invert", "", http.StatusUnauthorized},
		{"wrong scheme", FromToken("s3cret"), "/api/v1/batch/invert", "Basic s3cret", http.StatusUnauthorized},
		{"wrong token", FromToken("s3cret"), "/api/v1/batch/invert", "Bearer nope", http.StatusUnauthorized},
		{"valid token", FromToken("s3cret"), "/api/v1/batch/invert", "Bearer s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", tt.path, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			Middleware(tt.cfg)(ok).ServeHTTP(w, r)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
