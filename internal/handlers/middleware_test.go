package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// minimal router wiring only the middleware + an echo endpoint
func newMiddlewareOnlyRouter(corsOrigin string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(newMocks().service(), nil, corsOrigin, nil)
	r.Use(h.requestIDMiddleware, h.corsMiddleware)
	r.GET("/echo", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"requestId": requestID(c)})
	})
	return r
}

func TestRequestIDMiddleware(t *testing.T) {
	r := newMiddlewareOnlyRouter("")

	cases := []struct {
		name   string
		header string
	}{
		{name: "generated when missing", header: ""},
		{name: "propagated when present", header: "abc-123"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/echo", nil)
			if tc.header != "" {
				req.Header.Set(headerRequestID, tc.header)
			}
			r.ServeHTTP(w, req)

			got := w.Header().Get(headerRequestID)
			if tc.header != "" && got != tc.header {
				t.Fatalf("request id: got %q, want %q", got, tc.header)
			}
			if tc.header == "" {
				if _, err := uuid.Parse(got); err != nil {
					t.Fatalf("generated id %q is not a uuid: %v", got, err)
				}
			}

			var out struct {
				RequestID string `json:"requestId"`
			}
			_ = json.Unmarshal(w.Body.Bytes(), &out)
			if out.RequestID != got {
				t.Fatalf("context id %q != header id %q", out.RequestID, got)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	cases := []struct {
		name       string
		origin     string
		wantOrigin string
	}{
		{name: "any origin by default", origin: "", wantOrigin: "*"},
		{name: "configured origin", origin: "http://dashboard.local:5173", wantOrigin: "http://dashboard.local:5173"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newMiddlewareOnlyRouter(tc.origin)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/echo", nil))
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Fatalf("allow-origin: got %q, want %q", got, tc.wantOrigin)
			}

			w = httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/echo", nil))
			if w.Code != http.StatusNoContent {
				t.Fatalf("preflight status: got %d, want %d", w.Code, http.StatusNoContent)
			}
		})
	}
}
