package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func requestWithURLParam(key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestReadPathInt64(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int64
		wantErr bool
	}{
		{"plain id", "12", 12, false},
		{"zero", "0", 0, false},
		{"negative", "-3", -3, false},
		{"trailing garbage", "12abc", 0, true},
		{"leading garbage", "abc12", 0, true},
		{"float", "1.5", 0, true},
		{"empty", "", 0, true},
		{"whitespace", " 12", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := readPathInt64(requestWithURLParam("id", tc.value), "id")
			if tc.wantErr {
				if err == nil {
					t.Fatalf("readPathInt64(%q) = %d, want error", tc.value, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("readPathInt64(%q): %v", tc.value, err)
			}
			if got != tc.want {
				t.Fatalf("readPathInt64(%q) = %d, want %d", tc.value, got, tc.want)
			}
		})
	}
}
