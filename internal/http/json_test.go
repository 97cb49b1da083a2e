package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}

	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantStatus int
		wantMsg    string
	}{
		{name: "valid", body: `{"title":"Grade appeal"}`, wantOK: true},
		{name: "empty", body: ``, wantStatus: http.StatusBadRequest, wantMsg: "request body is empty"},
		{name: "unknown field", body: `{"title":"x","admin":true}`, wantStatus: http.StatusBadRequest, wantMsg: "unknown field"},
		{name: "trailing value", body: `{"title":"x"}{"title":"y"}`, wantStatus: http.StatusBadRequest, wantMsg: "single JSON value"},
		{name: "too large", body: `{"title":"` + strings.Repeat("a", maxJSONBody) + `"}`, wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/complaints", strings.NewReader(tt.body))

			var dst payload
			ok := DecodeJSON(w, r, &dst)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "Grade appeal", dst.Title)
				return
			}
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), `"error":"invalid_json"`)
			assert.Contains(t, w.Body.String(), tt.wantMsg)
		})
	}
}

func TestWriteJSON_Unencodable(t *testing.T) {
	w := httptest.NewRecorder()

	WriteJSON(w, http.StatusOK, map[string]any{"ch": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
