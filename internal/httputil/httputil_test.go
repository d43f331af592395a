package httputil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	type body struct {
		Title string `json:"title"`
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "valid", input: `{"title":"Notes"}`, want: "Notes"},
		{name: "empty body", input: ``, wantErr: true},
		{name: "unknown field", input: `{"titel":"Notes"}`, wantErr: true},
		{name: "trailing object", input: `{"title":"a"}{"title":"b"}`, wantErr: true},
		{name: "malformed", input: `{"title":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.input))
			var dest body
			err := ParseJSON(httptest.NewRecorder(), r, &dest)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, dest.Title)
		})
	}
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusNotFound, "document abc not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "Not Found", problem.Title)
	assert.Equal(t, "document abc not found", problem.Detail)
	assert.Equal(t, http.StatusNotFound, problem.Status)
}

func TestUserIDContext(t *testing.T) {
	assert.Equal(t, "", UserIDFromContext(context.Background()))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithUserID(r.Context(), "user-1"))
	assert.Equal(t, "user-1", GetUserID(r))
}
