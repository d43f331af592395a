package storage

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	gcs "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestParseObjectURL(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{
			name:       "gs url",
			url:        "gs://motion-covers/u1/cover.png",
			wantBucket: "motion-covers",
			wantObject: "u1/cover.png",
		},
		{
			name:       "public https url",
			url:        "https://storage.googleapis.com/motion-covers/u1/cover.png",
			wantBucket: "motion-covers",
			wantObject: "u1/cover.png",
		},
		{name: "other host", url: "https://example.com/motion-covers/cover.png", wantErr: true},
		{name: "bucket only", url: "gs://motion-covers/", wantErr: true},
		{name: "https bucket only", url: "https://storage.googleapis.com/motion-covers", wantErr: true},
		{name: "garbage", url: "::not a url", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, object, err := ParseObjectURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantObject, object)
		})
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(gcs.ErrObjectNotExist))
	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusNotFound})))
	assert.False(t, isNotFound(&googleapi.Error{Code: http.StatusForbidden}))
	assert.False(t, isNotFound(errors.New("boom")))
}
