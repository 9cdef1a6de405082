package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"msme-roi-engine/internal/handlers"
	s3service "msme-roi-engine/internal/services/s3"
)

type fakePresigner struct {
	key    string
	expiry int
	err    error
}

func (f *fakePresigner) GeneratePresignedUploadURL(_ context.Context, key string, expiryMinutes int) (*s3service.PresignedURLResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.key, f.expiry = key, expiryMinutes
	return &s3service.PresignedURLResult{
		URL:       "https://rates.s3.amazonaws.com/" + key + "?X-Amz-Signature=abc",
		Key:       key,
		ExpiresAt: time.Now().Add(time.Duration(expiryMinutes) * time.Minute),
	}, nil
}

func uploadRequest(params map[string]string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, QueryStringParameters: params}
}

func TestUploadURL_NamedVersion(t *testing.T) {
	presigner := &fakePresigner{}
	h := handlers.NewUploadURLHandler(presigner)

	resp, err := h.Handle(context.Background(), uploadRequest(map[string]string{"version": "2024-11", "expires_in": "30"}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out handlers.UploadURLResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &out))
	assert.Equal(t, "rate-tables/incoming/2024-11.csv", out.S3Key)
	assert.Equal(t, "2024-11", out.Version)
	assert.Equal(t, 30, presigner.expiry)
	assert.Equal(t, s3service.VersionFromKey(out.S3Key), out.Version)
}

func TestUploadURL_GeneratedVersion(t *testing.T) {
	presigner := &fakePresigner{}
	h := handlers.NewUploadURLHandler(presigner)

	resp, err := h.Handle(context.Background(), uploadRequest(nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.True(t, strings.HasPrefix(presigner.key, s3service.IncomingPrefix))
	assert.True(t, strings.HasSuffix(presigner.key, ".csv"))
	assert.Equal(t, 15, presigner.expiry)
}

func TestUploadURL_BadInput(t *testing.T) {
	h := handlers.NewUploadURLHandler(&fakePresigner{})

	tests := []struct {
		name   string
		params map[string]string
	}{
		{"path traversal", map[string]string{"version": "../current"}},
		{"slash", map[string]string{"version": "a/b"}},
		{"expiry too long", map[string]string{"expires_in": "120"}},
		{"expiry not a number", map[string]string{"expires_in": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := h.Handle(context.Background(), uploadRequest(tt.params))
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestUploadURL_PresignFailure(t *testing.T) {
	h := handlers.NewUploadURLHandler(&fakePresigner{err: errors.New("no credentials")})

	resp, err := h.Handle(context.Background(), uploadRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
