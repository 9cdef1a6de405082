package handlers

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	s3service "msme-roi-engine/internal/services/s3"
	"msme-roi-engine/internal/utils"
)

// Upload URL expiry bounds, in minutes.
const (
	defaultUploadExpiry = 15
	maxUploadExpiry     = 60
)

// versionPattern restricts version names to what is safe in an object key.
var versionPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// Presigner issues presigned upload URLs.
type Presigner interface {
	GeneratePresignedUploadURL(ctx context.Context, key string, expiryMinutes int) (*s3service.PresignedURLResult, error)
}

// UploadURLHandler issues upload URLs for new rate table versions.
type UploadURLHandler struct {
	presigner Presigner
}

// NewUploadURLHandler creates a new upload URL handler.
func NewUploadURLHandler(presigner Presigner) *UploadURLHandler {
	return &UploadURLHandler{presigner: presigner}
}

// UploadURLResponse is the response structure for upload URL requests.
type UploadURLResponse struct {
	UploadURL string `json:"upload_url"`
	S3Key     string `json:"s3_key"`
	Version   string `json:"version"`
	ExpiresAt string `json:"expires_at"`
}

// Handle processes the API Gateway request for an upload URL. The object
// key names the version the ingest handler will store it as.
func (h *UploadURLHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := utils.GetLogger()

	if request.HTTPMethod == http.MethodOptions {
		return preflight(), nil
	}

	version := request.QueryStringParameters["version"]
	if version == "" {
		version = time.Now().UTC().Format("20060102") + "-" + uuid.New().String()[:8]
	}
	if !versionPattern.MatchString(version) {
		return apiError(http.StatusBadRequest, "version may only contain letters, digits, '.', '-' and '_'")
	}

	expiry := defaultUploadExpiry
	if raw := request.QueryStringParameters["expires_in"]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxUploadExpiry {
			return apiError(http.StatusBadRequest, "expires_in must be between 1 and 60 minutes")
		}
		expiry = n
	}

	key := s3service.IncomingPrefix + version + ".csv"
	result, err := h.presigner.GeneratePresignedUploadURL(ctx, key, expiry)
	if err != nil {
		logger.Error("Failed to generate upload URL", utils.Error(err))
		return apiError(http.StatusInternalServerError, "Failed to generate upload URL")
	}

	return apiResponse(http.StatusOK, UploadURLResponse{
		UploadURL: result.URL,
		S3Key:     result.Key,
		Version:   version,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
