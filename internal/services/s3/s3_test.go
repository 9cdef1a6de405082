package s3service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	s3service "msme-roi-engine/internal/services/s3"
)

func TestVersionFromKey(t *testing.T) {
	assert.Equal(t, "2024-11", s3service.VersionFromKey("rate-tables/incoming/2024-11.csv"))
	assert.Equal(t, "plain", s3service.VersionFromKey("plain"))
}

func TestArchiveKey(t *testing.T) {
	assert.Equal(t,
		"rate-tables/archive/v7/2024-11.csv",
		s3service.ArchiveKey("rate-tables/incoming/2024-11.csv", "v7"))
}
