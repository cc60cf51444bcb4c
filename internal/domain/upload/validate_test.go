package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLimits = Limits{
	MaxBytes:   500 * 1024 * 1024,
	Extensions: []string{".mp4", ".mov", ".avi", ".mkv", ".webm"},
}

func TestValidatePartitionsBatch(t *testing.T) {
	inputs := []MediaInput{
		{Origin: OriginFile, Name: "clip.mp4", Size: 1024},
		{Origin: OriginFile, Name: "slides.pdf", Size: 2048},
		{Origin: OriginFile, Name: "raw.mov", Size: 4096},
	}

	result := Validate(inputs, testLimits)

	require.Len(t, result.Accepted, 2)
	assert.Equal(t, "clip.mp4", result.Accepted[0].Name)
	assert.Equal(t, "raw.mov", result.Accepted[1].Name)

	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "slides.pdf", result.Rejected[0].Input.Name)
	require.Len(t, result.Rejected[0].Reasons, 1)
	assert.Contains(t, result.Rejected[0].Reasons[0], "unsupported format .pdf")
}

func TestValidateAccumulatesReasons(t *testing.T) {
	inputs := []MediaInput{
		{Origin: OriginFile, Name: "huge.txt", Size: testLimits.MaxBytes + 1},
	}

	result := Validate(inputs, testLimits)

	require.Len(t, result.Rejected, 1)
	require.Len(t, result.Rejected[0].Reasons, 2)
	assert.Contains(t, result.Rejected[0].Reasons[0], "unsupported format")
	assert.Contains(t, result.Rejected[0].Reasons[1], "size limit")
}

func TestValidateExtensionCaseInsensitive(t *testing.T) {
	result := Validate([]MediaInput{
		{Origin: OriginFile, Name: "CLIP.MP4", Size: 10},
	}, testLimits)

	assert.Len(t, result.Accepted, 1)
	assert.Empty(t, result.Rejected)
}

func TestValidateEmptyFile(t *testing.T) {
	result := Validate([]MediaInput{
		{Origin: OriginFile, Name: "clip.mp4", Size: 0},
	}, testLimits)

	require.Len(t, result.Rejected, 1)
	assert.Contains(t, result.Rejected[0].Reasons, "file is empty")
}

func TestValidateSizeAtLimitAccepted(t *testing.T) {
	result := Validate([]MediaInput{
		{Origin: OriginFile, Name: "clip.mp4", Size: testLimits.MaxBytes},
	}, testLimits)

	assert.Len(t, result.Accepted, 1)
}

func TestValidateURLInputs(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		reject string
	}{
		{"valid https", "https://cdn.example.com/a.mp4", ""},
		{"valid http", "http://cdn.example.com/a.mp4", ""},
		{"empty", "", "url is empty"},
		{"bad scheme", "ftp://cdn.example.com/a.mp4", "url must use http or https"},
		{"no host", "https:///a.mp4", "url has no host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate([]MediaInput{
				{Origin: OriginURL, URL: tt.url},
			}, testLimits)

			if tt.reject == "" {
				assert.Len(t, result.Accepted, 1)
				return
			}
			require.Len(t, result.Rejected, 1)
			assert.Contains(t, result.Rejected[0].Reasons, tt.reject)
		})
	}
}

func TestValidateEmptyBatch(t *testing.T) {
	result := Validate(nil, testLimits)
	assert.Empty(t, result.Accepted)
	assert.Empty(t, result.Rejected)
}
