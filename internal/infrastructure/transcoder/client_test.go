package transcoder

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishalbarai007/videoresizer/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	c := NewClient(&config.Config{TranscoderURL: "http://transcoder.invalid"}, zerolog.Nop())
	c.client.Transport = rt
	return c
}

func readMultipartFields(t *testing.T, r *http.Request) map[string]string {
	t.Helper()

	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)

	fields := make(map[string]string)
	reader := multipart.NewReader(r.Body, params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		b, _ := io.ReadAll(part)
		fields[part.FormName()] = string(b)
		part.Close()
	}
	return fields
}

func TestTransformSendsProfileFields(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "/v1/transcode", r.URL.Path)
		fields := readMultipartFields(t, r)
		assert.Equal(t, "tiktok", fields["platform"])
		assert.Equal(t, "9:16", fields["aspect_ratio"])
		assert.Equal(t, "1080", fields["width"])
		assert.Equal(t, "1920", fields["height"])
		assert.Equal(t, "75", fields["quality"])
		assert.Equal(t, "true", fields["auto_caption"])
		assert.JSONEq(t, `{"addMusic":true,"effects":"none"}`, fields["extras"])
		assert.Equal(t, "source data", fields["file"])

		header := make(http.Header)
		header.Set("Content-Type", "video/mp4")
		header.Set("X-Media-Duration-Seconds", "12.5")
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader([]byte("converted"))),
			Header:     header,
		}, nil
	})

	result, err := client.Transform(context.Background(), Request{
		Filename:    "vid_01.mp4",
		Body:        strings.NewReader("source data"),
		Platform:    "tiktok",
		AspectRatio: "9:16",
		Width:       1080,
		Height:      1920,
		Quality:     75,
		AutoCaption: true,
		Extras:      map[string]any{"addMusic": true, "effects": "none"},
	})
	require.NoError(t, err)
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	require.NoError(t, err)
	assert.Equal(t, "converted", string(data))
	assert.Equal(t, "video/mp4", result.ContentType)
	assert.Equal(t, 12.5, result.DurationSeconds)
}

func TestThumbnailHitsPosterEndpoint(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "/v1/thumbnail", r.URL.Path)
		fields := readMultipartFields(t, r)
		assert.Equal(t, "instagram", fields["platform"])
		assert.Equal(t, "source data", fields["file"])

		header := make(http.Header)
		header.Set("Content-Type", "image/jpeg")
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewReader([]byte("frame"))),
			Header:     header,
		}, nil
	})

	result, err := client.Thumbnail(context.Background(), Request{
		Filename: "vid_03.mp4",
		Body:     strings.NewReader("source data"),
		Platform: "instagram",
	})
	require.NoError(t, err)
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	require.NoError(t, err)
	assert.Equal(t, "frame", string(data))
	assert.Equal(t, "image/jpeg", result.ContentType)
}

func TestTransformNonOKStatus(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		io.Copy(io.Discard, r.Body)
		return &http.Response{
			StatusCode: http.StatusUnprocessableEntity,
			Body:       io.NopCloser(strings.NewReader("unsupported codec")),
			Header:     make(http.Header),
		}, nil
	})

	_, err := client.Transform(context.Background(), Request{
		Filename: "vid_02.mkv",
		Body:     strings.NewReader("data"),
		Platform: "youtube",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "unsupported codec")
}
