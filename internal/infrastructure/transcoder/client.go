package transcoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/vishalbarai007/videoresizer/internal/config"
)

// Request carries the source stream and the target rendition parameters
// for a single transform call.
type Request struct {
	Filename    string
	Body        io.Reader
	Platform    string
	AspectRatio string
	Width       int
	Height      int
	Quality     int
	AutoCaption bool
	Extras      map[string]any
}

// Result is the converted stream plus the metadata the transcoder reports.
type Result struct {
	Body            io.ReadCloser
	ContentType     string
	Bytes           int64
	DurationSeconds float64
}

// Client calls the external transcoding service over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.TranscoderURL,
		client: &http.Client{
			Timeout: 0, // per-call deadline comes from the context
		},
		log: log.With().Str("component", "transcoder-client").Logger(),
	}
}

// Transform streams the source to the transcoder and returns the converted
// rendition. The caller owns closing Result.Body.
func (c *Client) Transform(ctx context.Context, req Request) (*Result, error) {
	return c.post(ctx, "/v1/transcode", req)
}

// Thumbnail asks the transcoder for a poster frame of the source. The
// caller owns closing Result.Body.
func (c *Client) Thumbnail(ctx context.Context, req Request) (*Result, error) {
	return c.post(ctx, "/v1/thumbnail", req)
}

func (c *Client) post(ctx context.Context, path string, req Request) (*Result, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		part, err := writer.CreateFormFile("file", req.Filename)
		if err != nil {
			pw.CloseWithError(fmt.Errorf("create form file: %w", err))
			return
		}
		if _, err := io.Copy(part, req.Body); err != nil {
			pw.CloseWithError(fmt.Errorf("copy source stream: %w", err))
			return
		}
		if err := writeFields(writer, req); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, pr)
	if err != nil {
		return nil, fmt.Errorf("create transcoder request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transcoder request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("transcoder returned status %d: %s", resp.StatusCode, string(body))
	}

	result := &Result{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Bytes:       resp.ContentLength,
	}
	if v := resp.Header.Get("X-Media-Duration-Seconds"); v != "" {
		if dur, err := strconv.ParseFloat(v, 64); err == nil {
			result.DurationSeconds = dur
		}
	}
	return result, nil
}

func writeFields(w *multipart.Writer, req Request) error {
	fields := map[string]string{
		"platform":     req.Platform,
		"aspect_ratio": req.AspectRatio,
		"width":        strconv.Itoa(req.Width),
		"height":       strconv.Itoa(req.Height),
		"quality":      strconv.Itoa(req.Quality),
		"auto_caption": strconv.FormatBool(req.AutoCaption),
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return fmt.Errorf("write field %s: %w", name, err)
		}
	}
	if len(req.Extras) > 0 {
		raw, err := json.Marshal(req.Extras)
		if err != nil {
			return fmt.Errorf("encode extras: %w", err)
		}
		if err := w.WriteField("extras", string(raw)); err != nil {
			return fmt.Errorf("write field extras: %w", err)
		}
	}
	return nil
}

// Health probes the transcoder's healthz endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transcoder health returned status %d", resp.StatusCode)
	}
	return nil
}
