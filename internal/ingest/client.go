package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "termcal/internal/log"
	"termcal/internal/model"
)

// Upload is one document handed to the parsing service.
type Upload struct {
	Filename string
	Data     []byte
}

// ParseResult carries the collaborator payload plus cache provenance.
type ParseResult struct {
	Payload   model.TermPayload
	FromCache bool
}

// cacheMeta records when a cached parse response was produced.
type cacheMeta struct {
	Key       string    `json:"key"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Client talks to the upstream document-parsing service. Responses are cached
// on disk keyed by a content hash of the uploaded documents, so re-uploading
// the same syllabi does not re-run the (slow, possibly metered) parser.
type Client struct {
	baseURL  string
	client   *http.Client
	cacheDir string
}

// NewClient creates a parse client for the service at baseURL.
//
// cacheDir is the base directory for cached responses, one subdirectory per
// content hash. Example: "/var/lib/termcal/parse-cache".
func NewClient(baseURL, cacheDir string) *Client {
	if cacheDir == "" {
		// Caller should set this explicitly; fall back to a relative dir so
		// that development runs without root permissions.
		cacheDir = "./var/parse-cache"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		cacheDir: cacheDir,
	}
}

// Parse submits the uploads and returns the parsed term payload. The payload
// is treated as untrusted: missing ids, names or weekday sets are carried
// through unchanged, since materialization already tolerates them.
//
// The client performs no retries. Upstream failure comes back as a single
// descriptive error; retry policy belongs to the caller.
func (c *Client) Parse(ctx context.Context, uploads []Upload) (ParseResult, error) {
	if c.baseURL == "" {
		return ParseResult{}, errors.New("ingest: no parser URL configured")
	}
	if len(uploads) == 0 {
		return ParseResult{}, errors.New("ingest: no documents to parse")
	}

	key := contentKey(uploads)
	cachePath := filepath.Join(c.cacheDir, key)

	if payload, ok := c.loadCached(cachePath); ok {
		appLog.Info("ingest: parse cache hit", "key", key, "course_count", len(payload.Courses))
		return ParseResult{Payload: payload, FromCache: true}, nil
	}

	body, contentType, err := multipartBody(uploads)
	if err != nil {
		return ParseResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/parse", body)
	if err != nil {
		return ParseResult{}, err
	}
	req.Header.Set("Content-Type", contentType)

	appLog.Info("ingest: parse request start", "key", key, "file_count", len(uploads))

	resp, err := c.client.Do(req)
	if err != nil {
		return ParseResult{}, fmt.Errorf("ingest: parse request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return ParseResult{}, fmt.Errorf("ingest: reading parse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return ParseResult{}, fmt.Errorf("ingest: parser returned status %d: %s",
			resp.StatusCode, snippet(raw))
	}

	var payload model.TermPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ParseResult{}, fmt.Errorf("ingest: decoding parse response: %w", err)
	}

	if err := c.storeCached(cachePath, key, raw); err != nil {
		// Cache write failure is not fatal; the payload is already in hand.
		appLog.Error("ingest: failed to write parse cache", err, "key", key)
	}

	appLog.Info("ingest: parse completed", "key", key, "course_count", len(payload.Courses))
	return ParseResult{Payload: payload}, nil
}

// contentKey hashes filenames and contents so identical uploads map to the
// same cache entry regardless of order within a single request.
func contentKey(uploads []Upload) string {
	h := sha256.New()
	for _, u := range uploads {
		h.Write([]byte(u.Filename))
		h.Write([]byte{0})
		h.Write(u.Data)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func multipartBody(uploads []Upload) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, u := range uploads {
		part, err := mw.CreateFormFile("files", u.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(u.Data); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func (c *Client) loadCached(cachePath string) (model.TermPayload, bool) {
	var payload model.TermPayload

	raw, err := os.ReadFile(filepath.Join(cachePath, "body.json"))
	if err != nil {
		return payload, false
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, false
	}
	return payload, true
}

func (c *Client) storeCached(cachePath, key string, raw []byte) error {
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return err
	}

	meta, err := json.Marshal(cacheMeta{Key: key, UpdatedAt: time.Now()})
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(cachePath, "meta.json"), meta, 0o600); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "body.json"), raw, 0o600)
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
