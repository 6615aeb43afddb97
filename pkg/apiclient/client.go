// Package apiclient talks to the remote progress API that owns the academic records.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/progreso-dashboard/internal/models"
	appErrors "github.com/noah-isme/progreso-dashboard/pkg/errors"
	"github.com/noah-isme/progreso-dashboard/pkg/middleware/requestid"
)

const (
	defaultFetchError  = "Error al obtener datos"
	defaultUploadError = "Error en la carga"
	maxBodyBytes       = 8 << 20
)

// Observer receives timing for every outbound call. Status is 0 on transport errors.
type Observer interface {
	ObserveUpstreamRequest(endpoint string, status int, duration time.Duration)
}

// Config configures the remote API client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Observer   Observer
	Logger     *zap.Logger
}

// Client wraps the remote progress REST API.
type Client struct {
	baseURL  string
	http     *http.Client
	observer Observer
	logger   *zap.Logger
}

// New constructs a Client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     httpClient,
		observer: cfg.Observer,
		logger:   cfg.Logger,
	}
}

// SubjectsProgress fetches GET /api/materias/progreso.
func (c *Client) SubjectsProgress(ctx context.Context, term string) ([]models.SubjectProgress, error) {
	var out []models.SubjectProgress
	if err := c.get(ctx, "materias_progreso", "/api/materias/progreso", term, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SectionPerformance fetches GET /api/materias/{name}/rendimiento-paralelo.
func (c *Client) SectionPerformance(ctx context.Context, subject, term string) ([]models.SubjectProgress, error) {
	var out []models.SubjectProgress
	path := "/api/materias/" + url.PathEscape(subject) + "/rendimiento-paralelo"
	if err := c.get(ctx, "rendimiento_paralelo", path, term, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ElementsBySection fetches GET /api/materia/{name}/elementos-por-paralelo.
func (c *Client) ElementsBySection(ctx context.Context, subject, term string) ([]models.SectionElements, error) {
	var out []models.SectionElements
	path := "/api/materia/" + url.PathEscape(subject) + "/elementos-por-paralelo"
	if err := c.get(ctx, "elementos_por_paralelo", path, term, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadData posts the normalized model to POST /api/upload-excel-data on
// behalf of the bearer token owner. Only a 2xx reply with success=true is accepted.
func (c *Client) UploadData(ctx context.Context, token string, data models.NormalizedData) (*models.UploadResponse, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode upload payload")
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"/api/upload-excel-data", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	status, raw, err := c.do(req, "upload_excel_data")
	if err != nil {
		return nil, err
	}

	var result models.UploadResponse
	decodeErr := json.Unmarshal(raw, &result)
	if status < 200 || status > 299 {
		message := defaultUploadError
		if decodeErr == nil && result.Error != "" {
			message = result.Error
		}
		return nil, appErrors.Clone(appErrors.ErrUpstream, message)
	}
	if decodeErr != nil {
		return nil, appErrors.Wrap(decodeErr, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, defaultUploadError)
	}
	if !result.Success {
		return nil, appErrors.Clone(appErrors.ErrUpstream, firstNonEmpty(result.Error, result.Message, defaultUploadError))
	}
	return &result, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (c *Client) get(ctx context.Context, endpoint, path, term string, dest interface{}) error {
	target := c.baseURL + path
	if term != "" {
		target += "?" + url.Values{"gestion": []string{term}}.Encode()
	}

	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}

	status, raw, err := c.do(req, endpoint)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("HTTP error! status: %d", status))
	}

	envelope := models.APIEnvelope[json.RawMessage]{}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, defaultFetchError)
	}
	if !envelope.Success {
		message := envelope.Message
		if message == "" {
			message = defaultFetchError
		}
		return appErrors.Clone(appErrors.ErrUpstream, message)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, defaultFetchError)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build upstream request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey, id)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, endpoint string) (int, []byte, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(endpoint, 0, time.Since(start))
		c.logger.Warn("upstream request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return 0, nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.observe(endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		return 0, nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
	c.logger.Debug("upstream request", zap.String("endpoint", endpoint), zap.Int("status", resp.StatusCode), zap.Duration("latency", time.Since(start)))
	return resp.StatusCode, raw, nil
}

func (c *Client) observe(endpoint string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveUpstreamRequest(endpoint, status, d)
	}
}
