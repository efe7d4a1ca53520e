// Package stability talks to the Stability AI image-to-3D endpoint.
package stability

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/metalagman/imgto3d"
	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the public Stability AI API host.
	DefaultBaseURL = "https://api.stability.ai"
	// FastThreeDPath is the Stable Fast 3D generation endpoint.
	FastThreeDPath = "/v2beta/3d/stable-fast-3d"

	modelFilePerm = 0o644
)

var (
	// ErrInputNotFound indicates the input image does not exist.
	ErrInputNotFound = errors.New("input file not found")
	// ErrOutputDirNotFound indicates the output directory does not exist.
	ErrOutputDirNotFound = errors.New("output directory not found")
)

// APIError is returned for any non-200 response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API Error: %d", e.StatusCode)
}

// Client uploads an image and stores the returned binary glTF model.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
}

// NewClient returns a client for the public API using http.DefaultClient.
func NewClient(apiKey string) *Client {
	return &Client{HTTPClient: http.DefaultClient, BaseURL: DefaultBaseURL, APIKey: apiKey}
}

// Generate posts inputPath to the API and writes the model to
// outputDir/<stem>_3d.glb, returning that path.
func (c *Client) Generate(ctx context.Context, inputPath, outputDir string) (string, error) {
	log := zerolog.Ctx(ctx).With().Str("input", inputPath).Logger()

	if _, err := os.Stat(inputPath); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInputNotFound, inputPath)
	}

	if _, err := os.Stat(outputDir); err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutputDirNotFound, outputDir)
	}

	body, contentType, err := imageForm(inputPath)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.BaseURL, "/")+FastThreeDPath, body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	log.Info().Str("endpoint", FastThreeDPath).Msg("uploading image")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("post %s: %w", FastThreeDPath, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Msg("api rejected request")

		return "", &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputFile := filepath.Join(outputDir, stem+imgto3d.ModelFileSuffix)

	if err := os.WriteFile(outputFile, data, modelFilePerm); err != nil {
		return "", fmt.Errorf("write %s: %w", outputFile, err)
	}

	log.Info().Str("output", outputFile).Int("bytes", len(data)).Msg("model saved")

	return outputFile, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}

	return http.DefaultClient
}

func imageForm(inputPath string) (io.Reader, string, error) {
	f, err := os.Open(inputPath)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", inputPath, err)
	}
	defer f.Close()

	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("image", filepath.Base(inputPath))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}

	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy image: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}
