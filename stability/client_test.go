package stability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func newImage(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	img := filepath.Join(dir, "Ballon.jpg")
	if err := os.WriteFile(img, []byte("jpeg-bytes"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	out := filepath.Join(dir, "Output")
	if err := os.Mkdir(out, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return img, out
}

func TestGenerateSuccess(t *testing.T) {
	img, out := newImage(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != FastThreeDPath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected authorization %q", got)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "jpeg-bytes" || header.Filename != "Ballon.jpg" {
			t.Errorf("unexpected upload %q %q", header.Filename, data)
		}
		_, _ = w.Write([]byte("glTF-binary"))
	}))
	defer srv.Close()

	c := &Client{HTTPClient: srv.Client(), BaseURL: srv.URL + "/", APIKey: "sk-test"}

	path, err := c.Generate(context.Background(), img, out)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if path != filepath.Join(out, "Ballon_3d.glb") {
		t.Fatalf("unexpected path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read model: %v", err)
	}
	if string(data) != "glTF-binary" {
		t.Fatalf("unexpected model %q", data)
	}
}

func TestGenerateAPIError(t *testing.T) {
	img, out := newImage(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"errors":["insufficient credits"]}`))
	}))
	defer srv.Close()

	c := &Client{HTTPClient: srv.Client(), BaseURL: srv.URL, APIKey: "sk-test"}

	_, err := c.Generate(context.Background(), img, out)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusPaymentRequired || apiErr.Error() != "API Error: 402" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
	if apiErr.Body != `{"errors":["insufficient credits"]}` {
		t.Fatalf("unexpected body %q", apiErr.Body)
	}
	if _, err := os.Stat(filepath.Join(out, "Ballon_3d.glb")); !os.IsNotExist(err) {
		t.Fatalf("model should not be written on error")
	}
}

func TestGenerateMissingPaths(t *testing.T) {
	img, out := newImage(t)
	c := NewClient("sk-test")

	if _, err := c.Generate(context.Background(), filepath.Join(out, "nope.jpg"), out); !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("expected ErrInputNotFound, got %v", err)
	}
	if _, err := c.Generate(context.Background(), img, filepath.Join(out, "nope")); !errors.Is(err, ErrOutputDirNotFound) {
		t.Fatalf("expected ErrOutputDirNotFound, got %v", err)
	}
}

func TestGenerateTransportError(t *testing.T) {
	img, out := newImage(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := &Client{BaseURL: srv.URL, APIKey: "sk-test"}
	if _, err := c.Generate(context.Background(), img, out); err == nil {
		t.Fatal("expected transport error")
	}
}
