package integration_tests

import (
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

type workspace struct {
	dir    string
	bin    string
	image  string
	outDir string
	script string
}

func buildBinary(t *testing.T, dst, pkg string) {
	t.Helper()
	origDir, _ := os.Getwd()
	cmd := exec.Command("go", "build", "-o", dst, filepath.Join(origDir, "..", pkg))
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build %s: %v\nOutput: %s", pkg, err, string(out))
	}
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("wrapper scripts use sh")
	}

	tmpDir := t.TempDir()
	ws := workspace{
		dir:    tmpDir,
		bin:    filepath.Join(tmpDir, "imgto3d"),
		image:  filepath.Join(tmpDir, "Ballon.jpg"),
		outDir: filepath.Join(tmpDir, "Output"),
		script: filepath.Join(tmpDir, "StableDiffusionConnector.py"),
	}
	buildBinary(t, ws.bin, filepath.Join("cmd", "imgto3d"))

	if err := os.WriteFile(ws.image, []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	if err := os.MkdirAll(ws.outDir, 0o755); err != nil {
		t.Fatalf("failed to create output dir: %v", err)
	}
	return ws
}

func (ws workspace) generate(t *testing.T, python, apiKey string) (string, string, error) {
	t.Helper()
	cmd := exec.Command(ws.bin, "generate",
		"--config", filepath.Join(ws.dir, "none.yaml"),
		"--python", python,
		"--script", ws.script,
		"--input", ws.image,
		"--output", ws.outDir,
		"--api-key", apiKey,
		"--log-format", "json",
	)
	cmd.Env = append(os.Environ(), "IMGTO3D_API_KEY=")
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func TestGenerateWithStubConnector(t *testing.T) {
	ws := newWorkspace(t)

	connector := filepath.Join(ws.dir, "fakeconnector")
	buildBinary(t, connector, filepath.Join("testdata", "fakeconnector"))
	if err := os.WriteFile(ws.script, []byte("# stub"), 0o644); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	stdout, stderr, err := ws.generate(t, connector, "sk-integration")
	if err != nil {
		t.Fatalf("generate failed: %v\nstderr: %s", err, stderr)
	}

	model := filepath.Join(ws.outDir, "Ballon_3d.glb")
	if !strings.Contains(stdout, "generated with key sk-integration") || !strings.Contains(stdout, model) {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if strings.Contains(stderr, "sk-integration") {
		t.Errorf("credential leaked into logs: %s", stderr)
	}
	if _, err := os.Stat(model); err != nil {
		t.Errorf("model not written: %v", err)
	}

	_, stderr, err = ws.generate(t, connector, "bad-key")
	if err == nil {
		t.Fatal("expected non-zero exit for rejected key")
	}
	if !strings.Contains(stderr, "Error: API Error: 401") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestGenerateThroughConnectWrapper(t *testing.T) {
	ws := newWorkspace(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-wrapper" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("glTF-binary"))
	}))
	defer srv.Close()

	wrapper := "exec " + ws.bin + " connect --base-url " + srv.URL + ` "$@"` + "\n"
	if err := os.WriteFile(ws.script, []byte(wrapper), 0o755); err != nil {
		t.Fatalf("failed to write wrapper: %v", err)
	}

	stdout, stderr, err := ws.generate(t, "sh", "sk-wrapper")
	if err != nil {
		t.Fatalf("generate failed: %v\nstderr: %s", err, stderr)
	}
	if !strings.Contains(stdout, "3D model generated successfully") {
		t.Errorf("unexpected stdout %q", stdout)
	}

	data, err := os.ReadFile(filepath.Join(ws.outDir, "Ballon_3d.glb"))
	if err != nil {
		t.Fatalf("model not written: %v", err)
	}
	if string(data) != "glTF-binary" {
		t.Errorf("unexpected model %q", data)
	}
}
