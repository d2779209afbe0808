package cmd

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func agentStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"horizon_default":24,"objective_default":"cost","backend":"greedy","metta":"stub","private_mode":false,"has_last_run":true}`)
	})
	mux.HandleFunc("/compare", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"text":"Comparison: cost vs peak\n- Cost objective: $120.50, peak 42.3kW, on-time 97.2%\n- Peak objective: $150.00, peak 30.0kW, on-time 95.0%\n"}`)
	})
	mux.HandleFunc("/whatif/site_peak", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"message":"Set site peak for D1 to 40kW"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "agent:\n  base_url: \"" + agentStub(t).URL + "\"\njournal:\n  backend: \"none\"\nlogging:\n  level: \"error\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"-c", path}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCompareCommand(t *testing.T) {
	out, err := execute(t, "compare")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	for _, want := range []string{"Cost", "120.50", "Peak", "30.0", "delta", "+29.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("output misses %q:\n%s", want, out)
		}
	}
}

func TestStatusCommand(t *testing.T) {
	out, err := execute(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, `"horizon_default": 24`) {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestWhatIfCommand(t *testing.T) {
	out, err := execute(t, "whatif", "site-peak", "--kw", "40")
	if err != nil {
		t.Fatalf("site-peak: %v", err)
	}
	if !strings.Contains(out, "Set site peak for D1 to 40kW") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	kwFlag = ""

	if _, err := execute(t, "whatif", "site-peak", "--kw", "lots"); err == nil {
		t.Fatal("expected a validation error")
	}
	kwFlag = ""
}

func TestOptimizeCommandRejectsHorizon(t *testing.T) {
	_, err := execute(t, "optimize", "--horizon", "zero")
	if err == nil || !strings.Contains(err.Error(), "horizon") {
		t.Fatalf("expected a horizon error, got %v", err)
	}
	horizonFlag = ""
}
