package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prodigisoftwares/ollama-agent/internal/config"
	"github.com/prodigisoftwares/ollama-agent/internal/global"
)

const modelsBody = `{"object":"list","data":[
	{"id":"llama3:8b","object":"model","created":1,"owned_by":"library"},
	{"id":"gemma2:9b","object":"model","created":1,"owned_by":"library"}]}`

func chatBody(content string) string {
	return `{"id":"c1","object":"chat.completion","created":1,"model":"gemma2:9b",
		"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` + quote(content) + `}}]}`
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

func testConfig(t *testing.T, handler http.HandlerFunc) config.Config {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.BaseURL = srv.URL + "/v1"
	cfg.DataDir = dir
	cfg.ConfigDir = dir
	cfg.LogFile = filepath.Join(dir, "agent.log")
	cfg.Plain = true
	return cfg
}

func TestRunModels_MarksConfiguredModel(t *testing.T) {
	cfg := testConfig(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, modelsBody)
	})
	cfg.Model = "llama3:8b"
	var out bytes.Buffer
	if err := runModels(context.Background(), cfg, &out); err != nil {
		t.Fatalf("models failed: %v", err)
	}
	if out.String() != "  gemma2:9b\n* llama3:8b\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestRunModels_EndpointDown(t *testing.T) {
	cfg := testConfig(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})
	if err := runModels(context.Background(), cfg, io.Discard); err == nil {
		t.Fatal("expected error when endpoint fails")
	}
}

func TestRunAsk_PrintsChatReply(t *testing.T) {
	cfg := testConfig(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatBody("Hello there."))
	})
	var out bytes.Buffer
	if err := runAsk(context.Background(), cfg, "hi", strings.NewReader(""), &out); err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if !strings.Contains(out.String(), "Hello there.") {
		t.Fatalf("reply not printed: %q", out.String())
	}
	if _, err := os.Stat(global.DBPath(cfg.DataDir)); err != nil {
		t.Fatalf("expected history database: %v", err)
	}
}

func TestRunAsk_SlashCommandSkipsModel(t *testing.T) {
	cfg := testConfig(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("model must not be called, got %s", r.URL.Path)
		http.Error(w, "unexpected", http.StatusInternalServerError)
	})
	work := t.TempDir()
	if err := os.WriteFile(filepath.Join(work, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	t.Chdir(work)

	var out bytes.Buffer
	if err := runAsk(context.Background(), cfg, "/ls", strings.NewReader(""), &out); err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if !strings.Contains(out.String(), "notes.txt") {
		t.Fatalf("listing not printed: %q", out.String())
	}
}

func TestRunAsk_ModelDirectiveIsExecuted(t *testing.T) {
	cfg := testConfig(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatBody("Let me look.\nREAD: notes.txt"))
	})
	work := t.TempDir()
	if err := os.WriteFile(filepath.Join(work, "notes.txt"), []byte("remember the milk"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	t.Chdir(work)

	var out bytes.Buffer
	if err := runAsk(context.Background(), cfg, "what is in notes.txt?", strings.NewReader(""), &out); err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if !strings.Contains(out.String(), "remember the milk") {
		t.Fatalf("file content not printed: %q", out.String())
	}
}

func TestRunAsk_EndpointErrorIsReturned(t *testing.T) {
	cfg := testConfig(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	})
	if err := runAsk(context.Background(), cfg, "hi", strings.NewReader(""), io.Discard); err == nil {
		t.Fatal("expected endpoint error")
	}
}

func TestRunChat_UnreachableEndpointFails(t *testing.T) {
	cfg := testConfig(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	if err := runChat(context.Background(), cfg, strings.NewReader("hi\n"), io.Discard); err == nil {
		t.Fatal("expected startup error")
	}
}

func TestRunChat_ReadsUntilExit(t *testing.T) {
	calls := 0
	cfg := testConfig(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/models" {
			_, _ = io.WriteString(w, modelsBody)
			return
		}
		calls++
		_, _ = io.WriteString(w, chatBody("Hi!"))
	})
	var out bytes.Buffer
	if err := runChat(context.Background(), cfg, strings.NewReader("hello\n/exit\nnever\n"), &out); err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one model call, got %d", calls)
	}
	if !strings.Contains(out.String(), "Hi!") || !strings.Contains(out.String(), "Goodbye!") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestRunMigrateUp_CreatesDatabase(t *testing.T) {
	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	if err := runMigrateUp(context.Background(), cfg); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if _, err := os.Stat(global.DBPath(cfg.DataDir)); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
}
