package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/tidalx/internal/auth"
	"github.com/desertthunder/tidalx/internal/models"
	"github.com/desertthunder/tidalx/internal/plugin"
	"github.com/desertthunder/tidalx/internal/repositories"
	"github.com/desertthunder/tidalx/internal/session"
	"github.com/desertthunder/tidalx/internal/shared"
	tu "github.com/desertthunder/tidalx/internal/testing"
)

// immediateTicker fires once right away, so a scripted grant lands on the first attempt.
func immediateTicker(time.Duration) (<-chan time.Time, func()) {
	c := make(chan time.Time, 1)
	c <- time.Now()
	return c, func() {}
}

type harness struct {
	runner  *Runner
	output  *bytes.Buffer
	kv      *tu.MemoryKV
	catalog *tu.FakeCatalog
}

func newHarness(t *testing.T, fa *tu.FakeAuthorizer) *harness {
	t.Helper()
	h := &harness{output: &bytes.Buffer{}, kv: tu.NewMemoryKV(), catalog: &tu.FakeCatalog{}}
	logger := shared.NewLogger(&bytes.Buffer{})

	p, err := plugin.New(plugin.Options{
		Store:      repositories.NewTokenStore(h.kv),
		Session:    session.New("US", models.QualityLossless),
		Catalog:    h.catalog,
		Authorizer: fa,
		Flow:       auth.Options{Ticker: immediateTicker},
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("plugin.New() error = %v", err)
	}

	h.runner = NewRunner(RunnerOpts{Logger: logger, Output: h.output, Plugin: p})
	return h
}

func (h *harness) run(args ...string) error {
	return h.runner.app().Run(context.Background(), append([]string{"tidalx"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil || runner.logger == nil || runner.httpClient == nil {
				t.Error("expected defaults to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("Plugin", func(t *testing.T) {
		t.Run("builds from config and reuses the plugin", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Storage.Driver = "bolt"
			config.Storage.Path = filepath.Join(t.TempDir(), "session.db")
			runner := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}})
			defer runner.Close()

			p, err := runner.Plugin()
			if err != nil {
				t.Fatalf("Plugin() error = %v", err)
			}
			again, _ := runner.Plugin()
			if p != again {
				t.Error("expected the plugin to be built once")
			}
			if p.Connected() {
				t.Error("expected fresh storage to be disconnected")
			}
		})

		t.Run("rejects invalid config", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Tidal.ClientID = ""
			runner := NewRunner(RunnerOpts{Config: config})

			if _, err := runner.Plugin(); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), `"key": "value"`) || !strings.HasSuffix(output.String(), "\n") {
			t.Errorf("unexpected output %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writeJSON("x", false); err == nil {
			t.Error("expected write error")
		}
	})
}

func TestCommands(t *testing.T) {
	granted := models.TokenRecord{UserID: 7, CountryCode: "DE", AccessToken: "a", RefreshToken: "r"}

	t.Run("status", func(t *testing.T) {
		h := newHarness(t, &tu.FakeAuthorizer{})
		if err := h.run("status"); err != nil {
			t.Fatalf("status error = %v", err)
		}
		if !strings.Contains(h.output.String(), "UNAUTHENTICATED") {
			t.Errorf("unexpected output:\n%s", h.output.String())
		}
	})

	t.Run("status json", func(t *testing.T) {
		h := newHarness(t, &tu.FakeAuthorizer{})
		if err := h.run("status", "--json"); err != nil {
			t.Fatalf("status error = %v", err)
		}
		if !strings.Contains(h.output.String(), `"connected": false`) {
			t.Errorf("unexpected output:\n%s", h.output.String())
		}
	})

	t.Run("connect then disconnect", func(t *testing.T) {
		fa := &tu.FakeAuthorizer{
			Grant:  models.DeviceGrant{DeviceCode: "dev", UserCode: "ABC123", VerificationURI: "link.tidal.com/ABC123"},
			Script: []tu.PollResponse{{Record: granted}},
		}
		h := newHarness(t, fa)

		if err := h.run("connect"); err != nil {
			t.Fatalf("connect error = %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "https://link.tidal.com/ABC123") || !strings.Contains(out, "ABC123") {
			t.Errorf("expected verification prompt, got:\n%s", out)
		}
		if !strings.Contains(out, "✓ Connected (user 7, DE)") {
			t.Errorf("expected connected message, got:\n%s", out)
		}
		if h.kv.WriteCount() != 1 {
			t.Errorf("expected one store write, got %d", h.kv.WriteCount())
		}

		if err := h.run("disconnect"); err != nil {
			t.Fatalf("disconnect error = %v", err)
		}
		if h.kv.Len() != 0 {
			t.Error("expected store to be erased")
		}
	})

	t.Run("connect denied", func(t *testing.T) {
		fa := &tu.FakeAuthorizer{
			Grant:  models.DeviceGrant{DeviceCode: "dev"},
			Script: []tu.PollResponse{{Err: shared.ErrAccessDenied}},
		}
		h := newHarness(t, fa)

		if err := h.run("connect", "--no-browser"); !errors.Is(err, shared.ErrAccessDenied) {
			t.Errorf("expected ErrAccessDenied, got %v", err)
		}
	})

	t.Run("list json", func(t *testing.T) {
		h := newHarness(t, &tu.FakeAuthorizer{})
		h.catalog.TrackList = []models.Track{{ID: 1, Title: "Top", Artist: "Band", Duration: 200}}

		if err := h.run("list", "--format", "json", "--refresh", "Tracks"); err != nil {
			t.Fatalf("list error = %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, `"id": "1"`) || !strings.Contains(out, `"kind": "PLAYABLE"`) {
			t.Errorf("unexpected output:\n%s", out)
		}
		if calls := h.catalog.Calls(); len(calls) != 1 || calls[0] != "Tracks(true)" {
			t.Errorf("unexpected calls %v", calls)
		}
	})

	t.Run("list unknown category is empty", func(t *testing.T) {
		h := newHarness(t, &tu.FakeAuthorizer{})
		if err := h.run("list", "-f", "json", "Podcasts"); err != nil {
			t.Fatalf("list error = %v", err)
		}
		if strings.TrimSpace(h.output.String()) != "[]" {
			t.Errorf("expected empty array, got %q", h.output.String())
		}
	})

	t.Run("list to file", func(t *testing.T) {
		h := newHarness(t, &tu.FakeAuthorizer{})
		h.catalog.ArtistList = []models.Artist{{ID: 3, Name: "Band"}}
		path := filepath.Join(t.TempDir(), "artists.csv")

		if err := h.run("list", "-f", "csv", "-o", path, "Artists"); err != nil {
			t.Fatalf("list error = %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil || !strings.Contains(string(data), "3,BROWSABLE,Band") {
			t.Errorf("unexpected export %q, %v", data, err)
		}
	})

	t.Run("list requires category", func(t *testing.T) {
		h := newHarness(t, &tu.FakeAuthorizer{})
		if err := h.run("list"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("children", func(t *testing.T) {
		h := newHarness(t, &tu.FakeAuthorizer{})
		h.catalog.Children = []models.Track{{ID: 9, Title: "Deep Cut"}}

		if err := h.run("children", "-f", "text", "Albums", "42"); err != nil {
			t.Fatalf("children error = %v", err)
		}
		if !strings.Contains(h.output.String(), "Deep Cut") {
			t.Errorf("unexpected output:\n%s", h.output.String())
		}
		if err := h.run("children", "Artists", "abc"); !errors.Is(err, shared.ErrInvalidPath) {
			t.Errorf("expected ErrInvalidPath, got %v", err)
		}
	})

	t.Run("search", func(t *testing.T) {
		h := newHarness(t, &tu.FakeAuthorizer{})
		h.catalog.Children = []models.Track{{ID: 5, Title: "Found"}}

		if err := h.run("search", "-f", "markdown", "daft punk"); err != nil {
			t.Fatalf("search error = %v", err)
		}
		if !strings.Contains(h.output.String(), "Found") {
			t.Errorf("unexpected output:\n%s", h.output.String())
		}
		if calls := h.catalog.Calls(); calls[0] != "SearchTracks(daft punk,false)" {
			t.Errorf("unexpected calls %v", calls)
		}
	})

	t.Run("stream", func(t *testing.T) {
		h := newHarness(t, &tu.FakeAuthorizer{})
		h.catalog.Stream = "https://cdn.example/123.flac"

		if err := h.run("stream", "--quality", "high", "123"); err != nil {
			t.Fatalf("stream error = %v", err)
		}
		if strings.TrimSpace(h.output.String()) != h.catalog.Stream {
			t.Errorf("unexpected output %q", h.output.String())
		}
		if h.runner.plugin.Info().Quality != models.QualityHigh {
			t.Error("expected quality flag to apply")
		}

		if err := h.run("stream", "mix-1"); !errors.Is(err, shared.ErrInvalidID) {
			t.Errorf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("export", func(t *testing.T) {
		h := newHarness(t, &tu.FakeAuthorizer{})
		h.catalog.PlaylistList = []models.Playlist{{UUID: "0a6a6d1e-8b2c-4c52-a2a4-5a4f2f8f7d10", Title: "Road Trip"}}
		h.catalog.Children = []models.Track{{ID: 9, Title: "Drive"}}
		dir := t.TempDir()

		if err := h.run("export", "-c", "Playlists", "-d", dir, "--children", "--rate", "1000"); err != nil {
			t.Fatalf("export error = %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "✓ Exported 2 of 2 collections") || !strings.Contains(out, "Road Trip") {
			t.Errorf("unexpected output:\n%s", out)
		}
		if _, err := os.Stat(filepath.Join(dir, "export_manifest.json")); err != nil {
			t.Errorf("expected manifest, got %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "playlists", "0a6a6d1e-8b2c-4c52-a2a4-5a4f2f8f7d10.json")); err != nil {
			t.Errorf("expected playlist export, got %v", err)
		}

		if err := h.run("export", "-f", "yaml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("like", func(t *testing.T) {
		h := newHarness(t, &tu.FakeAuthorizer{})

		if err := h.run("like", "5"); err != nil {
			t.Fatalf("like error = %v", err)
		}
		if err := h.run("like", "5"); err != nil {
			t.Fatalf("like error = %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "♥ Liked 5") || !strings.Contains(out, "Removed 5") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})
}
