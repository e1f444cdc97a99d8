package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spitz/airsync/internal/services"
	"github.com/spitz/airsync/internal/shared"
	tu "github.com/spitz/airsync/internal/testing"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			feed := &tu.MockFeed{}
			catalog := &tu.MockCatalog{}
			tokens := &tu.MockTokens{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Feed:       feed,
				Catalog:    catalog,
				Tokens:     tokens,
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
			if runner.feed != feed {
				t.Error("expected feed to be set")
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
			if runner.tokens != tokens {
				t.Error("expected tokens to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with empty configPath uses config.toml", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.configPath != "config.toml" {
				t.Errorf("expected config.toml, got %s", runner.configPath)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for _, cmd := range commands {
			names[cmd.Name] = true
		}

		for _, want := range []string{"sync", "setup", "cache", "runs"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("hello %s", "world"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "hello world" {
			t.Errorf("expected 'hello world', got %q", output.String())
		}

		t.Run("propagates write failure", func(t *testing.T) {
			failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := failing.writePlain("text"); err == nil {
				t.Error("expected error from failing writer")
			}
		})
	})
}

// runSyncDay evaluates syncDay with flag values parsed from args.
func runSyncDay(t *testing.T, runner *Runner, args ...string) (time.Time, error) {
	t.Helper()

	var day time.Time
	var dayErr error
	app := &cli.Command{
		Name:  "airsync",
		Flags: syncFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			day, dayErr = runner.syncDay(cmd)
			return nil
		},
	}

	if err := app.Run(context.Background(), append([]string{"airsync"}, args...)); err != nil {
		t.Fatalf("command failed: %v", err)
	}
	return day, dayErr
}

func TestSyncDay(t *testing.T) {
	cfg := shared.TuneGenieConfig{
		APIURL:         "http://example.com",
		APIID:          "m2g_bar",
		Brand:          "wxyz",
		TimezoneOffset: "-04:00",
	}
	feed, err := services.NewTuneGenieService(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(RunnerOpts{Feed: feed})

	t.Run("explicit date", func(t *testing.T) {
		day, err := runSyncDay(t, runner, "--date", "2024-05-01")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		y, m, d := day.Date()
		if y != 2024 || m != time.May || d != 1 {
			t.Errorf("unexpected day %v", day)
		}

		// The date must be interpreted in the station's timezone.
		_, offset := day.Zone()
		if offset != -4*3600 {
			t.Errorf("expected station offset, got %d", offset)
		}
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := runSyncDay(t, runner, "--date", "May 1st")
		if err == nil {
			t.Error("expected error for invalid date")
		}
	})

	t.Run("defaults to yesterday", func(t *testing.T) {
		day, err := runSyncDay(t, runner)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		expected := time.Now().In(feed.Location()).AddDate(0, 0, -1)
		if day.Format("2006-01-02") != expected.Format("2006-01-02") {
			t.Errorf("expected yesterday %s, got %s", expected.Format("2006-01-02"), day.Format("2006-01-02"))
		}
	})
}
