package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corey/gourmand/internal/adapters/bbolt"
	"github.com/corey/gourmand/internal/config"
	"github.com/corey/gourmand/internal/errors"
	"github.com/corey/gourmand/internal/ports"
)

type fakeCatalog struct {
	models []ports.ModelSummary
	err    error
}

func (f *fakeCatalog) ListModels(context.Context) ([]ports.ModelSummary, error) {
	return f.models, f.err
}

type harness struct {
	dataDir string
	cli     *cli
	out     *bytes.Buffer
}

func newHarness(t *testing.T, stdin string) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	h := &harness{dataDir: filepath.Join(t.TempDir(), "data"), out: &bytes.Buffer{}}
	h.cli = newCLI(strings.NewReader(stdin), h.out, &bytes.Buffer{})
	return h
}

func (h *harness) run(args ...string) error {
	root := h.cli.rootCmd()
	root.SetArgs(append([]string{"--data-dir", h.dataDir}, args...))
	return root.ExecuteContext(context.Background())
}

// seed writes sessions and recipes directly into the store.
func (h *harness) seed(t *testing.T, sessions []*ports.Session, recipes []*ports.RecipeRecord) {
	t.Helper()
	require.NoError(t, os.MkdirAll(h.dataDir, 0o700))
	store, err := bbolt.NewStore(filepath.Join(h.dataDir, "gourmand.db"))
	require.NoError(t, err)
	defer store.Close()
	for _, s := range sessions {
		require.NoError(t, store.SaveSession(s))
	}
	for _, r := range recipes {
		require.NoError(t, store.SaveRecipe(r))
	}
}

func sampleSession(id string, updated time.Time) *ports.Session {
	return &ports.Session{
		ID:    id,
		Model: "test-model",
		Messages: []ports.Message{
			{Role: ports.RoleUser, Content: []ports.ContentBlock{ports.TextBlock("soup ideas?")}},
			{Role: ports.RoleAssistant, Content: []ports.ContentBlock{ports.TextBlock("Lentil soup.")}},
		},
		Usage:     ports.TokenUsage{InputTokens: 30, OutputTokens: 12, TotalTokens: 42},
		Turns:     1,
		CreatedAt: updated.Add(-time.Minute),
		UpdatedAt: updated,
	}
}

func sampleRecipe(stem string) *ports.RecipeRecord {
	return &ports.RecipeRecord{
		Stem:      stem,
		Title:     "Lentil Soup",
		Details:   "# Lentil Soup\nSimmer lentils.",
		Files:     []string{"/tmp/" + stem + ".txt"},
		SessionID: "0123456789abcdef",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestVersion(t *testing.T) {
	h := newHarness(t, "")
	require.NoError(t, h.run("version"))
	assert.Contains(t, h.out.String(), "recipes dev")
}

func TestConfig_InvalidSettingsFail(t *testing.T) {
	h := newHarness(t, "")
	err := h.run("--images", "9", "config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.KeyImages)
}

func TestConfig_Table(t *testing.T) {
	h := newHarness(t, "")
	require.NoError(t, h.run("--model", "my-model", "--temperature", "0.3", "config"))
	out := h.out.String()
	assert.Contains(t, out, "my-model")
	assert.Contains(t, out, "guided (built-in)")
	assert.Contains(t, out, filepath.Join(h.dataDir, "gourmand.db"))
}

func TestConfig_JSON(t *testing.T) {
	h := newHarness(t, "")
	require.NoError(t, h.run("--top-p", "0.9", "config", "--format", "json"))

	var got resolvedConfig
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &got))
	require.NotNil(t, got.Settings.TopP)
	assert.InDelta(t, 0.9, *got.Settings.TopP, 1e-6)
	assert.Nil(t, got.Settings.Temperature)
	assert.Equal(t, h.dataDir, got.Paths.Root)
}

func TestConfig_Env(t *testing.T) {
	h := newHarness(t, "")
	t.Setenv("GOURMAND_MODEL", "env-model")
	require.NoError(t, h.run("config"))
	assert.Contains(t, h.out.String(), "env-model")
}

func TestConfig_LogLevelFromEnv(t *testing.T) {
	h := newHarness(t, "")
	t.Setenv(config.EnvLogLevel, "debug")
	require.NoError(t, h.run("config", "--format", "json"))

	var got resolvedConfig
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &got))
	assert.Equal(t, "debug", got.Settings.LogLevel)

	h = newHarness(t, "")
	require.NoError(t, h.run("--log-level", "error", "config", "--format", "json"))
	got = resolvedConfig{}
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &got))
	assert.Equal(t, "error", got.Settings.LogLevel)
}

func TestConfig_NonNumericSamplingFails(t *testing.T) {
	h := newHarness(t, "")
	err := h.run("--temperature", "hot", "config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.KeyTemperature)
}

func TestConfig_File(t *testing.T) {
	h := newHarness(t, "")
	file := filepath.Join(t.TempDir(), "conf.yaml")
	require.NoError(t, os.WriteFile(file, []byte("model: file-model\nimages: 0\n"), 0o644))

	require.NoError(t, h.run("--config", file, "config"))
	assert.Contains(t, h.out.String(), "file-model")
	assert.Contains(t, h.out.String(), "(0 per recipe)")
}

func TestConfig_MissingFile(t *testing.T) {
	h := newHarness(t, "")
	err := h.run("--config", filepath.Join(t.TempDir(), "absent.yaml"), "config")
	require.Error(t, err)
}

func TestModels(t *testing.T) {
	catalog := &fakeCatalog{models: []ports.ModelSummary{
		{ID: "amazon.nova-canvas-v1:0", Provider: "Amazon", Name: "Nova Canvas",
			InputModalities: []string{"TEXT", "IMAGE"}, OutputModalities: []string{"IMAGE"}, Lifecycle: "ACTIVE"},
		{ID: "anthropic.claude-v2", Provider: "Anthropic", Name: "Claude",
			InputModalities: []string{"TEXT"}, OutputModalities: []string{"TEXT"}, Lifecycle: "LEGACY"},
	}}

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{"table", []string{"models"}, []string{"ID", "PROVIDER", "amazon.nova-canvas-v1:0", "TEXT,IMAGE", "anthropic.claude-v2"}, nil},
		{"provider filter", []string{"models", "--provider", "anthropic"}, []string{"anthropic.claude-v2"}, []string{"nova"}},
		{"list flag", []string{"-l"}, []string{"amazon.nova-canvas-v1:0"}, nil},
		{"json", []string{"models", "--format", "json"}, []string{`"provider": "Amazon"`}, nil},
		{"no match", []string{"models", "--provider", "Meta"}, []string{"No models found."}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "")
			h.cli.newCatalog = func(context.Context, *config.Config) (ports.ModelCatalog, error) {
				return catalog, nil
			}
			require.NoError(t, h.run(tt.args...))
			for _, w := range tt.want {
				assert.Contains(t, h.out.String(), w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, h.out.String(), w)
			}
		})
	}
}

func TestModels_Errors(t *testing.T) {
	h := newHarness(t, "")
	h.cli.newCatalog = func(context.Context, *config.Config) (ports.ModelCatalog, error) {
		return &fakeCatalog{err: errors.New(errors.ErrCodeUnauthorized, "access denied")}, nil
	}
	err := h.run("models")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnauthorized, errors.CodeOf(err))

	require.Error(t, h.run("models", "--format", "xml"))
}

func TestSaved(t *testing.T) {
	h := newHarness(t, "")
	h.seed(t, nil, []*ports.RecipeRecord{sampleRecipe("lentil_soup")})

	require.NoError(t, h.run("saved", "list"))
	assert.Contains(t, h.out.String(), "STEM")
	assert.Contains(t, h.out.String(), "lentil_soup")
	assert.Contains(t, h.out.String(), "01234567")

	h.out.Reset()
	require.NoError(t, h.run("saved", "show", "lentil_soup"))
	assert.Contains(t, h.out.String(), "Simmer lentils.")
	assert.Contains(t, h.out.String(), "/tmp/lentil_soup.txt")

	h.out.Reset()
	require.NoError(t, h.run("saved", "show", "lentil_soup", "--format", "yaml"))
	assert.Contains(t, h.out.String(), "stem: lentil_soup")

	err := h.run("saved", "show", "missing")
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))

	h.out.Reset()
	require.NoError(t, h.run("saved", "delete", "lentil_soup"))
	require.NoError(t, h.run("saved", "list"))
	assert.Contains(t, h.out.String(), "No recipes yet.")
}

func TestSessions(t *testing.T) {
	h := newHarness(t, "")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h.seed(t, []*ports.Session{
		sampleSession("older", now.Add(-time.Hour)),
		sampleSession("newer", now),
	}, nil)

	require.NoError(t, h.run("sessions", "list"))
	out := h.out.String()
	assert.Contains(t, out, "TOKENS")
	assert.Less(t, strings.Index(out, "newer"), strings.Index(out, "older"))

	h.out.Reset()
	require.NoError(t, h.run("sessions", "show", "newer"))
	assert.Contains(t, h.out.String(), "user: soup ideas?")
	assert.Contains(t, h.out.String(), "assistant: Lentil soup.")
	assert.Contains(t, h.out.String(), "42 tokens")

	err := h.run("sessions", "show", "nope")
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))

	h.out.Reset()
	require.NoError(t, h.run("sessions", "delete", "older"))
	require.NoError(t, h.run("sessions", "list", "--format", "json"))
	assert.NotContains(t, h.out.String(), `"older"`)
}

func TestWipe(t *testing.T) {
	t.Run("nothing to wipe", func(t *testing.T) {
		h := newHarness(t, "")
		require.NoError(t, h.run("wipe", "--force"))
		assert.Contains(t, h.out.String(), "no data to wipe")
	})

	t.Run("declined", func(t *testing.T) {
		h := newHarness(t, "n\n")
		h.seed(t, nil, []*ports.RecipeRecord{sampleRecipe("soup")})
		require.NoError(t, h.run("wipe"))
		assert.Contains(t, h.out.String(), "cancelled")

		h.out.Reset()
		require.NoError(t, h.run("saved", "list"))
		assert.Contains(t, h.out.String(), "soup")
	})

	t.Run("confirmed", func(t *testing.T) {
		h := newHarness(t, "yes\n")
		h.seed(t, []*ports.Session{sampleSession("s1", time.Now())}, []*ports.RecipeRecord{sampleRecipe("soup")})
		require.NoError(t, h.run("wipe"))
		assert.Contains(t, h.out.String(), "data wiped")

		h.out.Reset()
		require.NoError(t, h.run("saved", "list"))
		assert.Contains(t, h.out.String(), "No recipes yet.")
	})
}

func TestFormatError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{errors.New(errors.ErrCodeLocked, "locked"), "--data-dir"},
		{errors.New(errors.ErrCodeUnauthorized, "denied"), "aws sso login"},
		{errors.New(errors.ErrCodeRateLimitExceeded, "slow down"), "--requests-per-minute"},
		{errors.New(errors.ErrCodeInvalidRequest, "bad model"), "recipes models"},
	}
	for _, tt := range tests {
		t.Run(string(errors.CodeOf(tt.err)), func(t *testing.T) {
			got := formatError(tt.err)
			assert.True(t, strings.HasPrefix(got, "error: "))
			assert.Contains(t, got, tt.want)
		})
	}
	assert.Equal(t, "error: boom", formatError(fmt.Errorf("boom")))
}
