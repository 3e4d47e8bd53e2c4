package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes rootCmd with args and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	testChdir(t, t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	t.Cleanup(func() {
		storeFlag, sqlPath, seedFile, seedBucket, seedIfEmpty, evalFile = "", "", "", "", false, ""
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestSeedAndListBuiltInCatalogue(t *testing.T) {
	db := filepath.Join(t.TempDir(), "legalease.db")

	out, err := run(t, "", "seed", "--store", "sqlite", "--sqlite-path", db)
	require.NoError(t, err)
	assert.Contains(t, out, "from built-in catalogue")

	out, err = run(t, "", "records", "--store", "sqlite", "--sqlite-path", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Acid Attack")
	assert.Contains(t, out, "CATEGORY")
}

func TestSeedIfEmptySkipsPopulatedStore(t *testing.T) {
	db := filepath.Join(t.TempDir(), "legalease.db")

	_, err := run(t, "", "seed", "--store", "sqlite", "--sqlite-path", db)
	require.NoError(t, err)

	out, err := run(t, "", "seed", "--if-empty", "--store", "sqlite", "--sqlite-path", db)
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to do")
}

func newAskServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Question string `json:"question"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		w.Header().Set("Content-Type", "application/json")
		if strings.TrimSpace(req.Question) == "fail" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"A valid question is required."}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"answer":  "echo: " + req.Question,
			"context": "Category: Theft",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAskOneShot(t *testing.T) {
	srv := newAskServer(t)

	out, err := run(t, "", "ask", "--server", srv.URL, "what", "is", "theft")
	require.NoError(t, err)
	assert.Contains(t, out, "echo: what is theft")
	assert.Contains(t, out, "Category: Theft")
}

func TestAskInteractive(t *testing.T) {
	srv := newAskServer(t)

	out, err := run(t, "first\nfail\nexit\nnever\n", "ask", "--server", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "echo: first")
	assert.Contains(t, out, "Error: A valid question is required.")
	assert.NotContains(t, out, "never")
}

func TestEvalReportsAccuracy(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "legalease.db")
	dataset := filepath.Join(dir, "eval.json")
	require.NoError(t, os.WriteFile(dataset, []byte(`{"items":[{"question":"acid","expectedCategory":"Acid Attack"}]}`), 0o644))

	_, err := run(t, "", "seed", "--store", "sqlite", "--sqlite-path", db)
	require.NoError(t, err)

	out, err := run(t, "", "eval", "--file", dataset, "--store", "sqlite", "--sqlite-path", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Correct: 1 (100.0%)")
}
