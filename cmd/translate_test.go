package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/lingolink/internal/store"
	"github.com/valpere/lingolink/internal/translator"
)

// runTranslate executes the translate command through rootCmd. Flag variables
// outlive a single Execute, so they are reset before and after each run.
func runTranslate(t *testing.T, args ...string) (string, error) {
	t.Helper()

	reset := func() {
		inputFile, outputFile = "", ""
		sourceLang, targetLang = translator.DefaultSourceLang, translator.DefaultTargetLang
		detectLocal, rawOutput, noCache = false, false, false
	}
	reset()
	t.Cleanup(func() {
		reset()
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"translate"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func newCountingServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "Hello", r.PostForm.Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"translatedText":"Hola"}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestTranslateCmd_CachesResult(t *testing.T) {
	var calls atomic.Int32
	server := newCountingServer(t, &calls)
	dbPath := filepath.Join(t.TempDir(), "memory.db")

	args := []string{
		"--service", "libretranslate",
		"--endpoint", server.URL + "/translate",
		"--db", dbPath,
		"-s", "en", "-t", "es",
		"Hello",
	}

	out, err := runTranslate(t, args...)
	require.NoError(t, err)
	assert.Equal(t, "Hola\n", out)
	assert.Equal(t, int32(1), calls.Load())

	db, err := store.New(dbPath)
	require.NoError(t, err)
	entries, err := db.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Hello", entries[0].SourceText)
	assert.Equal(t, "Hola", entries[0].TranslatedText)
	assert.Equal(t, "libretranslate", entries[0].Service)
	require.NoError(t, db.Close())

	out, err = runTranslate(t, args...)
	require.NoError(t, err)
	assert.Equal(t, "Hola\n", out)
	assert.Equal(t, int32(1), calls.Load(), "second run must be served from the translation memory")
}

func TestTranslateCmd_NoCache(t *testing.T) {
	var calls atomic.Int32
	server := newCountingServer(t, &calls)
	dbPath := filepath.Join(t.TempDir(), "memory.db")

	args := []string{
		"--service", "libretranslate",
		"--endpoint", server.URL + "/translate",
		"--db", dbPath,
		"--no-cache",
		"Hello",
	}

	for i := 0; i < 2; i++ {
		out, err := runTranslate(t, args...)
		require.NoError(t, err)
		assert.Equal(t, "Hola\n", out)
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestTranslateCmd_Raw(t *testing.T) {
	var calls atomic.Int32
	server := newCountingServer(t, &calls)

	out, err := runTranslate(t,
		"--service", "libretranslate",
		"--endpoint", server.URL+"/translate",
		"--db", "",
		"--raw",
		"Hello",
	)
	require.NoError(t, err)
	assert.JSONEq(t, `{"translatedText":"Hola"}`, out)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTranslateCmd_InvalidTarget(t *testing.T) {
	var calls atomic.Int32
	server := newCountingServer(t, &calls)

	_, err := runTranslate(t,
		"--service", "libretranslate",
		"--endpoint", server.URL+"/translate",
		"--db", "",
		"-t", "not a language",
		"Hello",
	)
	assert.Error(t, err)
	assert.Equal(t, int32(0), calls.Load())
}
