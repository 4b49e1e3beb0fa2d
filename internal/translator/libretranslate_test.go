package translator

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/lingolink/internal/remote"
)

func newTestLibre(server *httptest.Server) *LibreTranslateService {
	svc := NewLibreTranslateService(ServiceConfig{Endpoint: server.URL + "/translate"})
	svc.SetClient(server.Client())
	return svc
}

func TestLibreTranslateService_Translate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/translate", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "Hello & goodbye", r.PostForm.Get("q"))
		assert.Equal(t, "en", r.PostForm.Get("source"))
		assert.Equal(t, "uk", r.PostForm.Get("target"))
		assert.Len(t, r.PostForm, 3)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"translatedText":"Привіт і бувай "}`))
	}))
	defer server.Close()

	result, err := newTestLibre(server).Translate(context.Background(), TranslateRequest{
		Text:       "Hello & goodbye",
		SourceLang: "en",
		TargetLang: "uk",
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Привіт і бувай ", result.TranslatedText)
	assert.Equal(t, "libretranslate", result.ServiceName)
	assert.Empty(t, result.Error)
	assert.Equal(t, "uk", result.Metadata["target"])
}

func TestLibreTranslateService_Translate_Defaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "", r.PostForm.Get("q"))
		assert.Equal(t, DefaultSourceLang, r.PostForm.Get("source"))
		assert.Equal(t, DefaultTargetLang, r.PostForm.Get("target"))
		w.Write([]byte(`{"translatedText":""}`))
	}))
	defer server.Close()

	result, err := newTestLibre(server).Translate(context.Background(), TranslateRequest{})

	require.NoError(t, err)
	assert.Equal(t, "", result.TranslatedText)
}

func TestLibreTranslateService_Translate_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	svc := newTestLibre(server)

	result, err := svc.Translate(context.Background(), TranslateRequest{Text: "Hello"})
	require.Error(t, err)
	assert.True(t, remote.IsDecode(err))
	assert.NotEmpty(t, result.Error)

	text, ok, err := svc.TranslateOrNil(context.Background(), TranslateRequest{Text: "Hello"})
	assert.True(t, remote.IsDecode(err), "decode errors must not degrade to an absent result")
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestLibreTranslateService_Translate_MissingField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"nope"}`))
	}))
	defer server.Close()

	_, err := newTestLibre(server).Translate(context.Background(), TranslateRequest{Text: "Hello"})

	var de *remote.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "translatedText", de.Field)
}

func TestLibreTranslateService_Translate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Invalid request: missing q parameter"}`))
	}))
	defer server.Close()

	result, err := newTestLibre(server).Translate(context.Background(), TranslateRequest{Text: "Hello"})

	require.Error(t, err)
	assert.True(t, remote.IsTransport(err))
	require.NotNil(t, result)
	assert.Contains(t, result.Error, "400")
}

func TestLibreTranslateService_TranslateOrNil_Unreachable(t *testing.T) {
	var buf bytes.Buffer

	svc := NewLibreTranslateService(ServiceConfig{
		Endpoint: "http://127.0.0.1:1/translate",
		Timeout:  200 * time.Millisecond,
	})
	svc.SetLogger(log.New(&buf, "", 0))

	text, ok, err := svc.TranslateOrNil(context.Background(), TranslateRequest{Text: "Hello"})

	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, text)
	assert.Contains(t, buf.String(), "127.0.0.1:1")
}

func TestLibreTranslateService_TranslateOrNil_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"translatedText":"Hola"}`))
	}))
	defer server.Close()

	text, ok, err := newTestLibre(server).TranslateOrNil(context.Background(), TranslateRequest{Text: "Hello"})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Hola", text)
}

func TestLibreTranslateService_Hypotheses(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"translatedText":"Hola mundo"}`))
	}))
	defer server.Close()

	svc := newTestLibre(server)

	single, err := svc.Translate(context.Background(), TranslateRequest{Text: "Hello world"})
	require.NoError(t, err)

	hyp, err := svc.Hypotheses(context.Background(), "Hello world", 1)
	require.NoError(t, err)
	assert.Equal(t, single.TranslatedText, hyp)

	before := calls.Load()
	_, err = svc.Hypotheses(context.Background(), "Hello world", 2)
	assert.ErrorIs(t, err, remote.ErrUsage)
	assert.Equal(t, before, calls.Load(), "unsupported n must not reach the network")

	_, err = svc.Hypotheses(context.Background(), "Hello world", 0)
	assert.ErrorIs(t, err, remote.ErrUsage)
}

func TestLibreTranslateService_Call(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "Hello", r.PostForm.Get("q"))
		assert.Equal(t, "auto", r.PostForm.Get("source"))
		assert.Equal(t, DefaultTargetLang, r.PostForm.Get("target"))
		w.Write([]byte(`{"translatedText":"Hola","detectedLanguage":{"confidence":90,"language":"en"}}`))
	}))
	defer server.Close()

	var caller remote.Caller = newTestLibre(server)
	out, err := caller.Call(context.Background(), map[string]any{"q": "Hello", "source": "auto"})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"translatedText":   "Hola",
		"detectedLanguage": map[string]any{"confidence": float64(90), "language": "en"},
	}, out)
}

func TestLibreTranslateService_SupportedLanguages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/languages", r.URL.Path)
		w.Write([]byte(`[{"code":"en","name":"English","targets":["es"]},{"code":"es","name":"Spanish","targets":["en"]}]`))
	}))
	defer server.Close()

	svc := newTestLibre(server)

	langs, err := svc.SupportedLanguages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "es"}, langs)

	assert.NoError(t, svc.IsAvailable(context.Background()))
}

func TestLibreTranslateService_IsAvailable_NotRunning(t *testing.T) {
	svc := NewLibreTranslateService(ServiceConfig{
		Endpoint: "http://127.0.0.1:1/translate",
		Timeout:  100 * time.Millisecond,
	})

	assert.Error(t, svc.IsAvailable(context.Background()))
}

func TestLibreTranslateService_Name(t *testing.T) {
	svc := NewLibreTranslateService(ServiceConfig{})

	assert.Equal(t, "libretranslate", svc.Name())
	assert.Equal(t, DefaultLibreTranslateEndpoint, svc.Endpoint())
}

func TestSiblingURL(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"https://translate.astian.org/translate", "https://translate.astian.org/languages"},
		{"https://example.com/api/translate/", "https://example.com/api/languages"},
		{"http://localhost:5000", "http://localhost:5000/languages"},
		{"http://localhost:5000/translate?api_key=x", "http://localhost:5000/languages"},
	}

	for _, tt := range tests {
		got, err := siblingURL(tt.endpoint, "languages")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.endpoint)
	}
}
