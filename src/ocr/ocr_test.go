package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screen-capture-ocr/src/llm"
	"screen-capture-ocr/src/pixelformat"
)

func TestNewRejectsUnknownEngine(t *testing.T) {
	_, err := New(context.Background(), Options{Engine: "abacus"})
	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "abacus", initErr.Engine)
}

func TestNewLLMRequiresKey(t *testing.T) {
	_, err := New(context.Background(), Options{Engine: EngineLLM, LLM: llm.Config{Model: "m"}})
	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)
}

func TestNewLLMFailsWhenPingFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(context.Background(), Options{Engine: EngineLLM, LLM: llm.Config{APIKey: "k", Model: "m", BaseURL: srv.URL}})
	var initErr *InitError
	assert.ErrorAs(t, err, &initErr)
}

func TestLLMRecognizerSendsPNG(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/key") {
			return
		}
		var req llm.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		url := req.Messages[0].Content[1].ImageURL.URL
		raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
		require.NoError(t, err)
		img, err := png.Decode(strings.NewReader(string(raw)))
		require.NoError(t, err)
		assert.Equal(t, 2, img.Bounds().Dx())

		_ = json.NewEncoder(w).Encode(llm.ChatResponse{Choices: []llm.Choice{{Message: llm.ResponseMessage{Content: "42"}}}})
	}))
	defer srv.Close()

	rec, err := New(context.Background(), Options{Engine: EngineLLM, LLM: llm.Config{APIKey: "k", Model: "m", BaseURL: srv.URL}})
	require.NoError(t, err)
	defer rec.Close()

	img, err := pixelformat.NewCanonicalImage(2, 1, []byte{0, 0, 0, 255, 255, 255})
	require.NoError(t, err)
	text, err := rec.Recognize(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, "42", text)
}
