package parser

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ankurtiwari12/rjd-parser/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecognizeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ner", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req nerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Kubernetes experience at Google", req.Text)
		assert.Equal(t, "en_core_web_sm", req.Model)

		resp := nerResponse{Entities: []types.Entity{
			{Text: "Kubernetes", Label: "PRODUCT"},
			{Text: "Google", Label: "ORG"},
		}}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := NewNERClient(server.URL)
	entities, err := client.Recognize(context.Background(), "Kubernetes experience at Google")
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "Kubernetes", entities[0].Text)
	assert.Equal(t, "PRODUCT", entities[0].Label)
	assert.Equal(t, "ORG", entities[1].Label)
}

func TestRecognizeCustomModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req nerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "en_core_web_trf", req.Model)
		require.NoError(t, json.NewEncoder(w).Encode(nerResponse{}))
	}))
	defer server.Close()

	client := NewNERClient(server.URL, WithNERModel("en_core_web_trf"))
	_, err := client.Recognize(context.Background(), "some text")
	require.NoError(t, err)
}

func TestRecognizeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewNERClient(server.URL)
	_, err := client.Recognize(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNERUnavailable)
}

func TestRecognizeAPILevelError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(nerResponse{Error: "model not loaded"}))
	}))
	defer server.Close()

	client := NewNERClient(server.URL)
	_, err := client.Recognize(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNERUnavailable)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestRecognizeConnectionRefused(t *testing.T) {
	// 端口未监听，连接应失败
	client := NewNERClient("http://127.0.0.1:1", WithNERTimeout(500*time.Millisecond))
	_, err := client.Recognize(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNERUnavailable)
}
