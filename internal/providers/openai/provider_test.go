package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/pagelens/pagelens-backend/internal/apperr"
	"github.com/pagelens/pagelens-backend/internal/providers"
)

func TestNewProviderRejectsBlankInput(t *testing.T) {
	_, err := NewProvider("", "sk-test", "gpt-4o")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = NewProvider("https://api.openai.com", "  ", "gpt-4o")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestListModelsSorted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{
				{"id": "gpt-4o"},
				{"id": "gpt-4.1-mini"},
				{"id": "  "},
			},
		})
	}))
	defer srv.Close()

	p, err := NewProvider(srv.URL, "sk-test", "")
	require.NoError(t, err)

	ids, err := p.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4.1-mini", "gpt-4o"}, ids)
}

func TestListModelsEmptyIsInternalFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []map[string]string{{"id": ""}}})
	}))
	defer srv.Close()

	p, err := NewProvider(srv.URL, "sk-test", "")
	require.NoError(t, err)

	_, err = p.ListModels(context.Background())
	assert.Equal(t, apperr.KindInternalFault, apperr.KindOf(err))
}

func TestSummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.InDelta(t, 0.3, req["temperature"], 0.001)
		assert.NotEqual(t, true, req["stream"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"role": "assistant", "content": "  这是总结。  "}},
			},
		})
	}))
	defer srv.Close()

	p, err := NewProvider(srv.URL, "sk-test", "gpt-4o")
	require.NoError(t, err)

	var streamed string
	sum, err := p.Summarize(context.Background(), providers.SummaryRequest{
		System:  "system",
		User:    "user",
		OnDelta: func(d string) { streamed += d },
	})
	require.NoError(t, err)
	assert.Equal(t, "这是总结。", sum.Text)
	assert.Equal(t, "gpt-4o", sum.ModelLabel)
	assert.Equal(t, "这是总结。", streamed)
}

func TestSummarizeUnauthorizedIsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"message": "Incorrect API key", "type": "invalid_request_error"},
		})
	}))
	defer srv.Close()

	p, err := NewProvider(srv.URL, "sk-bad", "gpt-4o")
	require.NoError(t, err)

	_, err = p.Summarize(context.Background(), providers.SummaryRequest{System: "s", User: "u"})
	require.Error(t, err)

	// A key-based provider has no session to expire: a 401 stays an
	// HTTP failure with the credential message.
	assert.Equal(t, apperr.KindHTTPFailure, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "API Key")
}

func TestSummarizeEmptyContentIsInternalFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"role": "assistant", "content": "   "}},
			},
		})
	}))
	defer srv.Close()

	p, err := NewProvider(srv.URL, "sk-test", "gpt-4o")
	require.NoError(t, err)

	_, err = p.Summarize(context.Background(), providers.SummaryRequest{System: "s", User: "u"})
	assert.Equal(t, apperr.KindInternalFault, apperr.KindOf(err))
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "https://api.openai.com/v1", normalizeBaseURL("https://api.openai.com"))
	assert.Equal(t, "https://api.openai.com/v1", normalizeBaseURL("https://api.openai.com/"))
	assert.Equal(t, "https://api.openai.com/v1", normalizeBaseURL("https://api.openai.com/v1"))
}
