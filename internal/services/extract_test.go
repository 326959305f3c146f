package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/pagelens/pagelens-backend/internal/apperr"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>测试文章</title><style>p { color: red }</style></head>
<body>
<nav>首页 / 文章</nav>
<article>
<h1>标题一</h1>
<p>第一段内容。</p>
<script>console.log("noise")</script>
<p>第二段内容。</p>
</article>
<footer>版权信息</footer>
</body>
</html>`

func TestExtractFetchesArticleText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	page, err := NewExtractService().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "测试文章", page.Title)
	assert.Equal(t, srv.URL, page.URL)
	assert.Contains(t, page.Text, "标题一")
	assert.Contains(t, page.Text, "第一段内容。")
	assert.Contains(t, page.Text, "第二段内容。")
	assert.NotContains(t, page.Text, "console.log")
	assert.NotContains(t, page.Text, "版权信息")
}

func TestExtractRejectsNonHTTPSchemes(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "chrome://settings", "not a url at all://"} {
		_, err := NewExtractService().Fetch(context.Background(), raw)
		require.Error(t, err, raw)
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err), raw)
	}
}

func TestExtractMapsUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewExtractService().Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, apperr.KindHTTPFailure, apperr.KindOf(err))
}

func TestExtractEmptyBodyIsInternalFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>空页面</title></head><body></body></html>`))
	}))
	defer srv.Close()

	_, err := NewExtractService().Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternalFault, apperr.KindOf(err))
}
