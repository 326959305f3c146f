package kimi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"

	"github.com/tidwall/gjson"
	"github.com/pagelens/pagelens-backend/internal/apperr"
	"github.com/pagelens/pagelens-backend/internal/models"
	"github.com/pagelens/pagelens-backend/internal/providers/webchat"
)

// fileFirstPatterns match URLs whose content survives a file upload
// better than inlined text: PDF links, known video hosts, preprints.
var fileFirstPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\.pdf($|[?#])`),
	regexp.MustCompile(`(?i)^https?://(www\.)?arxiv\.org/`),
	regexp.MustCompile(`(?i)^https?://(www\.)?(youtube\.com/watch|youtu\.be/)`),
	regexp.MustCompile(`(?i)^https?://(www\.)?bilibili\.com/video/`),
}

func isFileFirstURL(url string) bool {
	for _, re := range fileFirstPatterns {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

var fileIDKeys = []string{"id", "file_id", "fileId"}

// uploadPage posts the page as a Markdown file and returns the file id.
func (p *Provider) uploadPage(ctx context.Context, page models.PageContent) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "page.md")
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternalFault, "构造上传内容失败", err)
	}
	if _, err := io.WriteString(part, pageMarkdown(page)); err != nil {
		return "", apperr.Wrap(apperr.KindInternalFault, "构造上传内容失败", err)
	}
	if err := writer.WriteField("name", "page.md"); err != nil {
		return "", apperr.Wrap(apperr.KindInternalFault, "构造上传内容失败", err)
	}
	if err := writer.Close(); err != nil {
		return "", apperr.Wrap(apperr.KindInternalFault, "构造上传内容失败", err)
	}
	body := buf.Bytes()

	resp, err := p.client.RequestWithAuth(ctx, func(access string) (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, p.client.BaseURL()+"/file/upload", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return req, nil
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", webchat.MapTransportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperr.FromStatus(resp.StatusCode, "")
	}

	id := webchat.FirstNonEmpty(gjson.ParseBytes(raw), fileIDKeys, "data")
	if id == "" {
		return "", apperr.New(apperr.KindInternalFault, "无法从响应中解析文件 ID")
	}
	return id, nil
}

// parseFile asks the backend to parse the uploaded file so it can be
// referenced from a message.
func (p *Provider) parseFile(ctx context.Context, fileID string) error {
	payload, err := json.Marshal(map[string]interface{}{"ids": []string{fileID}})
	if err != nil {
		return apperr.Wrap(apperr.KindInternalFault, "序列化请求失败", err)
	}

	resp, err := p.client.RequestWithAuth(ctx, func(access string) (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, p.client.BaseURL()+"/file/parse_process", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.FromStatus(resp.StatusCode, "")
	}
	// The parse endpoint streams progress; consuming the body is
	// enough, the file becomes referenceable when it closes.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	return nil
}

func pageMarkdown(page models.PageContent) string {
	return "# " + page.Title + "\n\n" + page.URL + "\n\n" + page.Text + "\n"
}
