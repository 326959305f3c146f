package services

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/pagelens/pagelens-backend/internal/apperr"
	"github.com/pagelens/pagelens-backend/internal/models"
	"github.com/pagelens/pagelens-backend/internal/providers/webchat"
)

// extractUserAgent is a desktop UA; several sites serve stripped-down
// or interstitial pages to unknown clients.
const extractUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

const extractTimeout = 30 * time.Second

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// ExtractService is the server-side fallback extractor for pages the
// extension's content script cannot reach.
type ExtractService struct {
	httpc *http.Client
	log   *logrus.Entry
}

func NewExtractService() *ExtractService {
	return &ExtractService{
		httpc: &http.Client{Timeout: extractTimeout},
		log:   logrus.WithField("service", "extract"),
	}
}

// Fetch downloads the page and reduces it to a PageContent snapshot.
func (s *ExtractService) Fetch(ctx context.Context, rawURL string) (models.PageContent, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return models.PageContent{}, apperr.New(apperr.KindInvalidInput, "无效的页面链接")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return models.PageContent{}, apperr.Wrap(apperr.KindInternalFault, "构造请求失败", err)
	}
	req.Header.Set("User-Agent", extractUserAgent)

	resp, err := s.httpc.Do(req)
	if err != nil {
		return models.PageContent{}, webchat.MapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.PageContent{}, apperr.FromStatus(resp.StatusCode, "")
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return models.PageContent{}, apperr.Wrap(apperr.KindInternalFault, "解析页面失败", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = u.Host
	}

	doc.Find("script, style, noscript, iframe, nav, footer, header, aside").Remove()

	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("main").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var lines []string
	root.Find("h1, h2, h3, h4, h5, h6, p, li, pre, blockquote, td").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	text := strings.Join(lines, "\n")
	if strings.TrimSpace(text) == "" {
		text = strings.TrimSpace(root.Text())
	}
	text = blankRunRe.ReplaceAllString(text, "\n\n")

	if text == "" {
		return models.PageContent{}, apperr.New(apperr.KindInternalFault, "页面没有可提取的正文")
	}

	s.log.WithFields(logrus.Fields{"url": u.String(), "chars": len(text)}).Debug("page extracted")
	return models.NewPageContent(title, u.String(), text), nil
}
