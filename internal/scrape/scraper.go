package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/bilgisen/newsflow/internal/utils"
	"github.com/go-resty/resty/v2"
	"github.com/go-shiori/go-readability"
)

// ErrNoBody is returned when a page has no usable article text
var ErrNoBody = errors.New("no article body found")

// minBodyRunes is the shortest text accepted as an article body
const minBodyRunes = 50

var bodySelectors = []string{
	"article",
	"#articleBodyContents",
	"#article_body",
	".article_body",
	"#dic_area",
}

type Scraper struct {
	client   *resty.Client
	maxRunes int
}

func NewScraper(timeout time.Duration, userAgent string, maxRunes int) *Scraper {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(1).
		SetHeader("Accept", "text/html,application/xhtml+xml")
	if userAgent != "" {
		client.SetHeader("User-Agent", userAgent)
	}
	return &Scraper{client: client, maxRunes: maxRunes}
}

// Scrape downloads pageURL and extracts its article body.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (string, error) {
	resp, err := s.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return "", fmt.Errorf("unexpected status code %d from %s", resp.StatusCode(), pageURL)
	}
	return s.Extract(resp.Body(), pageURL)
}

// Extract finds the article body in an already downloaded page.
func (s *Scraper) Extract(page []byte, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}

	body := SelectBody(doc)
	if body == "" {
		body = readable(page, pageURL)
	}
	if body == "" {
		return "", ErrNoBody
	}
	return utils.Truncate(body, s.maxRunes), nil
}

// SelectBody walks the known article containers and returns the first usable text.
func SelectBody(doc *goquery.Document) string {
	for _, sel := range bodySelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if text := joinTexts(node.Find("p")); usable(text) {
			return text
		}
		if text := joinTexts(node.Find("div")); usable(text) {
			return text
		}
		if text := strings.TrimSpace(node.Text()); usable(text) {
			return utils.CollapseSpace(text)
		}
	}
	return ""
}

func joinTexts(sel *goquery.Selection) string {
	parts := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		if s.Children().Filter("div, p").Length() > 0 {
			return
		}
		if t := utils.CollapseSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n")
}

func usable(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) > minBodyRunes
}

func readable(page []byte, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(page), u)
	if err != nil {
		return ""
	}
	text := strings.TrimSpace(article.TextContent)
	if !usable(text) {
		return ""
	}
	return text
}
