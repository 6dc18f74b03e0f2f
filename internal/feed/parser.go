package feed

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/bilgisen/newsflow/internal/models"
	"github.com/bilgisen/newsflow/internal/utils"
	"github.com/mmcdole/gofeed/rss"
	"golang.org/x/net/html"
)

// Parser turns an RSS search document into feed items
type Parser struct {
	rss *rss.Parser
}

func NewParser() *Parser {
	return &Parser{rss: &rss.Parser{}}
}

// Parse decodes data and tags every entry with the category pair.
func (p *Parser) Parse(data []byte, category, subCategory string) ([]models.FeedItem, error) {
	doc, err := p.rss.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]models.FeedItem, 0, len(doc.Items))
	for _, entry := range doc.Items {
		if entry == nil {
			continue
		}
		item := models.FeedItem{
			Title:       strings.TrimSpace(entry.Title),
			Link:        strings.TrimSpace(entry.Link),
			Category:    category,
			SubCategory: subCategory,
		}
		if entry.GUID != nil {
			item.Guid = strings.TrimSpace(entry.GUID.Value)
		}
		if item.Guid == "" {
			item.Guid = item.Link
		}
		if entry.Source != nil {
			item.Source = strings.TrimSpace(entry.Source.Title)
			item.SourceURL = strings.TrimSpace(entry.Source.URL)
		}
		if entry.PubDateParsed != nil {
			item.PublishedAt = entry.PubDateParsed.UTC()
		} else if t, err := time.Parse(time.RFC1123Z, strings.TrimSpace(entry.PubDate)); err == nil {
			item.PublishedAt = t.UTC()
		}
		item.Title = StripSourceSuffix(item.Title, item.Source)
		item.Snippet = HTMLText(entry.Description)
		items = append(items, item)
	}
	return items, nil
}

// StripSourceSuffix removes the trailing " - <source>" the search feed appends to titles.
func StripSourceSuffix(title, source string) string {
	if source == "" {
		return title
	}
	suffix := " - " + source
	if strings.HasSuffix(title, suffix) {
		return strings.TrimSpace(strings.TrimSuffix(title, suffix))
	}
	return title
}

// HTMLText extracts the visible text of an HTML fragment.
func HTMLText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return utils.CollapseSpace(fragment)
	}

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return utils.CollapseSpace(sb.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if tag := string(name); (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
			sb.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		}
	}
}
