package translate

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bilgisen/newsflow/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

var (
	ErrNotConfigured = errors.New("translator is not configured")
	ErrShortResponse = errors.New("translator returned fewer documents than requested")
)

// APIError is a structured error returned by the translator service
type APIError struct {
	Status  int
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("translator error %d (status %d): %s", e.Code, e.Status, e.Message)
}

type requestDoc struct {
	Text string `json:"text"`
}

type responseDoc struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

// Client calls the Azure Translator v3 REST API
type Client struct {
	client   *resty.Client
	endpoint string
	key      string
	region   string
	from     string
}

func NewClient(endpoint, key, region, from string, timeout time.Duration) *Client {
	return &Client{
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(2).
			SetRetryWaitTime(time.Second),
		endpoint: strings.TrimRight(endpoint, "/"),
		key:      key,
		region:   region,
		from:     from,
	}
}

// Translate translates each text into every target language.
// The result is indexed like texts and keyed by language code.
func (c *Client) Translate(ctx context.Context, texts []string, targets []string) ([]map[string]string, error) {
	if c.key == "" {
		return nil, ErrNotConfigured
	}
	if len(texts) == 0 || len(targets) == 0 {
		return make([]map[string]string, len(texts)), nil
	}

	params := url.Values{}
	params.Set("api-version", "3.0")
	params.Set("from", c.from)
	for _, lang := range targets {
		params.Add("to", lang)
	}

	body := make([]requestDoc, len(texts))
	for i, t := range texts {
		body[i] = requestDoc{Text: t}
	}

	var docs []responseDoc
	var apiErr errorEnvelope
	req := c.client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		SetHeader("Ocp-Apim-Subscription-Key", c.key).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-ClientTraceId", uuid.NewString()).
		SetBody(body).
		SetResult(&docs).
		SetError(&apiErr)
	if c.region != "" {
		req.SetHeader("Ocp-Apim-Subscription-Region", c.region)
	}

	resp, err := req.Post(c.endpoint + "/translate")
	if err != nil {
		return nil, fmt.Errorf("translate request failed: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error != nil {
			apiErr.Error.Status = resp.StatusCode()
			return nil, apiErr.Error
		}
		return nil, &APIError{Status: resp.StatusCode(), Message: resp.Status()}
	}
	if len(docs) < len(texts) {
		return nil, ErrShortResponse
	}

	out := make([]map[string]string, len(texts))
	for i := range texts {
		out[i] = make(map[string]string, len(docs[i].Translations))
		for _, tr := range docs[i].Translations {
			out[i][tr.To] = tr.Text
		}
	}
	return out, nil
}

// TranslateItem translates a title and summary pair. The source language entry
// is always present in the result, even when err is non-nil.
func (c *Client) TranslateItem(ctx context.Context, title, summary string, targets []string) (map[string]models.Translation, error) {
	result := map[string]models.Translation{
		c.from: {Title: title, Summary: summary},
	}

	langs := make([]string, 0, len(targets))
	for _, lang := range targets {
		if lang != c.from {
			langs = append(langs, lang)
		}
	}
	if len(langs) == 0 {
		return result, nil
	}

	docs, err := c.Translate(ctx, []string{title, summary}, langs)
	if err != nil {
		return result, err
	}
	for _, lang := range langs {
		result[lang] = models.Translation{
			Title:   docs[0][lang],
			Summary: docs[1][lang],
		}
	}
	return result, nil
}

// Source returns the source language code.
func (c *Client) Source() string {
	return c.from
}
