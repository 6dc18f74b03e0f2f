package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bilgisen/newsflow/internal/models"
	"github.com/bilgisen/newsflow/internal/utils"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const elasticMapping = `{
  "mappings": {
    "properties": {
      "id":           {"type": "keyword"},
      "link":         {"type": "keyword"},
      "category":     {"type": "keyword"},
      "sub_category": {"type": "keyword"},
      "source":       {"type": "keyword"},
      "trust_grade":  {"type": "keyword"},
      "title":        {"type": "text"},
      "summary":      {"type": "text"},
      "content":      {"type": "text"},
      "published_at": {"type": "date"},
      "created_at":   {"type": "date"},
      "translations": {"type": "object", "enabled": false}
    }
  }
}`

// ElasticStore indexes one document per item. Documents are keyed by the link
// hash so a second item with the same link is rejected by the create op type.
type ElasticStore struct {
	es    *elasticsearch.Client
	index string
}

func NewElasticStore(ctx context.Context, addr, index string) (*ElasticStore, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	s := &ElasticStore{es: es, index: index}
	if err := s.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ElasticStore) ensureIndex(ctx context.Context) error {
	res, err := s.es.Indices.Exists([]string{s.index}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = s.es.Indices.Create(s.index,
		s.es.Indices.Create.WithContext(ctx),
		s.es.Indices.Create.WithBody(strings.NewReader(elasticMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res)
	}
	return nil
}

func (s *ElasticStore) SaveNews(ctx context.Context, item *models.NewsItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal doc: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: utils.Hash(item.Link),
		Body:       bytes.NewReader(payload),
		OpType:     "create",
		Refresh:    "wait_for",
	}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return fmt.Errorf("index doc: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusConflict {
		return ErrDuplicate
	}
	if res.IsError() {
		return responseError("index doc", res)
	}
	return nil
}

func (s *ElasticStore) GetNewsByID(ctx context.Context, id string) (*models.NewsItem, error) {
	hit, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &hit.Source, nil
}

type elasticHit struct {
	DocID  string          `json:"_id"`
	Source models.NewsItem `json:"_source"`
}

// findByID looks an item up by its id field, since document ids are link hashes
func (s *ElasticStore) findByID(ctx context.Context, id string) (*elasticHit, error) {
	hits, _, err := s.query(ctx, buildIDBody(id))
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, ErrNotFound
	}
	return &hits[0], nil
}

func (s *ElasticStore) ListNews(ctx context.Context, filter Filter, page, pageSize int) ([]*models.NewsItem, int, error) {
	return s.search(ctx, buildListBody(filter, page, pageSize))
}

func (s *ElasticStore) SearchNews(ctx context.Context, query string, limit int) ([]*models.NewsItem, error) {
	items, _, err := s.search(ctx, buildSearchBody(query, limit))
	return items, err
}

func (s *ElasticStore) DeleteNews(ctx context.Context, id string) error {
	hit, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}

	res, err := s.es.Delete(s.index, hit.DocID, s.es.Delete.WithContext(ctx), s.es.Delete.WithRefresh("wait_for"))
	if err != nil {
		return fmt.Errorf("delete doc: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.IsError() {
		return responseError("delete doc", res)
	}
	return nil
}

func (s *ElasticStore) Close() error {
	return nil
}

func (s *ElasticStore) search(ctx context.Context, body map[string]any) ([]*models.NewsItem, int, error) {
	hits, total, err := s.query(ctx, body)
	if err != nil {
		return nil, 0, err
	}
	items := make([]*models.NewsItem, 0, len(hits))
	for i := range hits {
		items = append(items, &hits[i].Source)
	}
	return items, total, nil
}

func (s *ElasticStore) query(ctx context.Context, body map[string]any) ([]elasticHit, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal search body: %w", err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, responseError("search", res)
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []elasticHit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("decode search response: %w", err)
	}
	return parsed.Hits.Hits, parsed.Hits.Total.Value, nil
}

var newestFirst = []map[string]any{
	{"published_at": map[string]any{"order": "desc", "missing": "_last"}},
	{"created_at": map[string]any{"order": "desc"}},
}

func buildListBody(filter Filter, page, pageSize int) map[string]any {
	page, pageSize = Normalize(page, pageSize)

	filters := make([]map[string]any, 0, 4)
	term := func(field, value string) {
		if value != "" {
			filters = append(filters, map[string]any{"term": map[string]any{field: value}})
		}
	}
	term("category", filter.Category)
	term("sub_category", filter.SubCategory)
	term("source", filter.Source)
	term("trust_grade", string(filter.Grade))

	boolQuery := map[string]any{}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	} else {
		boolQuery["must"] = []map[string]any{{"match_all": map[string]any{}}}
	}

	return map[string]any{
		"from":             (page - 1) * pageSize,
		"size":             pageSize,
		"track_total_hits": true,
		"query":            map[string]any{"bool": boolQuery},
		"sort":             newestFirst,
	}
}

func buildIDBody(id string) map[string]any {
	return map[string]any{
		"size":  1,
		"query": map[string]any{"term": map[string]any{"id": id}},
	}
}

func buildSearchBody(query string, limit int) map[string]any {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return map[string]any{
		"size": limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  strings.TrimSpace(query),
				"fields": []string{"title^2", "summary", "content", "source"},
			},
		},
	}
}

func responseError(op string, res *esapi.Response) error {
	data, _ := io.ReadAll(res.Body)
	return fmt.Errorf("%s failed: %s: %s", op, res.Status(), strings.TrimSpace(string(data)))
}
