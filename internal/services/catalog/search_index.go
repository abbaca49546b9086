package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"infotec-chatbot/internal/models"
)

const productIndex = "products"

// SearchIndex runs free-text product search against Elasticsearch.
type SearchIndex struct {
	client *elasticsearch.Client
}

func NewSearchIndex(client *elasticsearch.Client) *SearchIndex {
	return &SearchIndex{client: client}
}

func (s *SearchIndex) Search(ctx context.Context, query string, maxPrice float64, limit int) ([]models.Product, error) {
	mustClauses := []interface{}{
		map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"name^3", "brand^2", "category^2", "description"},
			},
		},
	}

	filterClauses := []interface{}{
		map[string]interface{}{
			"range": map[string]interface{}{
				"stock_quantity": map[string]interface{}{"gt": 0},
			},
		},
	}
	if maxPrice > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{
				"price": map[string]interface{}{"lte": maxPrice},
			},
		})
	}

	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   mustClauses,
				"filter": filterClauses,
			},
		},
		"size": limit,
	}

	body, _ := json.Marshal(queryBody)
	req := esapi.SearchRequest{
		Index: []string{productIndex},
		Body:  strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search returned status %s", res.Status())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(searchResult.Hits.Hits))
	for _, hit := range searchResult.Hits.Hits {
		products = append(products, hit.Source)
	}
	return products, nil
}
