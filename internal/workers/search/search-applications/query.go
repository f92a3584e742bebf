// internal/workers/search/search-applications/query.go
package searchapplications

import (
	"encoding/json"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// buildSearchRequest assembles the bool query over the completed-application
// index. Free text matches across merchant fields; filters narrow by exact
// values.
func buildSearchRequest(index string, input *Input) *esapi.SearchRequest {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if input.Query != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  input.Query,
				"fields": []string{"merchantName^3", "merchantEmail^2", "applicationData.*"},
				"type":   "best_fields",
			},
		})
	}

	if input.Filters != nil {
		if email, ok := input.Filters["merchantEmail"].(string); ok && email != "" {
			filterClauses = append(filterClauses, map[string]interface{}{
				"term": map[string]interface{}{"merchantEmail.keyword": email},
			})
		}
		if completed, ok := input.Filters["completed"].(bool); ok {
			filterClauses = append(filterClauses, map[string]interface{}{
				"term": map[string]interface{}{"completed": completed},
			})
		}
		if after, ok := input.Filters["completedAfter"].(string); ok && after != "" {
			filterClauses = append(filterClauses, map[string]interface{}{
				"range": map[string]interface{}{
					"completedAt": map[string]interface{}{"gte": after},
				},
			})
		}
	}

	boolQuery := map[string]interface{}{}
	if len(mustClauses) > 0 {
		boolQuery["must"] = mustClauses
	}
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	queryBody := map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []interface{}{
			map[string]interface{}{"_score": map[string]interface{}{"order": "desc"}},
		},
	}
	if len(boolQuery) == 0 {
		queryBody["query"] = map[string]interface{}{"match_all": map[string]interface{}{}}
	}

	from, size := 0, defaultPageSize
	if input.Pagination != nil {
		if input.Pagination.From > 0 {
			from = input.Pagination.From
		}
		if input.Pagination.Size > 0 {
			size = input.Pagination.Size
		}
		if size > maxPageSize {
			size = maxPageSize
		}
	}

	body, _ := json.Marshal(queryBody)

	return &esapi.SearchRequest{
		Index: []string{index},
		Body:  strings.NewReader(string(body)),
		From:  &from,
		Size:  &size,
	}
}
