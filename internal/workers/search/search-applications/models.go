// internal/workers/search/search-applications/models.go
package searchapplications

// Input carries the search request variables.
type Input struct {
	Query      string                 `json:"query,omitempty"`
	Filters    map[string]interface{} `json:"filters,omitempty"`
	Pagination *Pagination            `json:"pagination,omitempty"`
}

// Pagination bounds the result window.
type Pagination struct {
	From int `json:"from"`
	Size int `json:"size"`
}

// Output is written back to the process as job variables.
type Output struct {
	Hits      []map[string]interface{} `json:"hits"`
	TotalHits int64                    `json:"totalHits"`
	MaxScore  float64                  `json:"maxScore"`
	TookMS    int64                    `json:"tookMs"`
}
