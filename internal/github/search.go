package github

import (
	"context"
	"fmt"
	"sort"

	"github.com/modelshop/weightwatch/internal/detect"
)

// Hit is one repository surfaced by the search client.
type Hit struct {
	FullName    string
	Name        string
	URL         string
	Stars       int
	Description string
	Topics      []string
	CreatedAt   string
	UpdatedAt   string
}

// SearchSpec configures a full candidate search.
type SearchSpec struct {
	Queries      []string
	MinStars     int
	MaxPerQuery  int
	CreatedAfter string // "YYYY-MM-DD"; empty disables the filter
}

// searchSorts are the two passes per query: stars catches established
// repos, updated catches fresh ones still climbing.
var searchSorts = []string{"stars", "updated"}

// SearchAll runs every configured query with both sort passes, merges
// the results into a deduplicated candidate set, and applies the
// relevance filter.
//
// Duplicates collapse keeping the maximum observed star count. A query
// pass that fails after retries is skipped and reported in degraded;
// the remaining passes still contribute. The result is sorted by stars
// descending with full name as tie-break.
func (c *Client) SearchAll(ctx context.Context, spec SearchSpec, filter *detect.RelevanceFilter) (hits []Hit, degraded []string, err error) {
	merged := make(map[string]Hit)

	for _, query := range spec.Queries {
		for _, sortBy := range searchSorts {
			results, passErr := c.SearchRepos(ctx, query, spec.MinStars, spec.CreatedAfter, sortBy, spec.MaxPerQuery)
			if passErr != nil {
				if ctx.Err() != nil {
					return nil, degraded, ctx.Err()
				}
				degraded = append(degraded, fmt.Sprintf("%s (sort=%s): %v", query, sortBy, passErr))
				continue
			}

			for _, hit := range results {
				if hit.FullName == "" {
					continue
				}
				prev, seen := merged[hit.FullName]
				if !seen || hit.Stars > prev.Stars {
					merged[hit.FullName] = hit
				}
			}
		}
	}

	for _, hit := range merged {
		if filter != nil {
			if filter.Excluded(hit.Name, hit.Description) {
				continue
			}
			if !filter.Relevant(hit.Name, hit.Description, hit.Topics) {
				continue
			}
		}
		hits = append(hits, hit)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Stars != hits[j].Stars {
			return hits[i].Stars > hits[j].Stars
		}
		return hits[i].FullName < hits[j].FullName
	})

	return hits, degraded, nil
}
