package report

import (
	"sort"
	"strings"

	"marietje-uploads/internal/uploads"

	"github.com/antzucaro/matchr"
)

// Match is an uploader together with every track id attributed to them.
type Match struct {
	Uploader   string
	Similarity float64
	Tracks     []int64
}

// Search ranks the uploaders in `records` by Jaro-Winkler similarity to
// `name`, ignoring case. Ties are ordered by uploader. A `limit` <= 0
// returns every uploader.
func Search(records []uploads.Record, name string, limit int) []Match {
	target := strings.ToLower(strings.TrimSpace(name))

	byUploader := map[string]*Match{}
	var matches []*Match
	for _, r := range Sorted(records) {
		m, ok := byUploader[r.Uploader]
		if !ok {
			m = &Match{
				Uploader:   r.Uploader,
				Similarity: matchr.JaroWinkler(target, strings.ToLower(r.Uploader), false),
			}
			byUploader[r.Uploader] = m
			matches = append(matches, m)
		}
		m.Tracks = append(m.Tracks, r.ID)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Uploader < matches[j].Uploader
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]Match, len(matches))
	for i, m := range matches {
		out[i] = *m
	}
	return out
}
