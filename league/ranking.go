package league

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/Dosada05/angling-league/models"
)

// EffectiveWeight is the weight used for ranking. Negative and non-finite
// weights count as zero.
func EffectiveWeight(r models.Result) float64 {
	w := r.Weight
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return 0
	}
	return w
}

// IsScored reports whether a result takes a finishing position: it must be
// weighed as OK with a positive weight.
func IsScored(r models.Result) bool {
	return r.Status == models.ResultStatusOK && EffectiveWeight(r) > 0
}

// RankGroup assigns a position to every angler in results.
//
// Scored anglers are ordered by weight, heaviest first, and numbered from 1
// with no gaps; equal weights are ordered by angler id. Every unscored angler
// (NYW, DNF, DNW, DSQ, or no weight) shares the position after the last scored
// one, which is 1 when nobody scored. If an angler appears more than once the
// last row wins, matching the store's last-write-wins semantics.
func RankGroup(results []models.Result) map[string]int {
	rows := latestPerAngler(results)

	scored := make([]models.Result, 0, len(rows))
	unscored := make([]models.Result, 0)
	for _, r := range rows {
		if IsScored(r) {
			scored = append(scored, r)
		} else {
			unscored = append(unscored, r)
		}
	}

	slices.SortFunc(scored, func(a, b models.Result) int {
		if c := cmp.Compare(EffectiveWeight(b), EffectiveWeight(a)); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})

	positions := make(map[string]int, len(rows))
	for i, r := range scored {
		positions[r.UserID] = i + 1
	}
	last := len(scored) + 1
	for _, r := range unscored {
		positions[r.UserID] = last
	}
	return positions
}

func latestPerAngler(results []models.Result) []models.Result {
	index := make(map[string]int, len(results))
	rows := make([]models.Result, 0, len(results))
	for _, r := range results {
		if i, ok := index[r.UserID]; ok {
			rows[i] = r
			continue
		}
		index[r.UserID] = len(rows)
		rows = append(rows, r)
	}
	return rows
}

// SectionKey normalizes a section label. Labels differing only in
// surrounding whitespace name the same section.
func SectionKey(section string) string {
	return strings.TrimSpace(section)
}

// GroupBySection splits results by section label. Results without a section
// are grouped under the empty key.
func GroupBySection(results []models.Result) map[string][]models.Result {
	groups := make(map[string][]models.Result)
	for _, r := range results {
		key := SectionKey(r.Section)
		groups[key] = append(groups[key], r)
	}
	return groups
}

// MatchRanking holds the overall and per-section positions of one match.
type MatchRanking struct {
	Overall  map[string]int
	Sections map[string]map[string]int
}

// SectionPosition returns the angler's position within their section.
func (mr MatchRanking) SectionPosition(section, anglerID string) (int, bool) {
	ranks, ok := mr.Sections[SectionKey(section)]
	if !ok {
		return 0, false
	}
	pos, ok := ranks[anglerID]
	return pos, ok
}

// SectionNames returns the ranked section labels in natural order.
func (mr MatchRanking) SectionNames() []string {
	names := make([]string, 0, len(mr.Sections))
	for name := range mr.Sections {
		names = append(names, name)
	}
	slices.SortFunc(names, CompareSections)
	return names
}

// RankMatch ranks a match overall and within each non-empty section. Each
// section is ranked independently of the others and of the overall ranking.
func RankMatch(results []models.Result) MatchRanking {
	ranking := MatchRanking{
		Overall:  RankGroup(results),
		Sections: make(map[string]map[string]int),
	}
	for section, group := range GroupBySection(results) {
		if section == "" {
			continue
		}
		ranking.Sections[section] = RankGroup(group)
	}
	return ranking
}

// CompareSections orders section labels numerically when both are integers
// ("2" before "10") and lexically otherwise.
func CompareSections(a, b string) int {
	ai, aok := atoiStrict(a)
	bi, bok := atoiStrict(b)
	switch {
	case aok && bok:
		if c := cmp.Compare(ai, bi); c != 0 {
			return c
		}
	case aok:
		return -1
	case bok:
		return 1
	}
	return cmp.Compare(a, b)
}

func atoiStrict(s string) (int, bool) {
	if s == "" || len(s) > 9 {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
