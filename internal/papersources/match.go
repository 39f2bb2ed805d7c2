package papersources

import (
	"strings"
	"unicode"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// titleMatchThreshold is the token Jaccard score above which two titles are
// treated as the same work.
const titleMatchThreshold = 0.85

// NormalizeTitle lowercases a title and keeps only letters, digits and single spaces.
func NormalizeTitle(title string) string {
	var sb strings.Builder
	sb.Grow(len(title))
	prevSpace := true
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			prevSpace = false
		case !prevSpace:
			sb.WriteRune(' ')
			prevSpace = true
		}
	}
	return strings.TrimRight(sb.String(), " ")
}

// SameTitle reports whether two titles name the same work, tolerating
// punctuation and small wording differences.
func SameTitle(a, b string) bool {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	return jaccard(strings.Fields(na), strings.Fields(nb)) >= titleMatchThreshold
}

func jaccard(a, b []string) float64 {
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	inter := 0
	union := len(set)
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// nameTokens returns the normalized name parts longer than an initial.
// Sources disagree on "Last First" versus "First Last" order, so names are
// compared as token sets.
func nameTokens(name string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, t := range strings.Fields(NormalizeTitle(strings.ReplaceAll(name, ",", " "))) {
		if len([]rune(t)) > 1 {
			tokens[t] = struct{}{}
		}
	}
	return tokens
}

// nameSimilarity is 1 when both names carry the same long tokens, 0.7 when
// they share at least one (typically the surname), and 0 otherwise.
func nameSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for t := range a {
		if _, ok := b[t]; ok {
			shared++
		}
	}
	switch {
	case shared == 0:
		return 0
	case shared == len(a) && shared == len(b):
		return 1
	default:
		return 0.7
	}
}

// AuthorOverlap pairs each author of the shorter list with its most similar
// unpaired author in the longer list and divides the summed similarity by
// the size of the union. It is symmetric and returns 0 for empty lists.
func AuthorOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	na := make([]map[string]struct{}, len(a))
	for i, name := range a {
		na[i] = nameTokens(name)
	}
	nb := make([]map[string]struct{}, len(b))
	for i, name := range b {
		nb[i] = nameTokens(name)
	}
	if len(na) > len(nb) {
		na, nb = nb, na
	}

	used := make([]bool, len(nb))
	total := 0.0
	matched := 0
	for _, x := range na {
		best, bestIdx := 0.0, -1
		for j, y := range nb {
			if used[j] {
				continue
			}
			if s := nameSimilarity(x, y); s > best {
				best, bestIdx = s, j
			}
		}
		if bestIdx >= 0 {
			used[bestIdx] = true
			total += best
			matched++
		}
	}
	return total / float64(len(na)+len(nb)-matched)
}

// MatchesCandidate decides whether a work returned by a title search is the
// paper described by q. The title must match; when both sides list authors
// at least one must be shared.
func MatchesCandidate(q domain.CitationQuery, title string, authors []string) bool {
	if strings.TrimSpace(q.Title) == "" {
		return true
	}
	if !SameTitle(q.Title, title) {
		return false
	}
	if len(q.Authors) == 0 || len(authors) == 0 {
		return true
	}
	return AuthorOverlap(q.Authors, authors) > 0
}
