package pubmed

import (
	"fmt"
	"strings"
	"time"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// Field tags of the PubMed search syntax.
const (
	tagTitleAbstract   = "[Title/Abstract]"
	tagJournal         = "[Journal]"
	tagPublicationType = "[Publication Type]"
	tagPublicationDate = "[Date - Publication]"

	queryDateLayout = "2006-01-02"
)

// EpochStart is the lower date bound used when no start date is given.
var EpochStart = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// BuildQuery turns search criteria into a PubMed boolean query. Clauses are
// AND-joined in the order medicine, condition, free-text query, journal,
// article types, date range; terms within a clause are OR-joined. The
// free-text query is matched as one phrase. Empty clauses are omitted; the
// date clause is always present and defaults to EpochStart through today.
//
// Terms are wrapped in quotes without escaping.
func BuildQuery(c domain.SearchCriteria, today time.Time) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	articleTypes := append([]string(nil), c.ArticleTypes...)
	if tt := strings.TrimSpace(c.TrialType); tt != "" && !containsFold(articleTypes, tt) {
		articleTypes = append(articleTypes, tt)
	}

	clauses := make([]string, 0, 6)
	for _, clause := range []string{
		orClause(c.MedicineTerms(), tagTitleAbstract),
		orClause(c.ConditionTerms(), tagTitleAbstract),
		orClause([]string{c.Query}, tagTitleAbstract),
		orClause(c.JournalNames(), tagJournal),
		orClause(articleTypes, tagPublicationType),
		dateClause(c.DateRange, today),
	} {
		if clause != "" {
			clauses = append(clauses, clause)
		}
	}
	return strings.Join(clauses, " AND "), nil
}

func orClause(terms []string, tag string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			quoted = append(quoted, `"`+t+`"`+tag)
		}
	}
	if len(quoted) == 0 {
		return ""
	}
	return "(" + strings.Join(quoted, " OR ") + ")"
}

func dateClause(r domain.DateRange, today time.Time) string {
	start, end := EpochStart, today
	if r.Start != nil {
		start = *r.Start
	}
	if r.End != nil {
		end = *r.End
	}
	return fmt.Sprintf(`("%s"%s : "%s"%s)`,
		start.Format(queryDateLayout), tagPublicationDate,
		end.Format(queryDateLayout), tagPublicationDate)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}
