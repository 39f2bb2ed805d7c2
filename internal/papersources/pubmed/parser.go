package pubmed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// Defaults applied when a record lacks a field.
const (
	DefaultTitle    = "No title"
	DefaultAbstract = "No abstract available"
	DefaultJournal  = "Unknown Journal"

	doiBaseURL = "https://doi.org/"
)

var (
	articleOpen  = []byte("<PubmedArticle")
	articleClose = []byte("</PubmedArticle>")

	errUnterminated = errors.New("unterminated PubmedArticle element")

	pmidPattern = regexp.MustCompile(`<PMID[^>]*>\s*(\d+)\s*</PMID>`)
	yearPattern = regexp.MustCompile(`\b(\d{4})\b`)
)

// ParseResult is the outcome of parsing one efetch payload.
type ParseResult struct {
	// Papers holds one entry per record that decoded, in document order.
	Papers []domain.Paper

	// Skipped holds one ParseError per record that could not be decoded.
	Skipped []*domain.ParseError
}

// ParseArticles extracts papers from a PubmedArticleSet payload. Each
// <PubmedArticle> block is decoded on its own, so a malformed record is
// reported in Skipped without affecting its neighbours. now supplies the
// fallback publication year.
func ParseArticles(data []byte, now time.Time) ParseResult {
	var result ParseResult
	for i, rec := range splitRecords(data) {
		if rec.err != nil {
			result.Skipped = append(result.Skipped, &domain.ParseError{Index: i, PMID: guessPMID(rec.raw), Cause: rec.err})
			continue
		}
		article, err := decodeArticle(rec.raw)
		if err != nil {
			result.Skipped = append(result.Skipped, &domain.ParseError{Index: i, PMID: guessPMID(rec.raw), Cause: err})
			continue
		}
		result.Papers = append(result.Papers, ArticleToPaper(article, now))
	}
	return result
}

type record struct {
	raw []byte
	err error
}

// splitRecords cuts the payload at <PubmedArticle> boundaries. A block that
// is not closed before the next one opens is returned with an error.
func splitRecords(data []byte) []record {
	var records []record
	pos := 0
	for {
		start := indexOpen(data, pos)
		if start < 0 {
			return records
		}
		next := indexOpen(data, start+len(articleOpen))
		end := bytes.Index(data[start:], articleClose)

		if end < 0 || (next >= 0 && next < start+end) {
			stop := len(data)
			if next >= 0 {
				stop = next
			}
			records = append(records, record{raw: data[start:stop], err: errUnterminated})
			if next < 0 {
				return records
			}
			pos = next
			continue
		}

		stop := start + end + len(articleClose)
		records = append(records, record{raw: data[start:stop]})
		pos = stop
	}
}

// indexOpen finds the next <PubmedArticle> start tag at or after from,
// skipping <PubmedArticleSet>.
func indexOpen(data []byte, from int) int {
	for from < len(data) {
		i := bytes.Index(data[from:], articleOpen)
		if i < 0 {
			return -1
		}
		at := from + i
		after := at + len(articleOpen)
		if after < len(data) {
			switch data[after] {
			case '>', ' ', '\t', '\n', '\r':
				return at
			}
		}
		from = after
	}
	return -1
}

func decodeArticle(raw []byte) (PubmedArticle, error) {
	var article PubmedArticle
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Entity = xml.HTMLEntity
	if err := dec.Decode(&article); err != nil {
		return PubmedArticle{}, fmt.Errorf("decode PubmedArticle: %w", err)
	}
	return article, nil
}

func guessPMID(raw []byte) string {
	if m := pmidPattern.FindSubmatch(raw); m != nil {
		return string(m[1])
	}
	return ""
}

// ArticleToPaper maps a decoded record to a Paper, applying field defaults.
func ArticleToPaper(a PubmedArticle, now time.Time) domain.Paper {
	article := a.MedlineCitation.Article

	paper := domain.Paper{
		ID:               strings.TrimSpace(a.MedlineCitation.PMID.Value),
		Title:            orDefault(cleanText(article.ArticleTitle.Raw), DefaultTitle),
		Abstract:         orDefault(extractAbstract(article.Abstract), DefaultAbstract),
		Authors:          extractAuthors(article.AuthorList),
		Journal:          orDefault(extractJournal(article.Journal), DefaultJournal),
		Year:             extractYear(article, now),
		DOI:              extractDOI(article, a.PubmedData),
		PublicationTypes: extractPublicationTypes(article.PublicationTypeList),
	}
	if paper.DOI != "" {
		paper.PDFURL = doiBaseURL + paper.DOI
	}
	if paper.Abstract != DefaultAbstract {
		if n, ok := ExtractPatientCount(paper.Abstract); ok {
			paper.PatientCount = &n
		}
	}
	return paper
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// extractAbstract joins abstract sections, prefixing labelled ones.
func extractAbstract(abstract *Abstract) string {
	if abstract == nil {
		return ""
	}
	parts := make([]string, 0, len(abstract.Texts))
	for _, section := range abstract.Texts {
		text := cleanText(section.Raw)
		if text == "" {
			continue
		}
		if label := normalizeSpace(section.Label); label != "" {
			text = label + ": " + text
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

// Chardata and attribute fields arrive already unescaped by encoding/xml, so
// only the innerxml title and abstract go through DecodeEntities.

// extractAuthors builds "LastName ForeName" entries in document order.
// Authors with only one name part keep that part; collectives keep their name.
func extractAuthors(list *AuthorList) []string {
	if list == nil {
		return []string{}
	}
	authors := make([]string, 0, len(list.Authors))
	for _, a := range list.Authors {
		name := normalizeSpace(a.LastName + " " + a.ForeName)
		if name == "" {
			name = normalizeSpace(a.CollectiveName)
		}
		if name == "" {
			continue
		}
		authors = append(authors, name)
	}
	return authors
}

func extractJournal(j Journal) string {
	if title := normalizeSpace(j.Title); title != "" {
		return title
	}
	return normalizeSpace(j.ISOAbbreviation)
}

// extractYear prefers the issue year, then a MedlineDate range, then the
// electronic publication date, then the current year.
func extractYear(article Article, now time.Time) int {
	pub := article.Journal.JournalIssue.PubDate
	if y, err := strconv.Atoi(strings.TrimSpace(pub.Year)); err == nil && y > 0 {
		return y
	}
	if m := yearPattern.FindStringSubmatch(pub.MedlineDate); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			return y
		}
	}
	for _, ad := range article.ArticleDates {
		if y, err := strconv.Atoi(strings.TrimSpace(ad.Year)); err == nil && y > 0 {
			return y
		}
	}
	return now.Year()
}

// extractDOI checks ELocationID first, then the PubmedData id list.
func extractDOI(article Article, data PubmedData) string {
	for _, loc := range article.ELocationIDs {
		if strings.EqualFold(loc.EIdType, "doi") && loc.ValidYN != "N" {
			if doi := strings.TrimSpace(loc.Value); doi != "" {
				return doi
			}
		}
	}
	for _, id := range data.ArticleIDList.IDs {
		if strings.EqualFold(id.IDType, "doi") {
			if doi := strings.TrimSpace(id.Value); doi != "" {
				return doi
			}
		}
	}
	return ""
}

func extractPublicationTypes(list *PublicationTypeList) []string {
	if list == nil {
		return nil
	}
	types := make([]string, 0, len(list.Types))
	for _, t := range list.Types {
		if t = normalizeSpace(t); t != "" {
			types = append(types, t)
		}
	}
	return types
}
