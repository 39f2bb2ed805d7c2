// Package pubmed implements the NCBI E-utilities client used by the search
// pipeline: the boolean query builder, the history-based esearch/efetch
// fetcher, the PubmedArticle parser and the elink "cited by" citation source.
//
// The E-utilities API documentation is available at:
// https://www.ncbi.nlm.nih.gov/books/NBK25499/
package pubmed

import "encoding/xml"

// ESearchResult is the esearch.fcgi response. With usehistory=y it carries the
// WebEnv/QueryKey pair needed by efetch.
type ESearchResult struct {
	XMLName   xml.Name   `xml:"eSearchResult"`
	Count     int        `xml:"Count"`
	RetMax    int        `xml:"RetMax"`
	RetStart  int        `xml:"RetStart"`
	QueryKey  string     `xml:"QueryKey"`
	WebEnv    string     `xml:"WebEnv"`
	ErrorList *ErrorList `xml:"ErrorList"`
	Error     string     `xml:"ERROR"`
}

// ErrorList contains errors from the E-utilities API.
type ErrorList struct {
	PhraseNotFound []string `xml:"PhraseNotFound"`
	FieldNotFound  []string `xml:"FieldNotFound"`
}

// PubmedArticle is one record of an efetch PubmedArticleSet.
// Title and abstract text keep their inner markup so inline tags can be
// stripped after decoding.
type PubmedArticle struct {
	XMLName         xml.Name        `xml:"PubmedArticle"`
	MedlineCitation MedlineCitation `xml:"MedlineCitation"`
	PubmedData      PubmedData      `xml:"PubmedData"`
}

// MedlineCitation contains the core bibliographic information.
type MedlineCitation struct {
	PMID    PMID    `xml:"PMID"`
	Article Article `xml:"Article"`
}

// PMID is the PubMed identifier.
type PMID struct {
	Version string `xml:"Version,attr"`
	Value   string `xml:",chardata"`
}

// Article contains the article metadata.
type Article struct {
	Journal             Journal              `xml:"Journal"`
	ArticleTitle        InnerText            `xml:"ArticleTitle"`
	ELocationIDs        []ELocationID        `xml:"ELocationID"`
	Abstract            *Abstract            `xml:"Abstract"`
	AuthorList          *AuthorList          `xml:"AuthorList"`
	PublicationTypeList *PublicationTypeList `xml:"PublicationTypeList"`
	ArticleDates        []ArticleDate        `xml:"ArticleDate"`
}

// InnerText captures an element's raw inner XML.
type InnerText struct {
	Raw string `xml:",innerxml"`
}

// Journal contains journal information.
type Journal struct {
	Title           string       `xml:"Title"`
	ISOAbbreviation string       `xml:"ISOAbbreviation"`
	JournalIssue    JournalIssue `xml:"JournalIssue"`
}

// JournalIssue contains the volume, issue, and publication date.
type JournalIssue struct {
	Volume  string  `xml:"Volume"`
	Issue   string  `xml:"Issue"`
	PubDate PubDate `xml:"PubDate"`
}

// PubDate is the journal issue date; MedlineDate replaces Year for ranges
// such as "2020 Jan-Feb".
type PubDate struct {
	Year        string `xml:"Year"`
	Month       string `xml:"Month"`
	MedlineDate string `xml:"MedlineDate"`
}

// ArticleDate is the electronic publication date.
type ArticleDate struct {
	DateType string `xml:"DateType,attr"`
	Year     string `xml:"Year"`
}

// ELocationID is an electronic location identifier (DOI or PII).
type ELocationID struct {
	EIdType string `xml:"EIdType,attr"`
	ValidYN string `xml:"ValidYN,attr"`
	Value   string `xml:",chardata"`
}

// Abstract may be split into labelled sections.
type Abstract struct {
	Texts []AbstractText `xml:"AbstractText"`
}

// AbstractText is one abstract section.
type AbstractText struct {
	Label string `xml:"Label,attr"`
	Raw   string `xml:",innerxml"`
}

// AuthorList contains the list of authors in publication order.
type AuthorList struct {
	Authors []Author `xml:"Author"`
}

// Author is a single author or collective.
type Author struct {
	LastName       string `xml:"LastName"`
	ForeName       string `xml:"ForeName"`
	Initials       string `xml:"Initials"`
	CollectiveName string `xml:"CollectiveName"`
}

// PublicationTypeList contains the publication types.
type PublicationTypeList struct {
	Types []string `xml:"PublicationType"`
}

// PubmedData contains the article identifiers.
type PubmedData struct {
	ArticleIDList ArticleIDList `xml:"ArticleIdList"`
}

// ArticleIDList contains identifiers such as DOI and PMC.
type ArticleIDList struct {
	IDs []ArticleID `xml:"ArticleId"`
}

// ArticleID is one typed identifier.
type ArticleID struct {
	IDType string `xml:"IdType,attr"`
	Value  string `xml:",chardata"`
}

// ELinkResult is the JSON elink.fcgi response.
type ELinkResult struct {
	LinkSets []LinkSet `json:"linksets"`
}

// LinkSet groups the links found for one source id.
type LinkSet struct {
	DBFrom     string      `json:"dbfrom"`
	IDs        []string    `json:"ids"`
	LinkSetDBs []LinkSetDB `json:"linksetdbs"`
}

// LinkSetDB holds the linked ids for one link name.
type LinkSetDB struct {
	DBTo     string   `json:"dbto"`
	LinkName string   `json:"linkname"`
	Links    []string `json:"links"`
}
