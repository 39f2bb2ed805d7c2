package crossref

import "strings"

// worksResponse is the /works search envelope.
type worksResponse struct {
	Status  string `json:"status"`
	Message struct {
		TotalResults int    `json:"total-results"`
		Items        []Work `json:"items"`
	} `json:"message"`
}

// workResponse is the /works/{doi} envelope.
type workResponse struct {
	Status  string `json:"status"`
	Message Work   `json:"message"`
}

// Work is the subset of a Crossref work record used for citation lookups.
type Work struct {
	DOI               string   `json:"DOI"`
	Title             []string `json:"title"`
	Author            []Author `json:"author"`
	ReferencedByCount int      `json:"is-referenced-by-count"`
}

// Author is a Crossref contributor.
type Author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

func (w Work) firstTitle() string {
	if len(w.Title) == 0 {
		return ""
	}
	return w.Title[0]
}

func (w Work) authorNames() []string {
	names := make([]string, 0, len(w.Author))
	for _, a := range w.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name == "" {
			name = strings.TrimSpace(a.Name)
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
