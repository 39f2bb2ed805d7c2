package pubmed

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullArticleXML = `<PubmedArticle>
	<MedlineCitation Status="MEDLINE" Owner="NLM">
		<PMID Version="1">12345678</PMID>
		<Article PubModel="Print-Electronic">
			<Journal>
				<JournalIssue CitedMedium="Internet">
					<Volume>380</Volume>
					<PubDate><Year>2019</Year><Month>Mar</Month></PubDate>
				</JournalIssue>
				<Title>The New England Journal of Medicine</Title>
				<ISOAbbreviation>N Engl J Med</ISOAbbreviation>
			</Journal>
			<ArticleTitle>Dapagliflozin in <i>Heart Failure</i> &amp; Reduced Ejection Fraction.</ArticleTitle>
			<ELocationID EIdType="doi" ValidYN="Y">10.1056/NEJMoa1911303</ELocationID>
			<Abstract>
				<AbstractText Label="BACKGROUND">Patients with   heart failure.</AbstractText>
				<AbstractText Label="METHODS">We enrolled 4744 patients with p &lt; 0.05.</AbstractText>
			</Abstract>
			<AuthorList CompleteYN="Y">
				<Author ValidYN="Y"><LastName>McMurray</LastName><ForeName>John J V</ForeName><Initials>JJV</Initials></Author>
				<Author ValidYN="Y"><LastName>Solomon</LastName></Author>
				<Author ValidYN="Y"><CollectiveName>DAPA-HF Trial Committees</CollectiveName></Author>
			</AuthorList>
			<PublicationTypeList>
				<PublicationType UI="D016449">Randomized Controlled Trial</PublicationType>
			</PublicationTypeList>
		</Article>
	</MedlineCitation>
	<PubmedData>
		<ArticleIdList><ArticleId IdType="pubmed">12345678</ArticleId></ArticleIdList>
	</PubmedData>
</PubmedArticle>`

func articleSet(records ...string) []byte {
	return []byte(`<?xml version="1.0" ?>
<!DOCTYPE PubmedArticleSet PUBLIC "-//NLM//DTD PubMedArticle, 1st January 2024//EN" "https://dtd.nlm.nih.gov/ncbi/pubmed/out/pubmed_240101.dtd">
<PubmedArticleSet>` + strings.Join(records, "\n") + `</PubmedArticleSet>`)
}

func minimalArticle(pmid, title string) string {
	return fmt.Sprintf(`<PubmedArticle><MedlineCitation><PMID>%s</PMID><Article><ArticleTitle>%s</ArticleTitle></Article></MedlineCitation></PubmedArticle>`, pmid, title)
}

func TestParseArticles_FullRecord(t *testing.T) {
	result := ParseArticles(articleSet(fullArticleXML), today)

	require.Empty(t, result.Skipped)
	require.Len(t, result.Papers, 1)
	p := result.Papers[0]

	assert.Equal(t, "12345678", p.ID)
	assert.Equal(t, "Dapagliflozin in Heart Failure & Reduced Ejection Fraction.", p.Title)
	assert.Equal(t, "BACKGROUND: Patients with heart failure. METHODS: We enrolled 4744 patients with p < 0.05.", p.Abstract)
	assert.Equal(t, []string{"McMurray John J V", "Solomon", "DAPA-HF Trial Committees"}, p.Authors)
	assert.Equal(t, "The New England Journal of Medicine", p.Journal)
	assert.Equal(t, 2019, p.Year)
	assert.Equal(t, "10.1056/NEJMoa1911303", p.DOI)
	assert.Equal(t, "https://doi.org/10.1056/NEJMoa1911303", p.PDFURL)
	assert.Equal(t, []string{"Randomized Controlled Trial"}, p.PublicationTypes)
	require.NotNil(t, p.PatientCount)
	assert.Equal(t, 4744, *p.PatientCount)
	assert.Nil(t, p.Citations)
	assert.Nil(t, p.RelevanceScore)
}

func TestParseArticles_EntityScenario(t *testing.T) {
	result := ParseArticles(articleSet(minimalArticle("12345", "Foo &amp; Bar")), today)

	require.Len(t, result.Papers, 1)
	assert.Equal(t, "12345", result.Papers[0].ID)
	assert.Equal(t, "Foo & Bar", result.Papers[0].Title)
}

func TestParseArticles_DecodesEachFieldOnce(t *testing.T) {
	record := `<PubmedArticle><MedlineCitation><PMID>7</PMID><Article>` +
		`<Journal><Title>A &amp;lt;B&amp;gt;</Title></Journal>` +
		`<ArticleTitle>T &amp;lt;B&amp;gt;</ArticleTitle>` +
		`<AuthorList><Author><LastName>O&apos;Brien &amp;amp; Co</LastName><ForeName>Pat</ForeName></Author></AuthorList>` +
		`<PublicationTypeList><PublicationType>Review &amp;lt;x&amp;gt;</PublicationType></PublicationTypeList>` +
		`</Article></MedlineCitation></PubmedArticle>`

	result := ParseArticles(articleSet(record), today)

	require.Len(t, result.Papers, 1)
	p := result.Papers[0]
	assert.Equal(t, "T &lt;B&gt;", p.Title)
	assert.Equal(t, "A &lt;B&gt;", p.Journal)
	assert.Equal(t, []string{"O'Brien &amp; Co Pat"}, p.Authors)
	assert.Equal(t, []string{"Review &lt;x&gt;"}, p.PublicationTypes)
}

func TestParseArticles_Defaults(t *testing.T) {
	record := `<PubmedArticle><MedlineCitation><Article><Journal><ISOAbbreviation>Eur Heart J</ISOAbbreviation></Journal></Article></MedlineCitation></PubmedArticle>`

	result := ParseArticles(articleSet(record), today)

	require.Len(t, result.Papers, 1)
	p := result.Papers[0]
	assert.Equal(t, "", p.ID)
	assert.Equal(t, DefaultTitle, p.Title)
	assert.Equal(t, DefaultAbstract, p.Abstract)
	assert.Equal(t, "Eur Heart J", p.Journal)
	assert.Equal(t, today.Year(), p.Year)
	assert.Empty(t, p.Authors)
	assert.Empty(t, p.PDFURL)
	assert.Nil(t, p.PatientCount)
}

func TestParseArticles_JournalAndYearFallbacks(t *testing.T) {
	record := `<PubmedArticle><MedlineCitation><PMID>1</PMID><Article>
		<Journal><JournalIssue><PubDate><MedlineDate>2018 Nov-Dec</MedlineDate></PubDate></JournalIssue></Journal>
		<ArticleTitle>T</ArticleTitle></Article></MedlineCitation></PubmedArticle>`

	result := ParseArticles(articleSet(record), today)

	require.Len(t, result.Papers, 1)
	assert.Equal(t, DefaultJournal, result.Papers[0].Journal)
	assert.Equal(t, 2018, result.Papers[0].Year)
}

func TestParseArticles_SkipsMalformedRecords(t *testing.T) {
	broken := `<PubmedArticle><MedlineCitation><PMID>666</PMID><Article><ArticleTitle>Broken</Article></MedlineCitation></PubmedArticle>`
	unterminated := `<PubmedArticle><MedlineCitation><PMID>777</PMID>`

	payload := articleSet(
		minimalArticle("1", "First"),
		broken,
		minimalArticle("2", "Second"),
		unterminated,
		minimalArticle("3", "Third"),
	)

	result := ParseArticles(payload, today)

	require.Len(t, result.Papers, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{result.Papers[0].ID, result.Papers[1].ID, result.Papers[2].ID})
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, 1, result.Skipped[0].Index)
	assert.Equal(t, "666", result.Skipped[0].PMID)
	assert.Equal(t, "777", result.Skipped[1].PMID)
}

func TestParseArticles_TrailingUnterminated(t *testing.T) {
	payload := []byte(`<PubmedArticleSet>` + minimalArticle("1", "A") + `<PubmedArticle><MedlineCitation>`)

	result := ParseArticles(payload, today)

	assert.Len(t, result.Papers, 1)
	assert.Len(t, result.Skipped, 1)
}

func TestParseArticles_EmptyPayload(t *testing.T) {
	result := ParseArticles([]byte(`<PubmedArticleSet></PubmedArticleSet>`), today)
	assert.Empty(t, result.Papers)
	assert.Empty(t, result.Skipped)
}

func TestDecodeEntities(t *testing.T) {
	assert.Equal(t, `"a" 'b' <c> & d`, DecodeEntities("&quot;a&quot; &apos;b&apos; &lt;c&gt; &amp; d"))
	assert.Equal(t, "&lt;", DecodeEntities("&amp;lt;"))

	for _, s := range []string{"plain text", "a < b > c", `"quoted" & 'single'`, ""} {
		assert.Equal(t, s, DecodeEntities(s), "decoded text must be unchanged")
		assert.Equal(t, DecodeEntities(s), DecodeEntities(DecodeEntities(s)))
	}
}

func TestExtractPatientCount(t *testing.T) {
	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{text: "We enrolled 120 patients with HFrEF.", want: 120, ok: true},
		{text: "Randomized (n = 45) to placebo.", want: 45, ok: true},
		{text: "A cohort of 3000 adults.", want: 3000, ok: true},
		{text: "In all, 88 participants were recruited.", want: 88, ok: true},
		{text: "A total of 512 subjects.", want: 512, ok: true},
		{text: "From a population of 10000.", want: 10000, ok: true},
		{text: "We included 0 patients; n=0.", ok: false},
		{text: "No numbers here.", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ExtractPatientCount(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseArticles_UsesClockForYear(t *testing.T) {
	later := time.Date(2031, time.June, 1, 0, 0, 0, 0, time.UTC)
	result := ParseArticles(articleSet(minimalArticle("9", "T")), later)
	require.Len(t, result.Papers, 1)
	assert.Equal(t, 2031, result.Papers[0].Year)
}
