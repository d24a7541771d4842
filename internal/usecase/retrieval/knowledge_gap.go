package retrieval

import (
	"fmt"
	"strings"

	"travel-rag/internal/domain"
)

// DefaultRelevanceThreshold is the top score below which results are treated as weak.
const DefaultRelevanceThreshold = 0.65

// DefaultCoverageCountry is the source nationality the curated corpus is written for.
const DefaultCoverageCountry = "India"

// unsupportedMention maps a query keyword to the country it refers to.
type unsupportedMention struct {
	keyword string
	country string
}

// Order matters: the first keyword found in the query names the country.
var unsupportedMentions = []unsupportedMention{
	{"china", "China"},
	{"chinese", "China"},
	{"brazil", "Brazil"},
	{"brazilian", "Brazil"},
	{"russia", "Russia"},
	{"russian", "Russia"},
	{"australia", "Australia"},
	{"australian", "Australia"},
	{"canada", "Canada"},
	{"canadian", "Canada"},
	{"france", "France"},
	{"french", "France"},
	{"germany", "Germany"},
	{"german", "Germany"},
	{"italy", "Italy"},
	{"italian", "Italy"},
	{"spain", "Spain"},
	{"spanish", "Spain"},
	{"mexico", "Mexico"},
	{"mexican", "Mexico"},
	{"argentina", "Argentina"},
	{"south korea", "South Korea"},
	{"korean", "South Korea"},
	{"thailand", "Thailand"},
	{"saudi", "Saudi Arabia"},
	{"egypt", "Egypt"},
	{"turkish", "Turkey"},
	{"indonesia", "Indonesia"},
}

// GapDetector spots questions about nationalities the corpus does not cover,
// so a weak match is answered with a redirect instead of a guess.
type GapDetector struct {
	threshold       float64
	coverageCountry string
}

// NewGapDetector builds a detector. Zero values fall back to the defaults.
func NewGapDetector(threshold float64, coverageCountry string) *GapDetector {
	if threshold <= 0 {
		threshold = DefaultRelevanceThreshold
	}
	if strings.TrimSpace(coverageCountry) == "" {
		coverageCountry = DefaultCoverageCountry
	}
	return &GapDetector{threshold: threshold, coverageCountry: coverageCountry}
}

// Threshold returns the relevance threshold the detector applies.
func (g *GapDetector) Threshold() float64 {
	return g.threshold
}

// Detect returns a redirect message and true when the top result is weak,
// the query names an unsupported nationality and the top document was
// written for the covered source country.
func (g *GapDetector) Detect(query string, results []domain.SearchResult) (string, bool) {
	if len(results) == 0 {
		return "", false
	}
	top := results[0]
	if top.Score >= g.threshold {
		return "", false
	}

	mention, ok := firstUnsupportedMention(query)
	if !ok {
		return "", false
	}

	if !strings.Contains(strings.ToLower(top.Document.SourceCountry), strings.ToLower(g.coverageCountry)) {
		return "", false
	}

	return g.message(mention), true
}

func firstUnsupportedMention(query string) (unsupportedMention, bool) {
	q := strings.ToLower(query)
	for _, m := range unsupportedMentions {
		if strings.Contains(q, m.keyword) {
			return m, true
		}
	}
	return unsupportedMention{}, false
}

func (g *GapDetector) message(m unsupportedMention) string {
	demonym := titleWords(m.keyword)
	return fmt.Sprintf(`I apologize, but my knowledge base currently focuses on travel information for %[1]s citizens and travel to %[2]s. I don't have specific information about %[3]s citizens or %[4]s-specific visa requirements.

My expertise covers:
- Visa requirements for %[1]s citizens traveling abroad
- Entry requirements for foreign nationals coming to %[2]s
- General travel information for destinations popular with %[1]s travelers

For %[4]s-specific visa and travel requirements, I recommend:
1. Contacting the relevant embassy or consulate
2. Visiting official government immigration websites
3. Consulting with authorized visa service providers

Is there anything about %[1]s travel requirements I can help you with instead?`,
		coverageDemonym(g.coverageCountry), g.coverageCountry, demonym, m.country)
}

// coverageDemonym knows the one adjective the shipped corpus needs and
// otherwise reuses the country name.
func coverageDemonym(country string) string {
	if strings.EqualFold(country, "india") {
		return "Indian"
	}
	return country
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
