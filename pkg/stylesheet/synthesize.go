package stylesheet

import (
	"net/url"
	"sort"
	"strings"

	"github.com/arthur-debert/pagemod/pkg/rules"
)

// DataURIPrefix starts every synthesized sheet identifier
const DataURIPrefix = "data:text/css;charset=utf-8,"

// AnyPageClause scopes a sheet to every http, https and ftp document
const AnyPageClause = `regexp("^(https?|ftp)://.*?")`

// Sheet is a synthesized style document and the identifier it is registered under
type Sheet struct {
	ID      string
	Content string
}

// Body joins style file contents in declared order followed by inline style text
func Body(fileContents, inline []string) string {
	return strings.Join(fileContents, "") + strings.Join(inline, "")
}

// Clauses returns the document-matching clauses for patterns, deduplicated and
// ordered by rule string.
func Clauses(patterns []*rules.Pattern) []string {
	sorted := make([]*rules.Pattern, len(patterns))
	copy(sorted, patterns)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })

	seen := make(map[string]bool)
	var clauses []string
	for _, p := range sorted {
		if p == nil {
			continue
		}
		var clause string
		switch p.Kind() {
		case rules.KindAnyPage:
			return []string{AnyPageClause}
		case rules.KindRegexp:
			clause = `regexp("` + p.RegexpSource() + `")`
		case rules.KindExactURL:
			clause = "url(" + p.ExactURL() + ")"
		case rules.KindDomain:
			clause = "domain(" + p.Domain() + ")"
		case rules.KindPrefix:
			clause = "url-prefix(" + p.Prefix() + ")"
		default:
			continue
		}
		if !seen[clause] {
			seen[clause] = true
			clauses = append(clauses, clause)
		}
	}
	return clauses
}

// Synthesize builds the scoped style document for body and patterns
func Synthesize(body string, patterns []*rules.Pattern) Sheet {
	content := body
	if clauses := Clauses(patterns); len(clauses) > 0 {
		content = "@-moz-document " + strings.Join(clauses, ",") + " {" + body + "}"
	}
	return Sheet{
		ID:      DataURIPrefix + url.PathEscape(content),
		Content: content,
	}
}
