package rules

// Kind is the matching strategy of a compiled rule
type Kind int

const (
	KindExactURL Kind = iota
	KindDomain
	KindPrefix
	KindRegexp
	KindAnyPage
)

func (k Kind) String() string {
	switch k {
	case KindExactURL:
		return "exact-url"
	case KindDomain:
		return "domain"
	case KindPrefix:
		return "prefix"
	case KindRegexp:
		return "regexp"
	case KindAnyPage:
		return "any-page"
	default:
		return "unknown"
	}
}

// AnyPage is the rule matching every web page
const AnyPage = "*"

// webSchemes are the schemes accepted by the any-page rule
var webSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ftp":   true,
}
