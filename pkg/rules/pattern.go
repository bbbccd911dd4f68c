package rules

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/arthur-debert/pagemod/pkg/errors"
)

// Pattern is a compiled rule
type Pattern struct {
	source   string
	kind     Kind
	exactURL string
	domain   string
	prefix   string
	reSource string
	re       *regexp.Regexp
}

// Compile parses a rule string into a Pattern
func Compile(rule string) (*Pattern, error) {
	p := &Pattern{source: rule}

	switch {
	case rule == "":
		return nil, compileError(rule, "rule cannot be empty")

	case rule == AnyPage:
		p.kind = KindAnyPage

	case len(rule) > 2 && strings.HasPrefix(rule, "/") && strings.HasSuffix(rule, "/"):
		source := rule[1 : len(rule)-1]
		re, err := regexp.Compile("^(?:" + source + ")$")
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrRuleCompile, "invalid regular expression in rule %q", rule).
				WithDetail("pattern", rule)
		}
		p.kind = KindRegexp
		p.reSource = source
		p.re = re

	case len(rule) > 2 && strings.HasPrefix(rule, "|") && strings.HasSuffix(rule, "|"):
		exact := rule[1 : len(rule)-1]
		if strings.Contains(exact, "*") || !isAbsoluteURL(exact) {
			return nil, compileError(rule, "exact URL rules need an absolute URL without wildcards")
		}
		p.kind = KindExactURL
		p.exactURL = exact

	case strings.HasPrefix(rule, "*."):
		domain := strings.ToLower(rule[2:])
		if !isHostname(domain) {
			return nil, compileError(rule, "invalid domain in wildcard rule")
		}
		p.kind = KindDomain
		p.domain = domain

	case strings.Contains(rule, "://"):
		prefix := rule
		if strings.HasSuffix(prefix, "*") {
			prefix = prefix[:len(prefix)-1]
		}
		if strings.Contains(prefix, "*") {
			return nil, compileError(rule, "'*' is only allowed at the end of a URL prefix rule")
		}
		if !isAbsoluteURL(prefix) {
			return nil, compileError(rule, "invalid URL in prefix rule")
		}
		p.kind = KindPrefix
		p.prefix = prefix

	case isHostname(strings.ToLower(rule)):
		p.kind = KindDomain
		p.domain = strings.ToLower(rule)

	default:
		return nil, compileError(rule, "unrecognized rule syntax")
	}

	return p, nil
}

// MustCompile is like Compile but panics on error
func MustCompile(rule string) *Pattern {
	p, err := Compile(rule)
	if err != nil {
		panic(err)
	}
	return p
}

func compileError(rule, reason string) error {
	return errors.Newf(errors.ErrRuleCompile, "%s: %q", reason, rule).WithDetail("pattern", rule)
}

// String returns the rule string the pattern was compiled from
func (p *Pattern) String() string { return p.source }

// Kind returns the matching strategy
func (p *Pattern) Kind() Kind { return p.kind }

// ExactURL returns the URL of an exact-URL rule
func (p *Pattern) ExactURL() string { return p.exactURL }

// Domain returns the host of a domain rule, without any "*." prefix
func (p *Pattern) Domain() string { return p.domain }

// Prefix returns the URL prefix of a prefix rule, without the trailing "*"
func (p *Pattern) Prefix() string { return p.prefix }

// RegexpSource returns the expression of a regexp rule as written
func (p *Pattern) RegexpSource() string { return p.reSource }

// Test reports whether rawURL satisfies the rule
func (p *Pattern) Test(rawURL string) bool {
	switch p.kind {
	case KindAnyPage:
		u, err := url.Parse(rawURL)
		return err == nil && webSchemes[strings.ToLower(u.Scheme)]
	case KindExactURL:
		return rawURL == p.exactURL
	case KindPrefix:
		return strings.HasPrefix(rawURL, p.prefix)
	case KindRegexp:
		return p.re.MatchString(rawURL)
	case KindDomain:
		u, err := url.Parse(rawURL)
		if err != nil {
			return false
		}
		host := strings.ToLower(u.Hostname())
		return host == p.domain || strings.HasSuffix(host, "."+p.domain)
	}
	return false
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque != "" || u.Path != "")
}

// isHostname accepts dot-separated labels of letters, digits and hyphens
func isHostname(s string) bool {
	if s == "" || len(s) > 253 {
		return false
	}
	for _, label := range strings.Split(s, ".") {
		if label == "" || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
		for _, c := range label {
			switch {
			case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-':
			default:
				return false
			}
		}
	}
	return true
}
