// Package rules compiles URL-matching rules and keeps the rule sets owned by
// page modifications.
//
// # Pattern Conventions
//
// The kind of a rule is decided once, when it is compiled, from its syntax:
//
//   - `*` - any web page (http, https and ftp URLs)
//   - `*.example.com` - domain match: example.com and all of its subdomains
//   - `example.com` - bare host, same as `*.example.com`
//   - `http://example.com/docs/*` - URL prefix match (trailing `*` optional)
//   - `|http://example.com/page|` - exact URL match (pipe-anchored)
//   - `/^https?://[^/]+\.org/.*$/` - regular expression, slash-delimited,
//     which must match the entire URL
//
// Any other syntax fails to compile with a RULE_COMPILE error. Matching
// itself never fails: a URL that cannot be parsed simply does not match
// host-based rules.
package rules
