// Package stylesheet synthesizes the scoped user style sheet of a page
// modification and keeps exactly one registration of it alive with the host.
//
// The synthesized document wraps the style body in an @-moz-document block
// whose clauses mirror the modification's rules:
//
//	@-moz-document domain(example.com),url-prefix(http://example.org/docs) {a{color:red}}
//
// A single any-page rule collapses the clause list to one catch-all regexp.
// Without rules the body is registered unwrapped.
package stylesheet
