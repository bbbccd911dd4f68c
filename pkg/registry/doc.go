// Package registry provides the collection-backed registry capability used
// by the rule engine: a name-keyed, thread-safe Registry and a
// reference-counted variant that builds an entry on first use and purges it
// when its last owner lets go.
package registry
