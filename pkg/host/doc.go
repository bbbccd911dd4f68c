// Package host describes the collaborators the rule engine consumes from the
// embedding browser host: the document-creation stream, documents and their
// windows, the tab enumerator, the worker factory, the style-sheet service
// and the URL reader. The engine never implements these itself.
package host
