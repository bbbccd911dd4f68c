// Package pagemod injects content scripts and style sheets into documents
// whose URL matches a set of rules.
//
// A Manager subscribes once to the host's document-creation stream and
// routes every new document to the definitions owning a rule that matches
// its URL. Rules are shared between definitions: each rule string is
// compiled once and kept for as long as some definition subscribes to it.
//
// A Definition decides for each routed document whether it applies (top
// level or frame), waits for the configured readiness phase and then asks
// the host for a worker running its script. Definitions with a style
// payload keep one scoped style sheet registered, regenerated whenever
// their rules change.
//
//	mgr, err := pagemod.NewManager(h)
//	def, err := mgr.NewDefinition(pagemod.Options{
//		Rules:  []string{"*.example.com"},
//		Script: []string{"document.body.dataset.mod = 1"},
//		Style:  []string{"body{color:red}"},
//	})
//	defer def.Dispose()
package pagemod
