// Package testutil provides an in-memory browser host for testing pagemod
// components.
//
// Key components:
//   - Host: document source and tab enumerator; tests create tabs, frames and
//     navigations explicitly and creation events fire synchronously
//   - Document / Window / Tab: readiness transitions dispatch DOMContentLoaded
//     and load to the document's window and its ancestors
//   - WorkerFactory: records every worker it starts; workers detach when
//     their document unloads
//   - StyleSheets: records registered sheets and their content
//
// Failures are injected through the Err fields of WorkerFactory and
// StyleSheets.
package testutil
