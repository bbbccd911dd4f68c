// Package events provides the observable capability shared by the rule
// engine: typed listener lists with cancellable subscriptions and one-shot
// registrations that remove themselves after their first delivery.
package events
