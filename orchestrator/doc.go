// Package orchestrator fans one query out to every registered provider and
// collects the outcomes.
//
// Each provider gets exactly one attempt under its own timeout. A provider
// that errors, panics or times out yields a failure outcome for its slot and
// never affects the others. Run returns only after every slot has settled,
// and lists outcomes in registration order regardless of completion order.
//
// When a provider's timeout fires, the context passed to its Fetch is
// cancelled. Providers that ignore cancellation keep running until they
// return on their own; their late result is discarded.
package orchestrator
