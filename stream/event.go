package stream

import (
	"time"

	"github.com/jonwraymond/productsearch/aggregate"
)

// Kind distinguishes stream events.
type Kind string

const (
	KindStart          Kind = "start"
	KindProviderResult Kind = "providerResult"
)

// StartPayload is the payload of the start event.
type StartPayload struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

// Event is one message on a session.
type Event struct {
	Kind        Kind
	ProviderKey string

	// Payload is a StartPayload for start events and an aggregate.Outcome
	// for provider results.
	Payload any
}

// Name returns the transport event name: "start" for the start event and
// the provider key for provider results.
func (e Event) Name() string {
	if e.Kind == KindStart {
		return string(KindStart)
	}
	return e.ProviderKey
}

// Outcome returns the provider outcome carried by a provider result.
func (e Event) Outcome() (aggregate.Outcome, bool) {
	o, ok := e.Payload.(aggregate.Outcome)
	return o, ok
}
