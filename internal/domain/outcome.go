package domain

// Outcome is the typed result the core hands to the presentation layer
type Outcome string

const (
	OutcomeFound             Outcome = "found"
	OutcomeNotFound          Outcome = "not_found"
	OutcomeNewItemsAvailable Outcome = "new_items_available"
	OutcomeNoChange          Outcome = "no_change"
)
