package tracking

import "time"

// Event is one analytics event consumed from the events topic.
type Event struct {
	EventName  string           `json:"event"`
	UserID     string           `json:"user_id"`
	Timestamp  time.Time        `json:"timestamp"`
	Properties map[string]any   `json:"properties,omitempty"`
	Items      []map[string]any `json:"items,omitempty"`
}

// BatchItem is the transformed shape posted to the tracking endpoint.
// Index is the event's position in the source slice; the endpoint reports
// per-item errors by index, so correlation must survive skipped entries.
type BatchItem struct {
	Index      int              `json:"index"`
	EventName  string           `json:"event"`
	UserID     string           `json:"user_id"`
	Timestamp  time.Time        `json:"timestamp"`
	Properties map[string]any   `json:"properties,omitempty"`
	Items      []map[string]any `json:"items,omitempty"`
}

// purchaseEvent entries carry line items; without any there is nothing to
// report and the entry resolves to a skip.
const purchaseEvent = "purchase"

// identifyEvent entries describe the user, not an action; they route to the
// CRM sink instead of the tracking batch.
const identifyEvent = "identify"

// Transform converts one event. ok is false when the entry is a skip.
// Pure: no shared state, input is not mutated.
func Transform(index int, ev Event) (BatchItem, bool) {
	if ev.EventName == "" || ev.UserID == "" {
		return BatchItem{}, false
	}
	if ev.EventName == purchaseEvent && len(ev.Items) == 0 {
		return BatchItem{}, false
	}

	return BatchItem{
		Index:      index,
		EventName:  ev.EventName,
		UserID:     ev.UserID,
		Timestamp:  ev.Timestamp,
		Properties: ev.Properties,
		Items:      ev.Items,
	}, true
}

// BuildBatch transforms each event independently and assembles the batch in
// original order. Skipped positions contribute no item but their indexes
// are never reused.
func BuildBatch(events []Event) []BatchItem {
	items := make([]BatchItem, 0, len(events))
	for i, ev := range events {
		if item, ok := Transform(i, ev); ok {
			items = append(items, item)
		}
	}
	return items
}
