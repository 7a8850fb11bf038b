package models

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	StatusPending       OrderStatus = "pending"
	StatusConfirmed     OrderStatus = "confirmed"
	StatusSentToKitchen OrderStatus = "sent_to_kitchen"
	StatusProcessing    OrderStatus = "processing"
	StatusCompleted     OrderStatus = "completed"
	StatusServed        OrderStatus = "served"
	StatusCancelled     OrderStatus = "cancelled"
)

// AllStatuses returns every canonical status token
func AllStatuses() []OrderStatus {
	return []OrderStatus{
		StatusPending,
		StatusConfirmed,
		StatusSentToKitchen,
		StatusProcessing,
		StatusCompleted,
		StatusServed,
		StatusCancelled,
	}
}

// transitions encodes the legal status graph. A missing entry means the
// state is terminal. Self-transitions are handled by ValidateTransition,
// not by the graph.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:       {StatusConfirmed, StatusCancelled},
	StatusConfirmed:     {StatusSentToKitchen, StatusCancelled},
	StatusSentToKitchen: {StatusProcessing, StatusCancelled},
	StatusProcessing:    {StatusCompleted, StatusCancelled},
	StatusCompleted:     {StatusServed},
	StatusServed:        {},
	StatusCancelled:     {},
}

// statusAliases maps localized display labels onto canonical tokens.
// Keys are in normalized form (see NormalizeKey); the accented Vietnamese
// labels used by the staff and kitchen front-ends fold onto these.
var statusAliases = map[string]OrderStatus{
	"cho xac nhan":  StatusPending,
	"da xac nhan":   StatusConfirmed,
	"cho bep":       StatusSentToKitchen,
	"gui bep":       StatusSentToKitchen,
	"bep dang lam":  StatusProcessing,
	"dang che bien": StatusProcessing,
	"hoan thanh":    StatusCompleted,
	"da phuc vu":    StatusServed,
	"da huy":        StatusCancelled,
	"huy":           StatusCancelled,
}

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeKey folds a human-entered token into a canonical lookup key:
// lower-cased, diacritics stripped, underscores and dashes treated as
// spaces, runs of whitespace collapsed. Vietnamese đ folds to d since it
// carries no combining mark.
func NormalizeKey(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	if folded, _, err := transform.String(diacriticStripper, s); err == nil {
		s = folded
	}
	s = strings.Map(func(r rune) rune {
		if r == 'đ' {
			return 'd'
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// ParseStatus normalizes a raw status token and resolves it to a
// canonical status, accepting localized aliases
func ParseStatus(raw string) (OrderStatus, error) {
	key := NormalizeKey(raw)
	if key == "" {
		return "", NewError(KindValidation, "status is required")
	}

	for _, status := range AllStatuses() {
		if NormalizeKey(string(status)) == key {
			return status, nil
		}
	}

	if status, ok := statusAliases[key]; ok {
		return status, nil
	}

	return "", Errorf(KindValidation, "unknown status %q", raw)
}

// ValidateTransition checks the status graph. A transition to the current
// status is always allowed (idempotent no-op); anything else must appear
// in the graph or the call fails with a conflict naming both states.
func ValidateTransition(from, to OrderStatus) error {
	if from == to {
		return nil
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return Errorf(KindConflict, "illegal status transition from %s to %s", from, to)
}

// IsTerminal reports whether no further transitions exist from s
func (s OrderStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// nonDineInTypes is the recognized family of channel types that never
// occupy a table. Anything else, including the empty default, is treated
// as dine-in.
var nonDineInTypes = map[string]bool{
	"takeout":   true,
	"takeaway":  true,
	"take away": true,
	"to go":     true,
	"delivery":  true,
	"mang ve":   true,
	"giao hang": true,
}

// RequiresTable reports whether an order of the given channel type
// occupies a physical table
func RequiresTable(orderType string) bool {
	key := NormalizeKey(orderType)
	if key == "" {
		return true
	}
	return !nonDineInTypes[key]
}
