package routing

import (
	"fmt"
	"strings"

	"easymo/pkg/models"
)

// keywordRule binds one keyword to a destination key. The table is an
// explicit ordered slice: when several keywords co-occur in one message,
// the first rule in the table wins, regardless of keyword length or match
// position. Reordering this table changes routing behavior.
type keywordRule struct {
	keyword     string
	destination string
}

// "baskets" is a fixed alias for the basket destination, not a plural
// normalization rule. It sits before "basket" so the alias is reported as
// the matched keyword.
var keywordTable = []keywordRule{
	{"easymo", "easymo"},
	{"insurance", "insurance"},
	{"baskets", "basket"},
	{"basket", "basket"},
	{"qr", "qr"},
	{"dine", "dine"},
}

type RouteDecision struct {
	DestinationKey string
	DestinationURL string
	MatchedKeyword string
}

// Router classifies normalized messages against the keyword table and
// resolves destinations to their configured forwarding URLs.
type Router struct {
	urls map[string]string
}

// NewRouter fails when any destination in the keyword table has no
// configured URL: an unroutable table is a startup-time configuration
// error, never a per-request failure.
func NewRouter(urls map[string]string) (*Router, error) {
	for _, rule := range keywordTable {
		if urls[rule.destination] == "" {
			return nil, fmt.Errorf("destination %q has no forwarding URL configured", rule.destination)
		}
	}
	return &Router{urls: urls}, nil
}

// Classify returns the route decision for a message, or false when no
// keyword matches. The caller must treat false as "no route" and drop the
// message; there is no default destination.
func (r *Router) Classify(msg models.NormalizedMessage) (RouteDecision, bool) {
	text := msg.Text
	if text == "" && msg.Interactive != nil {
		text = msg.Interactive.Title
	}

	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return RouteDecision{}, false
	}

	for _, rule := range keywordTable {
		if strings.Contains(normalized, rule.keyword) {
			return RouteDecision{
				DestinationKey: rule.destination,
				DestinationURL: r.urls[rule.destination],
				MatchedKeyword: rule.keyword,
			}, true
		}
	}

	return RouteDecision{}, false
}

// Resolve maps a destination key to its forwarding URL.
func (r *Router) Resolve(key string) (string, bool) {
	url, ok := r.urls[key]
	if !ok || url == "" {
		return "", false
	}
	return url, true
}

// Keywords lists the evaluated vocabulary in table order, for logging
// routing misses.
func (r *Router) Keywords() []string {
	keywords := make([]string, len(keywordTable))
	for i, rule := range keywordTable {
		keywords[i] = rule.keyword
	}
	return keywords
}
