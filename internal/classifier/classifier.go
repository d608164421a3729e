// Package classifier decides whether a free-text question is about community
// services. It is a pure keyword and pattern matcher with no model call, so
// off-topic questions can be rejected before any retrieval work.
package classifier

import (
	"regexp"
	"strings"
)

type Reason string

const (
	ReasonCommunityService Reason = "community_service"
	ReasonServiceInquiry   Reason = "service_inquiry"
	ReasonOffTopic         Reason = "off_topic"
)

// communityKeywords covers the supported service categories, generic locator
// words, and known local place names.
var communityKeywords = []string{
	"hospital", "clinic", "doctor", "health", "medical", "pharmacy", "medicine",
	"police", "fire", "emergency", "municipal", "civic", "government", "office",
	"electricity", "water", "gas", "utility", "bill", "power", "tangedco",
	"school", "education", "college", "library", "study", "admission",
	"bus", "metro", "train", "auto", "transport", "travel",
	"bank", "atm", "loan", "account", "financial",
	"grocery", "market", "shop", "store", "ration",
	"salon", "barber", "spa", "beauty",
	"electrician", "plumber", "repair", "service", "pest",
	"legal", "lawyer", "court", "advocate",
	"vet", "veterinary", "pet", "animal",
	"contact", "address", "location", "where", "how", "timings", "hours",
	"near", "nearby", "closest", "available", "open",
	"adyar", "t nagar", "velachery", "besant nagar", "chennai", "tamil nadu",
}

// inquiryPatterns catch service-seeking question shapes that carry no
// category keyword.
var inquiryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(where|find|locate|show|get|need)\b.*\b(service|facility|center|office)\b`),
	regexp.MustCompile(`\bhow (do|can|to)\b.*\b(contact|reach|find)\b`),
	regexp.MustCompile(`\b(timings?|hours?|schedule)\b`),
	regexp.MustCompile(`\b(phone|number|email|website)\b`),
	regexp.MustCompile(`\b(near|nearby|closest|around)\b`),
}

// Classify reports whether the question is in-domain and why. It is
// deterministic and case-insensitive; an empty question is off-topic.
func Classify(question string) (bool, Reason) {
	lower := strings.ToLower(question)

	for _, keyword := range communityKeywords {
		if strings.Contains(lower, keyword) {
			return true, ReasonCommunityService
		}
	}

	for _, pattern := range inquiryPatterns {
		if pattern.MatchString(lower) {
			return true, ReasonServiceInquiry
		}
	}

	return false, ReasonOffTopic
}
