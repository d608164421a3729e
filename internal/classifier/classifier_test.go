package classifier

import "testing"

func TestClassifyCommunityKeywords(t *testing.T) {
	tests := []struct {
		name     string
		question string
	}{
		{"hospital", "Is there a hospital in Adyar?"},
		{"uppercase", "WHERE IS THE NEAREST PHARMACY"},
		{"utility", "My electricity bill is too high"},
		{"place name", "What can I do in Velachery today?"},
		{"transport", "When does the metro start running?"},
		{"locator word", "What shops are open right now?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inDomain, reason := Classify(tt.question)
			if !inDomain {
				t.Fatalf("Classify(%q) = off-topic, want in-domain", tt.question)
			}
			if reason != ReasonCommunityService {
				t.Errorf("Classify(%q) reason = %q, want %q", tt.question, reason, ReasonCommunityService)
			}
		})
	}
}

func TestClassifyInquiryPatterns(t *testing.T) {
	tests := []struct {
		name     string
		question string
	}{
		{"phone request", "give me the phone for the temple"},
		{"schedule request", "tell me the schedule please"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inDomain, reason := Classify(tt.question)
			if !inDomain {
				t.Fatalf("Classify(%q) = off-topic, want in-domain", tt.question)
			}
			if reason != ReasonServiceInquiry {
				t.Errorf("Classify(%q) reason = %q, want %q", tt.question, reason, ReasonServiceInquiry)
			}
		})
	}
}

func TestClassifyOffTopic(t *testing.T) {
	tests := []struct {
		name     string
		question string
	}{
		{"empty", ""},
		{"general knowledge", "What is the capital of France?"},
		{"joke", "Tell me a joke"},
		{"gibberish", "asdkj random gibberish"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inDomain, reason := Classify(tt.question)
			if inDomain {
				t.Fatalf("Classify(%q) = in-domain (%s), want off-topic", tt.question, reason)
			}
			if reason != ReasonOffTopic {
				t.Errorf("Classify(%q) reason = %q, want %q", tt.question, reason, ReasonOffTopic)
			}
		})
	}
}
