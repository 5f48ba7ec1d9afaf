package slackbot

import (
	"strings"
	"testing"

	"github.com/slack-go/slack/slackevents"

	"kbwatch/internal/domain"
)

func testBot() *Bot {
	return New(nil, nil, "C123", map[domain.Category]bool{
		domain.CategoryProcessUpdate:  true,
		domain.CategoryProductRelease: true,
	}, 0)
}

func TestShouldHandle(t *testing.T) {
	b := testBot()
	cases := []struct {
		name string
		ev   *slackevents.MessageEvent
		want bool
	}{
		{"plain user message", &slackevents.MessageEvent{Channel: "C123", Text: "hello"}, true},
		{"wrong channel", &slackevents.MessageEvent{Channel: "C999", Text: "hello"}, false},
		{"bot message", &slackevents.MessageEvent{Channel: "C123", Text: "hello", BotID: "B1"}, false},
		{"edited message", &slackevents.MessageEvent{Channel: "C123", Text: "hello", SubType: "message_changed"}, false},
		{"channel join", &slackevents.MessageEvent{Channel: "C123", SubType: "channel_join"}, false},
		{"empty text", &slackevents.MessageEvent{Channel: "C123"}, false},
		{"nil event", nil, false},
	}
	for _, tc := range cases {
		if got := b.ShouldHandle(tc.ev); got != tc.want {
			t.Fatalf("%s: ShouldHandle = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFormatRecommendationMatched(t *testing.T) {
	b := testBot()
	msg := b.FormatRecommendation(domain.Recommendation{
		Category:     domain.CategoryProductRelease,
		MatchedTitle: "Dashboard User Guide",
		Confidence:   0.35,
	})
	if !strings.Contains(msg, "Dashboard User Guide") {
		t.Fatalf("matched title missing: %q", msg)
	}
	if !strings.Contains(msg, "0.35") {
		t.Fatalf("relevance missing: %q", msg)
	}
	if !strings.Contains(msg, string(domain.CategoryProductRelease)) {
		t.Fatalf("category missing: %q", msg)
	}
}

func TestFormatRecommendationTriggerNoMatch(t *testing.T) {
	b := testBot()
	msg := b.FormatRecommendation(domain.Recommendation{Category: domain.CategoryProcessUpdate})
	if !strings.Contains(msg, "Consider creating a new one") {
		t.Fatalf("expected new-article suggestion for trigger label, got %q", msg)
	}
}

func TestFormatRecommendationNonTrigger(t *testing.T) {
	b := testBot()
	for _, cat := range []domain.Category{domain.CategorySimpleNotification, domain.CategorySOPChange} {
		msg := b.FormatRecommendation(domain.Recommendation{Category: cat})
		if !strings.Contains(msg, "No knowledge-base update needed") {
			t.Fatalf("expected no-update reply for %q, got %q", cat, msg)
		}
		if strings.Contains(msg, "Consider creating") {
			t.Fatalf("non-trigger label got creation suggestion: %q", msg)
		}
	}
}
