// ABOUTME: Tests for the tool intent classifier
// ABOUTME: Tests exact matches, fuzzy STT drift and confidence math
package intent

import (
	"testing"
)

func TestNoIntent(t *testing.T) {
	c := NewClassifier()

	for _, transcript := range []string{
		"",
		"   ",
		"tell me a story about dragons",
	} {
		got := c.DetectToolIntent(transcript)
		if got.RequiresTools {
			t.Errorf("%q: expected no tools, got %v", transcript, got.DetectedTools)
		}
		if got.Confidence != 0 {
			t.Errorf("%q: expected zero confidence, got %v", transcript, got.Confidence)
		}
	}
}

func TestExactKeyword(t *testing.T) {
	c := NewClassifier()

	got := c.DetectToolIntent("what's the weather today")
	if !got.RequiresTools {
		t.Fatal("expected tools required")
	}
	if len(got.DetectedTools) != 1 || got.DetectedTools[0] != "weather" {
		t.Errorf("expected [weather], got %v", got.DetectedTools)
	}
}

func TestMultipleCategories(t *testing.T) {
	c := NewClassifier()

	got := c.DetectToolIntent("search my calendar for the next meeting")
	want := map[string]bool{"search": true, "calendar": true}

	if len(got.DetectedTools) != len(want) {
		t.Fatalf("expected %d categories, got %v", len(want), got.DetectedTools)
	}
	for _, tool := range got.DetectedTools {
		if !want[tool] {
			t.Errorf("unexpected category %q", tool)
		}
	}
}

func TestFuzzyMatchSingleEdit(t *testing.T) {
	c := NewClassifier()

	// "forecst" is one deletion from "forecast"; STT drift like this
	// must still classify.
	got := c.DetectToolIntent("show me the forecst")
	if !got.RequiresTools || len(got.DetectedTools) != 1 || got.DetectedTools[0] != "weather" {
		t.Errorf("expected fuzzy weather match, got %+v", got)
	}
}

func TestShortWordsMatchExactOnly(t *testing.T) {
	c := NewClassifier()

	// "fund" is distance 1 from "find", but four-letter words never
	// fuzzy-match.
	got := c.DetectToolIntent("fund the project")
	if got.RequiresTools {
		t.Errorf("expected no fuzzy match on short word, got %v", got.DetectedTools)
	}
}

func TestPunctuationStripped(t *testing.T) {
	c := NewClassifier()

	got := c.DetectToolIntent("set a timer, please")
	if !got.RequiresTools || got.DetectedTools[0] != "timer" {
		t.Errorf("expected timer despite trailing comma, got %+v", got)
	}
}

func TestConfidence(t *testing.T) {
	c := NewClassifier()

	// 1 matching word out of 4.
	got := c.DetectToolIntent("what is the weather")
	if got.Confidence != 0.25 {
		t.Errorf("expected confidence 0.25, got %v", got.Confidence)
	}

	// 2 matching words out of 2.
	got = c.DetectToolIntent("weather forecast")
	if got.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %v", got.Confidence)
	}
}

func TestCaseInsensitive(t *testing.T) {
	c := NewClassifier()

	got := c.DetectToolIntent("SEARCH for cat videos")
	if !got.RequiresTools || got.DetectedTools[0] != "search" {
		t.Errorf("expected case-insensitive match, got %+v", got)
	}
}
