package config

import (
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default("journal-1")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Journal.ID != "journal-1" {
		t.Fatalf("journal id = %q", cfg.Journal.ID)
	}
	if len(cfg.Themes.Catalog) == 0 {
		t.Fatal("default config has no theme catalog")
	}
}

func TestFromYAMLRejectsBadQuestions(t *testing.T) {
	yaml := strings.Replace(GenerateDefault("journal-1"),
		"- \"What stood out about this?\"", "", 1)
	if _, err := FromYAML([]byte(yaml)); err == nil {
		t.Fatal("expected error for empty quick question set")
	}
}

func TestQuestionsForFallsBack(t *testing.T) {
	cfg := Default("journal-1")
	if qs := cfg.QuestionsFor("monthly"); len(qs) == 0 {
		t.Fatal("expected monthly questions")
	}
	weekly := cfg.QuestionsFor("weekly")
	if len(weekly) != len(cfg.Questions.Weekly) {
		t.Fatal("weekly period should fall back to the weekly set")
	}
}
