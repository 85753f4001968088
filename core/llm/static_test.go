package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/adalundhe/scholar/core/config"
	scherr "github.com/adalundhe/scholar/core/errors"
)

func staticRequest(templateType string) *Request {
	return &Request{
		Prompt:       "rendered prompt",
		TemplateType: templateType,
		RoleTitle:    "Solution Architect",
		Technologies: []string{"go", "sqlite", "docker", "kubernetes"},
		FocusAreas:   []string{"scalability", "reliability", "cost"},
		Language:     "go",
	}
}

func TestStaticResponderDeterministic(t *testing.T) {
	r := NewStaticResponder()
	ctx := context.Background()

	first, err := r.Respond(ctx, staticRequest("question_answer"))
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	second, err := r.Respond(ctx, staticRequest("question_answer"))
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if first != second {
		t.Error("static responses differ between calls")
	}
}

func TestStaticResponderTemplateShapes(t *testing.T) {
	r := NewStaticResponder()
	ctx := context.Background()

	cases := []struct {
		templateType string
		contains     string
	}{
		{"question_answer", "**Question:**"},
		{"code_review", "**Code Review Summary:**"},
		{"implementation_task", "**Implementation Task:**"},
		{"debugging_scenario", "**Debugging Scenario:**"},
		{"multi_turn_conversation", "**Multi-Turn Conversation:**"},
		{"something_else", "Professional response from Expert Solution Architect"},
	}

	for _, tc := range cases {
		got, err := r.Respond(ctx, staticRequest(tc.templateType))
		if err != nil {
			t.Fatalf("%s: Respond failed: %v", tc.templateType, err)
		}
		if !strings.Contains(got, tc.contains) {
			t.Errorf("%s: response missing %q", tc.templateType, tc.contains)
		}
	}
}

func TestStaticResponderLimitsLists(t *testing.T) {
	r := NewStaticResponder()
	got, err := r.Respond(context.Background(), staticRequest("question_answer"))
	if err != nil {
		t.Fatalf("Respond failed: %v", err)
	}
	if !strings.Contains(got, "scalability, reliability") {
		t.Error("focus areas not joined")
	}
	if strings.Contains(got, "cost") {
		t.Error("focus areas not limited to two")
	}
	if !strings.Contains(got, "go, sqlite, docker") {
		t.Error("technologies not joined")
	}
	if strings.Contains(got, "kubernetes") {
		t.Error("technologies not limited to three")
	}
}

func TestNewResponderProviders(t *testing.T) {
	for _, provider := range []string{"", ProviderStatic, ProviderAnthropic, ProviderOpenAI} {
		r, err := NewResponder(config.LLMConfig{Provider: provider})
		if err != nil {
			t.Errorf("provider %q: %v", provider, err)
			continue
		}
		if r == nil {
			t.Errorf("provider %q: nil responder", provider)
		}
	}

	_, err := NewResponder(config.LLMConfig{Provider: "crystal_ball"})
	if err == nil || scherr.GetKind(err) != scherr.KindConfiguration {
		t.Errorf("unknown provider: got %v", err)
	}
}
