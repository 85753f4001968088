package llm

import (
	"context"
	"fmt"
)

// StaticResponder produces deterministic placeholder responses shaped by
// template type. It needs no network access, so generation runs are
// byte-for-byte reproducible.
type StaticResponder struct{}

// NewStaticResponder creates the offline responder.
func NewStaticResponder() *StaticResponder {
	return &StaticResponder{}
}

func (r *StaticResponder) Name() string {
	return ProviderStatic
}

func (r *StaticResponder) Respond(_ context.Context, req *Request) (string, error) {
	switch req.TemplateType {
	case "question_answer":
		return fmt.Sprintf(`**Question:** How would you implement this functionality as an Expert %s?

**Answer:** As an Expert %s, I would approach this implementation by focusing on %s. The solution should leverage %s technologies to ensure scalability and maintainability.

[This is a placeholder response - in production, this would be generated by an LLM using the full prompt]`,
			req.RoleTitle, req.RoleTitle,
			joinFirst(req.FocusAreas, 2), joinFirst(req.Technologies, 3)), nil

	case "code_review":
		return fmt.Sprintf(`**Code Review Summary:**

**Overall Assessment:** This code demonstrates solid understanding of %s fundamentals.

**Strengths:**
- Clean structure and readable implementation
- Appropriate use of %s patterns

**Areas for Improvement:**
- Consider adding error handling
- Add comprehensive documentation
- Implement proper testing coverage

**Recommended Changes:**
[Specific code improvements would be provided here]

**Additional Recommendations:**
Based on my expertise in %s, I recommend implementing proper logging and monitoring.

Review conducted by: Expert %s`,
			req.Language, req.Language,
			joinFirst(req.FocusAreas, 2), req.RoleTitle), nil

	case "implementation_task":
		return fmt.Sprintf(`**Implementation Task:**

**Scenario:** [Realistic scenario based on the knowledge context]

**Requirements:**
- Implement using %s
- Follow %s best practices

**Implementation:**
[Complete solution would be provided here]

**Architecture Decisions:** [Professional design choices explained]

Implemented by: Expert %s`,
			joinFirst(req.Technologies, 2), joinFirst(req.FocusAreas, 2), req.RoleTitle), nil

	case "debugging_scenario":
		return fmt.Sprintf(`**Debugging Scenario:**

**Problem Description:** [Issue description based on code]

**Debugging Process:**
1. **Problem Analysis:** Applied systematic debugging approach
2. **Root Cause:** Identified the core issue
3. **Solution:** Implemented proper fix
4. **Prevention:** Recommended best practices

Debugged by: Expert %s`, req.RoleTitle), nil

	case "multi_turn_conversation":
		return fmt.Sprintf(`**Multi-Turn Conversation:**

**Turn 1:**
*Client:* [Initial request]
*Expert %s:* [Professional guidance]

**Turn 2:**
*Client:* [Follow-up question]
*Expert %s:* [Detailed technical response]

[Additional turns would continue here]

**Conversation Summary:**
Technologies Discussed: %s
Key Insights: Professional expertise demonstrated throughout`,
			req.RoleTitle, req.RoleTitle, joinFirst(req.Technologies, 3)), nil

	default:
		return fmt.Sprintf("Professional response from Expert %s", req.RoleTitle), nil
	}
}
