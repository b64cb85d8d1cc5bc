package execution

import (
	"fmt"
	"strings"

	"github.com/atzentis/atzentis/internal/domain/model"
)

// buildPrompt renders a minimal prompt from a task's resolved fields.
// The real prompt template engine is an out-of-scope collaborator
// (spec.md §1); this is the plain-text stand-in the executor feeds the
// agent engine.
func buildPrompt(task model.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task %s: %s\n", task.ID.String(), task.Name)
	if task.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", task.Description)
	}
	writeList(&b, "Requirements", task.Requirements)
	writeList(&b, "Business rules", task.BusinessRules)
	writeList(&b, "Acceptance criteria", task.AcceptanceCriteria)
	writeList(&b, "Testing requirements", task.TestingRequirements)
	if len(task.Files) > 0 {
		writeList(&b, "Files", task.Files)
	}
	b.WriteString("\nSignal completion with <promise>COMPLETE</promise> once done.\n")
	return b.String()
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
