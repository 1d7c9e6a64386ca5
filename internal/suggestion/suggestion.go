package suggestion

import (
	"context"
	"fmt"
	"strings"
)

type Generator interface {
	Generate(ctx context.Context, roomContext, relationship string) (string, error)
}

const defaultRelationship = "friends"

// Prompt builds the conversation-starter request sent to the model.
func Prompt(roomContext, relationship string) string {
	relationship = strings.TrimSpace(relationship)
	if relationship == "" {
		relationship = defaultRelationship
	}

	var b strings.Builder
	b.WriteString("You are helping two people watching a movie together have a meaningful conversation.\n")
	fmt.Fprintf(&b, "Their relationship is: %s.\n", relationship)
	fmt.Fprintf(&b, "The current movie context is: %s\n", roomContext)
	b.WriteString("Generate a natural conversation starter or question that would be appropriate for their relationship and the current movie scene.")

	return b.String()
}
