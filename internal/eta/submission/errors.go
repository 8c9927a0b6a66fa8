package submission

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/etabridge/internal/eta/client"
)

// FormatErrorDetails renders an authority rejection for operators.
func FormatErrorDetails(e client.AuthorityError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error Message: %s\n", orDefault(e.Message, "No error message provided"))
	fmt.Fprintf(&b, "Target: %s\n", orDefault(e.Target, "N/A"))
	for _, d := range e.Details {
		b.WriteString("\nDetail:\n")
		fmt.Fprintf(&b, "  Code: %s\n", orDefault(d.Code, "N/A"))
		fmt.Fprintf(&b, "  Message: %s\n", orDefault(d.Message, "No message provided"))
		fmt.Fprintf(&b, "  Target: %s\n", orDefault(d.Target, "N/A"))
		fmt.Fprintf(&b, "  Property Path: %s\n", orDefault(d.PropertyPath, "N/A"))
	}
	return b.String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
