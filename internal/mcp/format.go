package mcp

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/nmelo/mcp-pinecone/internal/docstore"
	"github.com/nmelo/mcp-pinecone/pkg/types"
)

// excerptLength caps the preview of a match in search output.
const excerptLength = 200

// formatSearchMatches renders search results as readable text.
func formatSearchMatches(query string, matches []docstore.SearchMatch) string {
	if len(matches) == 0 {
		return fmt.Sprintf("No documents matched %q.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d documents for %q:\n", len(matches), query)
	for i, match := range matches {
		title := match.Title
		if title == "" {
			title = match.ID
		}
		fmt.Fprintf(&b, "\n%d. %s (id: %s, score: %.4f)\n", i+1, title, match.ID, match.Score)
		if match.Text != "" {
			fmt.Fprintf(&b, "   %s\n", excerpt(match.Text, excerptLength))
		}
	}
	return b.String()
}

// formatSummaries renders a document listing as readable text.
func formatSummaries(summaries []docstore.Summary) string {
	if len(summaries) == 0 {
		return "No documents stored."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Stored documents (%d):\n", len(summaries))
	for _, summary := range summaries {
		if summary.Title != "" {
			fmt.Fprintf(&b, "- %s: %s\n", summary.ID, summary.Title)
		} else {
			fmt.Fprintf(&b, "- %s\n", summary.ID)
		}
	}
	return b.String()
}

// formatDocument renders a full document as readable text.
func formatDocument(doc *docstore.Document) string {
	var b strings.Builder
	if doc.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	}
	fmt.Fprintf(&b, "%s\n", doc.Text)
	if len(doc.Metadata) > 0 {
		b.WriteString("\nMetadata:\n")
		for _, key := range slices.Sorted(maps.Keys(doc.Metadata)) {
			fmt.Fprintf(&b, "- %s: %v\n", key, doc.Metadata[key])
		}
	}
	return b.String()
}

// formatStats renders index statistics as readable text.
func formatStats(stats *types.IndexStats) string {
	var b strings.Builder
	b.WriteString("Pinecone index stats:\n")
	fmt.Fprintf(&b, "- dimension: %d\n", stats.Dimension)
	fmt.Fprintf(&b, "- total vectors: %d\n", stats.TotalVectorCount)
	fmt.Fprintf(&b, "- index fullness: %.4f\n", stats.IndexFullness)
	if len(stats.Namespaces) > 0 {
		b.WriteString("- namespaces:\n")
		for _, name := range slices.Sorted(maps.Keys(stats.Namespaces)) {
			label := name
			if label == "" {
				label = "(default)"
			}
			fmt.Fprintf(&b, "  - %s: %d vectors\n", label, stats.Namespaces[name])
		}
	}
	return b.String()
}

// excerpt truncates text for display at a rune boundary.
func excerpt(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

// strArg reads a string argument, returning "" when absent or mistyped.
func strArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// intArg reads an integer argument, returning 0 when absent or mistyped.
// JSON numbers decode as float64.
func intArg(args map[string]any, key string) int {
	switch n := args[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

// objArg reads an object argument, returning nil when absent or mistyped.
func objArg(args map[string]any, key string) map[string]any {
	if v, ok := args[key].(map[string]any); ok {
		return v
	}
	return nil
}
