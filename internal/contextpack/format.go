package contextpack

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rcliao/agent-brain/internal/model"
)

// maxFiles caps the files line of a section.
const maxFiles = 5

// FormatItem renders a memory item as a self-contained markdown section.
func FormatItem(it model.MemoryItem) string {
	return formatSection(it, nil)
}

// FormatResult renders a search result, including its similarity.
func FormatResult(r model.SearchResult) string {
	sim := r.Similarity
	return formatSection(r.MemoryItem, &sim)
}

func formatSection(it model.MemoryItem, similarity *float64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### %s\n", it.Title)

	var meta []string
	if similarity != nil {
		meta = append(meta, fmt.Sprintf("similarity: %.3f", *similarity))
	}
	meta = append(meta, fmt.Sprintf("confidence: %.2f", it.Confidence))
	if it.Importance != nil {
		meta = append(meta, fmt.Sprintf("importance: %.2f", *it.Importance))
	}
	if it.Type != "" {
		meta = append(meta, "type: "+it.Type)
	}
	if it.SchemaKey != "" {
		meta = append(meta, "key: "+it.SchemaKey)
	}
	fmt.Fprintf(&b, "> %s\n", strings.Join(meta, " | "))

	if len(it.Files) > 0 {
		files := it.Files
		if len(files) > maxFiles {
			files = files[:maxFiles]
		}
		fmt.Fprintf(&b, "> files: %s\n", strings.Join(files, ", "))
	}

	b.WriteString("\n")
	b.WriteString(it.Facts)
	b.WriteString("\n\n")
	return b.String()
}

// groupKey is the category prefix of a schema key: its first two segments.
func groupKey(schemaKey string) string {
	parts := strings.SplitN(strings.Trim(schemaKey, "/"), "/", 3)
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, "/")
}

// groupHeader renders the section header for a category prefix,
// e.g. "root/security" becomes "## Security".
func groupHeader(prefix string) string {
	name := prefix
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	name = strings.TrimSpace(name)
	if name == "" {
		return "## General\n\n"
	}
	r, size := utf8.DecodeRuneInString(name)
	return "## " + string(unicode.ToUpper(r)) + name[size:] + "\n\n"
}
