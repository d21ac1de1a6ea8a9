package builtin

import (
	"strings"

	"retailetl/pkg/records"
)

// TidyDescription strips markup tags from descriptions and collapses runs of
// whitespace. A description that ends up empty is set to Empty.
type TidyDescription struct {
	Empty string
}

func (t TidyDescription) Apply(in records.Batch) records.Batch {
	out := make(records.Batch, len(in))
	for i, tx := range in {
		if tx.Description != nil {
			s := TidyText(*tx.Description)
			if s == "" {
				s = t.Empty
			}
			tx.Description = records.StringPtr(s)
		}
		out[i] = tx
	}
	return out
}

// TidyText removes <...> sequences from s, then collapses whitespace.
func TidyText(s string) string {
	if s == "" {
		return s
	}
	return CollapseWhitespace(StripTags(s))
}

// StripTags drops everything between '<' and the next '>', delimiters
// included. It is a heuristic, not an HTML parser.
func StripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch r {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// CollapseWhitespace replaces runs of space, tab, CR and LF with one space
// and trims both ends.
func CollapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	seenSpace := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
			if !seenSpace {
				b.WriteByte(' ')
				seenSpace = true
			}
		default:
			b.WriteRune(r)
			seenSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}
