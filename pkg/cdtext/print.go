package cdtext

import (
	"fmt"
	"io"
	"strings"

	"github.com/bgrewell/cdr-kit/pkg/consts"
)

// Print writes the container as a CD_TEXT block in TOC file syntax. The disc level block carries
// the language map.
func (c *Container) Print(w io.Writer, indent string, languageMap bool) error {
	var b strings.Builder
	b.WriteString(indent + "CD_TEXT {\n")

	if languageMap {
		b.WriteString(indent + "  LANGUAGE_MAP {\n")
		for i := 0; i < consts.CDTEXT_MAX_BLOCKS; i++ {
			if l := c.Language(i); l >= 0 {
				fmt.Fprintf(&b, "%s    %d : %d\n", indent, i, l)
			}
		}
		b.WriteString(indent + "  }\n")
	}

	for block := 0; block < consts.CDTEXT_MAX_BLOCKS; block++ {
		items := c.BlockItems(block)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s  LANGUAGE %d {\n", indent, block)
		for _, it := range items {
			name := it.Type.String()
			if !languageMap {
				name = it.Type.TrackString()
			}
			if it.Type.IsText() {
				fmt.Fprintf(&b, "%s    %s %s\n", indent, name, quote(it.Text))
				continue
			}
			data := append(append([]byte(nil), it.Data...), it.Text...)
			parts := make([]string, len(data))
			for i, d := range data {
				parts[i] = fmt.Sprintf("%d", d)
			}
			fmt.Fprintf(&b, "%s    %s { %s }\n", indent, name, strings.Join(parts, ", "))
		}
		fmt.Fprintf(&b, "%s  }\n", indent)
	}
	b.WriteString(indent + "}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// quote escapes a string the way the TOC file lexer expects it.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, "\\%03o", r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
