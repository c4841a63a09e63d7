package elf

import (
	"bytes"
)

// A decoded section: its header plus an owned copy of its content.  The
// content length always equals the header's declared size.
type Section struct {
	SectionHeader

	Content []byte
}

// StringAt treats the section content as a string table and returns the
// null terminated string starting at the given byte offset.  A string that
// runs off the end of the content without a terminator is returned as is.
func (section *Section) StringAt(offset uint32) string {
	return stringAt(section.Content, offset)
}

// Strings returns every null terminated string in the section content, in
// storage order.  Useful for string table sections.
func (section *Section) Strings() []string {
	result := []string{}

	content := section.Content
	for len(content) > 0 {
		end := bytes.IndexByte(content, 0)
		if end == -1 {
			result = append(result, string(content))
			break
		}

		if end > 0 {
			result = append(result, string(content[:end]))
		}
		content = content[end+1:]
	}

	return result
}

func stringAt(table []byte, offset uint32) string {
	if uint64(offset) >= uint64(len(table)) {
		return ""
	}

	chunk := table[offset:]
	end := bytes.IndexByte(chunk, 0)
	if end == -1 {
		// Unterminated entry.  Use everything up to the end of the table.
		end = len(chunk)
	}

	return string(chunk[:end])
}
