package ingest

import "strings"

// StripHTML removes markup and returns the visible text with collapsed
// whitespace. Script and style blocks are dropped entirely; every other
// tag is replaced by a space.
func StripHTML(html string) string {
	html = removeTagBlock(html, "script")
	html = removeTagBlock(html, "style")

	var result strings.Builder

	inTag := false

	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false

			result.WriteRune(' ')
		case !inTag:
			result.WriteRune(r)
		}
	}

	return collapseWhitespace(result.String())
}

// removeTagBlock removes all content between <tag> and </tag>.
func removeTagBlock(html, tag string) string {
	startTag := "<" + tag
	endTag := "</" + tag + ">"

	result := html

	for {
		lowerResult := strings.ToLower(result)

		startIdx := strings.Index(lowerResult, startTag)
		if startIdx == -1 || startIdx >= len(result) {
			break
		}

		endIdx := strings.Index(lowerResult[startIdx:], endTag)
		if endIdx == -1 {
			result = result[:startIdx]

			break
		}

		endPos := startIdx + endIdx + len(endTag)
		if endPos > len(result) {
			result = result[:startIdx]

			break
		}

		result = result[:startIdx] + result[endPos:]
	}

	return result
}

func collapseWhitespace(s string) string {
	var result strings.Builder

	prevWasSpace := true

	for _, r := range s {
		isSpace := r == ' ' || r == '\t' || r == '\n' || r == '\r'
		if isSpace {
			if !prevWasSpace {
				result.WriteRune(' ')
			}

			prevWasSpace = true
		} else {
			result.WriteRune(r)

			prevWasSpace = false
		}
	}

	return strings.TrimSpace(result.String())
}
