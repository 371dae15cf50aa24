package render

// isInlineElement reports whether pretty output keeps tag on the line of
// its parent.
func isInlineElement(tag string) bool {
	switch tag {
	case "a", "abbr", "b", "br", "code", "em", "i", "img", "label",
		"small", "span", "strong", "sub", "sup", "time", "u", "wbr":
		return true
	}
	return false
}

// isBooleanAttr reports whether name is written bare when true and
// omitted when false.
func isBooleanAttr(name string) bool {
	switch name {
	case "async", "autofocus", "checked", "defer", "disabled", "hidden",
		"multiple", "novalidate", "open", "readonly", "required", "selected":
		return true
	}
	return false
}
