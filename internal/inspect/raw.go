package inspect

import (
	"html"
	"unicode/utf8"
)

// Raw renders v's default text HTML-escaped. When the escaped text is
// longer than limit characters it is replaced by a placeholder naming v's
// type. A limit of Unlimited, or any non-positive limit, disables the
// check.
func Raw(v any, limit int) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = unsupported(exceptionText)
		}
	}()

	text := html.EscapeString(Text(v))
	if exceeds(text, limit) {
		return tooLarge(v)
	}
	return text
}

func exceeds(text string, limit int) bool {
	return limit > 0 && utf8.RuneCountInString(text) > limit
}

func tooLarge(v any) string {
	return unsupported("(object too large. Modify " + html.EscapeString(TypeName(v)) +
		"'s Inspect method or increase the max inspect size)")
}
