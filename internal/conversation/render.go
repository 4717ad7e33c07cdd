package conversation

import "regexp"

// bhkToken matches bedroom-count shorthand like "2BHK".
var bhkToken = regexp.MustCompile(`\d+BHK`)

// Format applies the display transforms to a turn's text: bedroom-count
// shorthand ("2BHK") is wrapped with the given emphasis function, currency
// markers followed by digits pass through verbatim as do newlines (the
// terminal renders them as line breaks already). The transform is
// presentation-only; the stored turn text is never altered.
func Format(text string, emphasis func(string) string) string {
	if emphasis == nil {
		return text
	}
	return bhkToken.ReplaceAllStringFunc(text, emphasis)
}
