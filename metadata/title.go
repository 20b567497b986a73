// Package metadata guesses the title and artist of a song from the title of
// a video or web page, e.g. "Radiohead - Creep (Official Video)".
package metadata

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// noise is removed from a raw title before splitting, in this order.
var noise = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*\([^)]*?(video|audio)[^)]*?\)`),
	regexp.MustCompile(`(?i)\s*\[[^\]]*?(video|audio)[^\]]*?\]`),
	regexp.MustCompile(`(?i)\s*-?\s*official\s*(music\s*)?video`),
	regexp.MustCompile(`(?i)\s*-?\s*lyrics?\s*video`),
	regexp.MustCompile(`(?i)\s*-?\s*\baudio\b`),
	regexp.MustCompile(`(?i)\s*[(\[](HD|4K|Live|Lyrics?)[)\]]`),
}

// patterns are tried in order; the first match wins.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?P<artist>[^-]+?)\s*-\s*(?P<song>.+)$`),
	regexp.MustCompile(`(?i)^(?P<song>.+?)\s+by\s+(?P<artist>.+)$`),
	regexp.MustCompile(`^(?P<artist>[^|]+?)\s*\|\s*(?P<song>.+)$`),
	regexp.MustCompile(`^(?P<song>.+?)\s*\|\s*(?P<artist>[^|]+)$`),
}

var videoIDRe = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#]+)`)

// Clean removes video noise such as "(Official Video)" or "[HD]" from a
// title.
func Clean(raw string) string {
	s := raw
	for _, re := range noise {
		s = re.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s)
}

// Split cleans raw and splits it into a song title and an artist. When no
// pattern matches, the whole cleaned text is the title and the artist is
// empty.
func Split(raw string) (title, artist string) {
	s := Clean(raw)
	title = s
	for _, re := range patterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		title = m[re.SubexpIndex("song")]
		artist = m[re.SubexpIndex("artist")]
		break
	}
	return tidy(title), tidy(artist)
}

// tidy trims everything that is not a letter or digit from both ends and
// title-cases text written in all lower case.
func tidy(s string) string {
	s = strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if s == strings.ToLower(s) && s != strings.ToUpper(s) {
		s = cases.Title(language.Und).String(s)
	}
	return s
}

// VideoID returns the YouTube video id of url, or "" if url is not a
// YouTube link.
func VideoID(url string) string {
	m := videoIDRe.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}
