// Package audio recognises audio objects by name and decodes their
// playback duration.
package audio

import "strings"

// Extensions are the audio file extensions that are extracted.
var Extensions = []string{".wav", ".mp3", ".m4a"}

// Matches reports whether name ends with one of Extensions, ignoring case.
func Matches(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range Extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
