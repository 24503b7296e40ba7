// Package utils provides utility functions for the extractor service.
package utils

import (
	"path"
	"strings"
)

// FileNameFromKey returns the last path segment of an object key.
// Object stores always use '/' as the separator, regardless of OS.
//
//	"songs/2024/a.mp3" -> "a.mp3"
//	"a.mp3"            -> "a.mp3"
//	"songs/"           -> ""
func FileNameFromKey(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// maxLocalExtLen bounds the extension kept by LocalFileName.
const maxLocalExtLen = 16

// LocalFileName returns a short name that is safe to create inside a local
// directory for the given object key. Only the lowercased extension is
// kept so that decoders which dispatch on it still work; keys can be far
// longer than a file name may be.
//
//	"songs/a.MP3"   -> "object.mp3"
//	"songs/README"  -> "object"
func LocalFileName(key string) string {
	ext := strings.ToLower(path.Ext(FileNameFromKey(key)))

	if ext == "." || len(ext) > maxLocalExtLen || strings.ContainsAny(ext, "\\\x00") {
		ext = ""
	}
	return "object" + ext
}
