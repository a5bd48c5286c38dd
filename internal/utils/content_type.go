package utils

import (
	"mime"
	"path/filepath"
	"strings"
)

// DetectContentType guesses the content type of a file from its name.
func DetectContentType(key string) string {
	if isTextLike(key) {
		return "text/plain; charset=utf-8"
	} else if mimeType := mime.TypeByExtension(filepath.Ext(key)); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}

func isTextLike(key string) bool {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".txt", ".log", ".md", ".yaml", ".yml", ".toml", ".ini", ".conf":
		return true
	}
	return false
}
