package serializer

import (
	"mime"
	"strings"
)

// parseMediaType strips parameters like "; charset=utf-8" and lowercases the
// type so family checks see a canonical form.
func parseMediaType(mediaType string) string {
	parsed, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mediaType))
	}
	return parsed
}

// IsJSONMediaType matches application/json and the structured-suffix family,
// e.g. application/ld+json.
func IsJSONMediaType(mediaType string) bool {
	parsed := parseMediaType(mediaType)
	return parsed == "application/json" || strings.HasSuffix(parsed, "+json")
}

// IsPlainTextMediaType matches text/plain regardless of parameters.
func IsPlainTextMediaType(mediaType string) bool {
	return parseMediaType(mediaType) == "text/plain"
}

// IsXMLMediaType matches application/xml, text/xml and the structured-suffix
// family, e.g. application/atom+xml.
func IsXMLMediaType(mediaType string) bool {
	parsed := parseMediaType(mediaType)
	return parsed == "application/xml" || parsed == "text/xml" || strings.HasSuffix(parsed, "+xml")
}

// normalize collapses each media-type family onto its canonical registry key.
// Types outside the known families are used verbatim.
func normalize(mediaType string) string {
	switch {
	case IsJSONMediaType(mediaType):
		return "application/json"
	case IsPlainTextMediaType(mediaType):
		return "text/plain"
	case IsXMLMediaType(mediaType):
		return "application/xml"
	}
	return mediaType
}
