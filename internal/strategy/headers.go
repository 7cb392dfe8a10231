package strategy

// IsValidHeaders reports whether every header name/value pair in the set can
// be sent over the wire. Rejected sets are discarded and regenerated by the
// filter, never repaired.
func IsValidHeaders(headers map[string]string) bool {
	for name, value := range headers {
		if !isLatin1Encodable(value) {
			return false
		}
		if hasInvalidCharacters(name, value) {
			return false
		}
	}
	return true
}

// Header values are encoded to Latin-1 before sending, so anything outside
// that range cannot be transmitted at all.
func isLatin1Encodable(value string) bool {
	for _, r := range value {
		if r > 0xFF {
			return false
		}
	}
	return true
}

func hasInvalidCharacters(name, value string) bool {
	if !isTokenName(name) {
		return true
	}
	if !isFieldValue(value) {
		return true
	}
	return containsBareCRLF(value)
}

// isTokenName checks the RFC 7230 token grammar for field names.
func isTokenName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isTokenChar(name[i]) {
			return false
		}
	}
	return true
}

func isTokenChar(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	}
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

// isFieldValue checks the RFC 7230 field-value grammar. CR and LF pass here;
// containsBareCRLF decides whether they form a legal folded continuation.
func isFieldValue(value string) bool {
	if value != "" && (value[0] == ' ' || value[0] == '\t') {
		// Leading whitespace is stripped inconsistently by servers.
		return false
	}
	for _, r := range value {
		switch {
		case r == '\t' || r == '\r' || r == '\n':
		case r >= 0x20 && r != 0x7F:
		default:
			return false
		}
	}
	return true
}

// containsBareCRLF reports a CR or LF that is not immediately followed by
// horizontal whitespace. Parsers disagree on such sequences, which makes them
// a header-injection vector.
func containsBareCRLF(value string) bool {
	for i := 0; i < len(value); i++ {
		next := byte(0)
		if i+1 < len(value) {
			next = value[i+1]
		}
		switch value[i] {
		case '\n':
			if next != ' ' && next != '\t' {
				return true
			}
		case '\r':
			if next != ' ' && next != '\t' && next != '\n' {
				return true
			}
		}
	}
	return false
}
