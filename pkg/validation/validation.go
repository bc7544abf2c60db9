package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// IdentityURIRegex accepts scheme:rest URIs such as sip:alice@example.com.
	IdentityURIRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:\S+$`)

	SessionIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	CodecRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.\-]*$`)
)

var directions = map[string]bool{
	"sendrecv": true,
	"sendonly": true,
	"recvonly": true,
	"inactive": true,
}

func ValidateIdentityURI(uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return fmt.Errorf("uri is required")
	}
	if len(uri) > 512 {
		return fmt.Errorf("uri is too long (max 512 characters)")
	}
	if !IdentityURIRegex.MatchString(uri) {
		return fmt.Errorf("invalid uri format (expected scheme:address)")
	}
	return nil
}

func ValidateDisplayName(name string) error {
	if err := ValidateStringLength(name, 0, 128, "display name"); err != nil {
		return err
	}
	if !utf8.ValidString(name) || strings.ContainsAny(name, "<>") {
		return fmt.Errorf("display name contains invalid characters")
	}
	return nil
}

func ValidateSessionID(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}
	if len(sessionID) > 100 {
		return fmt.Errorf("session ID is too long (max 100 characters)")
	}
	if !SessionIDRegex.MatchString(sessionID) {
		return fmt.Errorf("invalid session ID format")
	}
	return nil
}

// ValidateFilename rejects names that are empty, too long, contain path
// separators or control characters.
func ValidateFilename(name string, maxLength int) error {
	if err := ValidateNonEmptyString(name, "filename"); err != nil {
		return err
	}
	if err := ValidateStringLength(name, 1, maxLength, "filename"); err != nil {
		return err
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("filename must not contain path elements")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("filename contains control characters")
		}
	}
	return nil
}

func ValidateFilesize(size, max int64) error {
	if size < 0 {
		return fmt.Errorf("filesize must not be negative")
	}
	if max > 0 && size > max {
		return fmt.Errorf("filesize is too large (max %d bytes)", max)
	}
	return nil
}

// ValidateCodec checks the shape of an rtpmap encoding name. The empty string
// means "no preference" and is accepted.
func ValidateCodec(codec string) error {
	if codec == "" {
		return nil
	}
	if len(codec) > 32 || !CodecRegex.MatchString(codec) {
		return fmt.Errorf("invalid codec name %q", codec)
	}
	return nil
}

// ValidateDirection accepts an RFC 4566 media direction or the empty string.
func ValidateDirection(direction string) error {
	if direction == "" || directions[direction] {
		return nil
	}
	return fmt.Errorf("invalid direction %q (must be sendrecv, sendonly, recvonly or inactive)", direction)
}

// ValidateURL validates URL format
func ValidateURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid URL scheme (must be http, https, ws, or wss)")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

func ValidateNonEmptyString(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

func ValidateStringLength(s string, min, max int, fieldName string) error {
	length := utf8.RuneCountInString(s)
	if length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if length > max {
		return fmt.Errorf("%s is too long (max %d characters)", fieldName, max)
	}
	return nil
}
