// Package extractor pulls the generated text out of a chat completion
// response body and counts its tokens.
package extractor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidJSON is returned when the body is not valid JSON.
	ErrInvalidJSON = errors.New("response is not valid JSON")
	// ErrContentMissing is returned when nothing exists at the content path.
	ErrContentMissing = errors.New("content field missing")
	// ErrContentNotString is returned when the content path holds a non-string value.
	ErrContentNotString = errors.New("content field is not a string")
)

// Content returns the string found at path in body. The path uses gjson
// syntax; a leading "$." and bracketed indexes such as "choices[0]" are
// accepted as well.
func Content(body []byte, path string) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", ErrInvalidJSON
	}
	path = NormalizePath(path)
	result := gjson.GetBytes(body, path)
	if !result.Exists() {
		return "", fmt.Errorf("%w at %q", ErrContentMissing, path)
	}
	if result.Type != gjson.String {
		return "", fmt.Errorf("%w at %q (got %s)", ErrContentNotString, path, result.Type)
	}
	return result.String(), nil
}

// CountTokens approximates the token count of text as its number of
// whitespace-separated words.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}
