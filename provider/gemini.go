package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// DefaultAPIBase is the generativelanguage v1beta root.
	DefaultAPIBase = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-2.5-flash-lite"
)

func init() {
	RegisterModel(Model{ID: "gemini-2.5-flash-lite", DisplayName: "Flash-Lite"})
	RegisterModel(Model{ID: "gemini-2.5-flash", DisplayName: "Flash"})
	RegisterModel(Model{ID: "gemini-2.0-flash", DisplayName: "Flash 2.0"})
}

// EndpointURL builds the non-streaming generateContent URL with the API key
// embedded as a query parameter.
func EndpointURL(apiBase, model, apiKey string) string {
	base := strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if base == "" {
		base = DefaultAPIBase
	}
	return base + "/models/" + url.PathEscape(model) + ":generateContent?key=" + url.QueryEscape(apiKey)
}

// RedactURL hides the key query parameter so URLs can be logged.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// EncodeRequest serializes req as compact JSON without HTML escaping, then
// applies extras as sjson path/value pairs in sorted path order.
func EncodeRequest(req Request, extras map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(req); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	body := bytes.TrimRight(buf.Bytes(), "\n")

	paths := make([]string, 0, len(extras))
	for path := range extras {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		if strings.HasPrefix(path, "contents") {
			return nil, fmt.Errorf("extra body path %q would overwrite contents", path)
		}
		var err error
		body, err = sjson.SetBytes(body, path, extras[path])
		if err != nil {
			return nil, fmt.Errorf("apply extra body %q: %w", path, err)
		}
	}
	return body, nil
}

// DecodeResponse validates body against the response schema and returns
// candidates[0].content.parts[0].text. Any missing level yields *ParseError.
func DecodeResponse(body []byte) (string, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &ParseError{Detail: "invalid JSON: " + err.Error()}
	}
	if len(resp.Candidates) == 0 {
		return "", &ParseError{Detail: "missing candidates"}
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return "", &ParseError{Detail: "missing candidates[0].content"}
	}
	if len(content.Parts) == 0 {
		return "", &ParseError{Detail: "missing candidates[0].content.parts"}
	}
	text := content.Parts[0].Text
	if text == nil {
		return "", &ParseError{Detail: "missing candidates[0].content.parts[0].text"}
	}
	return *text, nil
}

// ErrorMessage extracts error.message from an error body, or returns "".
func ErrorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	return gjson.GetBytes(body, "error.message").String()
}
