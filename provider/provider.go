// Package provider implements the generateContent wire contract: typed
// request and response envelopes, the endpoint URL, and the registry of
// supported models.
package provider

import (
	"errors"
	"sort"
	"strings"
)

// Wire roles.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Part is one piece of a content entry. Only text parts are used.
type Part struct {
	Text string `json:"text"`
}

// Content is one entry of the request "contents" array.
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// TextContent creates a single-part content entry.
func TextContent(role, text string) Content {
	return Content{Role: role, Parts: []Part{{Text: text}}}
}

// GenerationConfig bounds the reply.
type GenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens"`
}

// Request is the generateContent request body.
type Request struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// Response is the generateContent response envelope. Pointer and slice
// fields distinguish an absent field from an empty one during validation.
type Response struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is one generated alternative.
type Candidate struct {
	Content      *CandidateContent `json:"content"`
	FinishReason string            `json:"finishReason,omitempty"`
}

// CandidateContent holds the parts of a candidate.
type CandidateContent struct {
	Role  string         `json:"role,omitempty"`
	Parts []ResponsePart `json:"parts"`
}

// ResponsePart is a part of a candidate. Text is nil when absent.
type ResponsePart struct {
	Text *string `json:"text"`
}

// ParseError reports a 200 response whose body does not match the schema.
type ParseError struct {
	Detail string
}

func (e *ParseError) Error() string {
	return "bad response shape: " + e.Detail
}

// Model describes a supported model id.
type Model struct {
	ID          string
	DisplayName string
}

var modelRegistry = map[string]Model{}

// RegisterModel adds a model to the whitelist.
func RegisterModel(m Model) {
	m.ID = strings.TrimSpace(m.ID)
	if m.ID == "" {
		return
	}
	if strings.TrimSpace(m.DisplayName) == "" {
		m.DisplayName = m.ID
	}
	modelRegistry[m.ID] = m
}

// SupportedModels returns all registered models sorted by id.
func SupportedModels() []Model {
	out := make([]Model, 0, len(modelRegistry))
	for _, m := range modelRegistry {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LookupModel returns the registered model for id.
func LookupModel(id string) (Model, bool) {
	m, ok := modelRegistry[strings.TrimSpace(id)]
	return m, ok
}

// ValidateModel checks that id is a supported model.
func ValidateModel(id string) error {
	if _, ok := LookupModel(id); !ok {
		return errors.New("unsupported model: " + id)
	}
	return nil
}

// DisplayName returns the short header label for id, falling back to id.
func DisplayName(id string) string {
	if m, ok := LookupModel(id); ok {
		return m.DisplayName
	}
	return id
}
