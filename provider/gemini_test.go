package provider

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestEncodeRequestWireFormat(t *testing.T) {
	req := Request{
		Contents: []Content{
			TextContent(RoleUser, "Be brief."),
			TextContent(RoleUser, "Hello <world> & you"),
		},
		GenerationConfig: GenerationConfig{MaxOutputTokens: 50},
	}
	body, err := EncodeRequest(req, nil)
	if err != nil {
		t.Fatalf("EncodeRequest() error = %v", err)
	}
	want := `{"contents":[{"role":"user","parts":[{"text":"Be brief."}]},{"role":"user","parts":[{"text":"Hello <world> & you"}]}],"generationConfig":{"maxOutputTokens":50}}`
	if string(body) != want {
		t.Fatalf("EncodeRequest() =\n%s\nwant\n%s", body, want)
	}
}

func TestEncodeRequestAppliesExtras(t *testing.T) {
	req := Request{
		Contents:         []Content{TextContent(RoleUser, "hi")},
		GenerationConfig: GenerationConfig{MaxOutputTokens: 50},
	}
	body, err := EncodeRequest(req, map[string]any{
		"generationConfig.temperature": 0.5,
		"safetySettings.0.category":    "HARM_CATEGORY_HARASSMENT",
	})
	if err != nil {
		t.Fatalf("EncodeRequest() error = %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	gen := parsed["generationConfig"].(map[string]any)
	if gen["temperature"] != 0.5 {
		t.Errorf("temperature = %v, want 0.5", gen["temperature"])
	}
	if gen["maxOutputTokens"] != float64(50) {
		t.Errorf("maxOutputTokens = %v, want 50", gen["maxOutputTokens"])
	}
	if _, ok := parsed["safetySettings"]; !ok {
		t.Error("safetySettings not set")
	}
}

func TestEncodeRequestRejectsContentsOverride(t *testing.T) {
	_, err := EncodeRequest(Request{}, map[string]any{"contents.0.role": "model"})
	if err == nil {
		t.Fatal("expected error for contents override")
	}
}

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr string
	}{
		{
			name: "ok",
			body: `{"candidates":[{"content":{"role":"model","parts":[{"text":"Hi there!"}]},"finishReason":"STOP"}]}`,
			want: "Hi there!",
		},
		{
			name: "empty text is present",
			body: `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`,
			want: "",
		},
		{name: "invalid json", body: `{"candidates":`, wantErr: "invalid JSON"},
		{name: "missing candidates", body: `{"promptFeedback":{}}`, wantErr: "missing candidates"},
		{name: "empty candidates", body: `{"candidates":[]}`, wantErr: "missing candidates"},
		{name: "missing content", body: `{"candidates":[{"finishReason":"SAFETY"}]}`, wantErr: "content"},
		{name: "missing parts", body: `{"candidates":[{"content":{"role":"model"}}]}`, wantErr: "parts"},
		{name: "missing text", body: `{"candidates":[{"content":{"parts":[{}]}}]}`, wantErr: "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeResponse([]byte(tt.body))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("DecodeResponse() error = %v", err)
				}
				if got != tt.want {
					t.Fatalf("DecodeResponse() = %q, want %q", got, tt.want)
				}
				return
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("DecodeResponse() error = %v, want *ParseError", err)
			}
			if !strings.Contains(pe.Detail, tt.wantErr) {
				t.Fatalf("ParseError.Detail = %q, want it to contain %q", pe.Detail, tt.wantErr)
			}
		})
	}
}

func TestEndpointURL(t *testing.T) {
	got := EndpointURL("", "gemini-2.5-flash-lite", "k&y")
	want := "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash-lite:generateContent?key=k%26y"
	if got != want {
		t.Fatalf("EndpointURL() = %q, want %q", got, want)
	}
	if got := EndpointURL("http://127.0.0.1:9/v1beta/", "m", "x"); got != "http://127.0.0.1:9/v1beta/models/m:generateContent?key=x" {
		t.Fatalf("EndpointURL(custom) = %q", got)
	}
}

func TestRedactURL(t *testing.T) {
	got := RedactURL(EndpointURL("", "gemini-2.5-flash", "secret"))
	if strings.Contains(got, "secret") {
		t.Fatalf("RedactURL() leaked key: %q", got)
	}
	if !strings.Contains(got, "key=REDACTED") {
		t.Fatalf("RedactURL() = %q", got)
	}
}

func TestErrorMessage(t *testing.T) {
	body := []byte(`{"error":{"code":503,"message":"The model is overloaded.","status":"UNAVAILABLE"}}`)
	if got := ErrorMessage(body); got != "The model is overloaded." {
		t.Fatalf("ErrorMessage() = %q", got)
	}
	if got := ErrorMessage([]byte("<html>")); got != "" {
		t.Fatalf("ErrorMessage(html) = %q, want empty", got)
	}
}

func TestModelRegistry(t *testing.T) {
	if err := ValidateModel(DefaultModel); err != nil {
		t.Fatalf("ValidateModel(default) error = %v", err)
	}
	if err := ValidateModel("gpt-4"); err == nil {
		t.Fatal("ValidateModel(gpt-4) should fail")
	}
	if got := DisplayName("gemini-2.5-flash-lite"); got != "Flash-Lite" {
		t.Fatalf("DisplayName() = %q", got)
	}
	if got := DisplayName("custom-model"); got != "custom-model" {
		t.Fatalf("DisplayName(unknown) = %q", got)
	}
	models := SupportedModels()
	for i := 1; i < len(models); i++ {
		if models[i-1].ID > models[i].ID {
			t.Fatalf("SupportedModels() not sorted: %v", models)
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Fatalf("EstimateTokens(empty) = %d", got)
	}
	if got := EstimateTokens("Hello there, how are you?"); got <= 0 {
		t.Fatalf("EstimateTokens() = %d, want > 0", got)
	}
}
