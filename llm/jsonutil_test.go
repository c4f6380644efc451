package llm

import (
	"encoding/json"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantKey string // if non-empty, check this key exists in parsed JSON
		wantErr bool
	}{
		{
			name:    "plain JSON",
			input:   `{"summary": "test"}`,
			wantKey: "summary",
		},
		{
			name:    "markdown code block",
			input:   "```json\n{\"summary\": \"test\"}\n```",
			wantKey: "summary",
		},
		{
			name:    "markdown block with trailing text",
			input:   "```json\n{\"summary\": \"test\"}\n```\n\n**Some extra commentary**",
			wantKey: "summary",
		},
		{
			name:    "JSON with prose around it",
			input:   "Here is the verdict:\n{\"summary\": \"Brute force\", \"severity\": \"High\"}\nLet me know if you need more.",
			wantKey: "summary",
		},
		{
			name:    "trailing commas",
			input:   "```json\n{\n  \"summary\": \"x\",\n  \"severity\": \"High\",\n}\n```",
			wantKey: "summary",
		},
		{
			name:    "JS comments outside strings",
			input:   "{\n  \"summary\": \"x\", // what happened\n  \"severity\": \"Low\"\n}",
			wantKey: "summary",
		},
		{
			name:    "URL in string not stripped",
			input:   `{"url": "http://example.com/path"}`,
			wantKey: "url",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "no JSON at all",
			input:   "This alert looks benign to me.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExtractJSON(tt.input)

			if tt.wantErr {
				if result != "" {
					t.Errorf("expected empty result, got: %s", result)
				}
				return
			}

			if result == "" {
				t.Fatal("expected JSON result, got empty string")
			}

			var parsed map[string]any
			if err := json.Unmarshal([]byte(result), &parsed); err != nil {
				t.Fatalf("extracted JSON does not parse: %v\n%s", err, result)
			}

			if _, ok := parsed[tt.wantKey]; !ok {
				t.Errorf("expected key %q in parsed JSON: %v", tt.wantKey, parsed)
			}
		})
	}
}

func TestStripLineComment(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"url": "http://example.com"`, `"url": "http://example.com"`},
		{`"url": "http://example.com" // comment`, `"url": "http://example.com"`},
		{`"path", // trailing`, `"path",`},
		{`no comment here`, `no comment here`},
	}

	for _, tt := range tests {
		if got := stripLineComment(tt.input); got != tt.want {
			t.Errorf("stripLineComment(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
