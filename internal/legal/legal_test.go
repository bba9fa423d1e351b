package legal

import "testing"

func TestParseModelString(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantProvider string
		wantModel    string
		wantErr      bool
	}{
		{
			name:         "valid openai model",
			input:        "openai:gpt-4",
			wantProvider: "openai",
			wantModel:    "gpt-4",
			wantErr:      false,
		},
		{
			name:         "valid gemini model",
			input:        "gemini:gemini-2.0-flash",
			wantProvider: "gemini",
			wantModel:    "gemini-2.0-flash",
			wantErr:      false,
		},
		{
			name:         "model with colon",
			input:        "ollama:llama3.1:8b",
			wantProvider: "ollama",
			wantModel:    "llama3.1:8b",
			wantErr:      false,
		},
		{
			name:         "with whitespace",
			input:        " anthropic : claude-3-5-sonnet-20241022 ",
			wantProvider: "anthropic",
			wantModel:    "claude-3-5-sonnet-20241022",
			wantErr:      false,
		},
		{
			name:         "missing colon",
			input:        "openai-gpt-4",
			wantProvider: "",
			wantModel:    "",
			wantErr:      true,
		},
		{
			name:         "empty provider",
			input:        ":gpt-4",
			wantProvider: "",
			wantModel:    "",
			wantErr:      true,
		},
		{
			name:         "empty model",
			input:        "openai:",
			wantProvider: "",
			wantModel:    "",
			wantErr:      true,
		},
		{
			name:         "empty string",
			input:        "",
			wantProvider: "",
			wantModel:    "",
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, model, err := ParseModelString(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseModelString() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if provider != tt.wantProvider {
				t.Errorf("ParseModelString() provider = %v, want %v", provider, tt.wantProvider)
			}
			if model != tt.wantModel {
				t.Errorf("ParseModelString() model = %v, want %v", model, tt.wantModel)
			}
		})
	}
}

func TestFormatModelString(t *testing.T) {
	got := FormatModelString("gemini", "gemini-2.0-flash")
	if got != "gemini:gemini-2.0-flash" {
		t.Errorf("FormatModelString() = %v, want %v", got, "gemini:gemini-2.0-flash")
	}

	provider, model, err := ParseModelString(got)
	if err != nil {
		t.Fatalf("ParseModelString() error = %v", err)
	}
	if provider != "gemini" || model != "gemini-2.0-flash" {
		t.Errorf("round trip = %s:%s", provider, model)
	}
}

func TestRoleValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleUser, true},
		{RoleAssistant, true},
		{RoleSystem, true},
		{Role("model"), false},
		{Role(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.Valid(); got != tt.want {
				t.Errorf("Role(%q).Valid() = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}
