package slug

import "testing"

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"basic title", "Hello World", "hello-world"},
		{"punctuation stripped", "ETH ETF Approval Odds Rise!", "eth-etf-approval-odds-rise"},
		{"leading and trailing space", "  Padded Title  ", "padded-title"},
		{"consecutive separators collapse", "a -- b", "a-b"},
		{"unicode characters dropped", "Café Société", "caf-socit"},
		{"empty input", "", ""},
		{"only punctuation", "!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
