package validation

import "testing"

func TestValidateTaskStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		valid bool
	}{
		{"pending", true},
		{"scheduled", true},
		{"in_progress", true},
		{"completed", true},
		{"skipped", true},
		{"processing", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			err := ValidateTaskStatus(tt.value)
			if (err == nil) != tt.valid {
				t.Errorf("ValidateTaskStatus(%q) err = %v, want valid=%v", tt.value, err, tt.valid)
			}
		})
	}
}

func TestValidateDifficultyRating(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		valid bool
	}{
		{"too_easy", true},
		{"just_right", true},
		{"too_hard", true},
		{"way_too_hard", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			err := ValidateDifficultyRating(tt.value)
			if (err == nil) != tt.valid {
				t.Errorf("ValidateDifficultyRating(%q) err = %v, want valid=%v", tt.value, err, tt.valid)
			}
		})
	}
}

func TestValidateBlockMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		valid bool
	}{
		{"auto", true},
		{"60", true},
		{"90", true},
		{"120", true},
		{"custom", true},
		{"45", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			err := ValidateBlockMode(tt.value)
			if (err == nil) != tt.valid {
				t.Errorf("ValidateBlockMode(%q) err = %v, want valid=%v", tt.value, err, tt.valid)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  write tests  ", "write tests"},
		{"strips control characters", "plan\x00 day", "plan day"},
		{"keeps newlines and tabs", "line one\n\tline two", "line one\n\tline two"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
