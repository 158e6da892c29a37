package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/calbright/flowday/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	if err := Validate.RegisterValidation("task_status", validateTaskStatus); err != nil {
		panic(fmt.Sprintf("failed to register task_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("difficulty_rating", validateDifficultyRating); err != nil {
		panic(fmt.Sprintf("failed to register difficulty_rating validator: %v", err))
	}
	if err := Validate.RegisterValidation("block_mode", validateBlockMode); err != nil {
		panic(fmt.Sprintf("failed to register block_mode validator: %v", err))
	}
}

func validateTaskStatus(fl validator.FieldLevel) bool {
	return ValidateTaskStatus(fl.Field().String()) == nil
}

func validateDifficultyRating(fl validator.FieldLevel) bool {
	return ValidateDifficultyRating(fl.Field().String()) == nil
}

func validateBlockMode(fl validator.FieldLevel) bool {
	return ValidateBlockMode(fl.Field().String()) == nil
}

// ValidateTaskStatus validates a TaskStatus string value
func ValidateTaskStatus(value string) error {
	switch models.TaskStatus(value) {
	case models.TaskStatusPending, models.TaskStatusScheduled, models.TaskStatusInProgress,
		models.TaskStatusCompleted, models.TaskStatusSkipped:
		return nil
	default:
		return fmt.Errorf("invalid status: %s (must be 'pending', 'scheduled', 'in_progress', 'completed', or 'skipped')", value)
	}
}

// ValidateDifficultyRating validates a DifficultyRating string value
func ValidateDifficultyRating(value string) error {
	switch models.DifficultyRating(value) {
	case models.RatingTooEasy, models.RatingJustRight, models.RatingTooHard:
		return nil
	default:
		return fmt.Errorf("invalid rating: %s (must be 'too_easy', 'just_right', or 'too_hard')", value)
	}
}

// ValidateBlockMode validates a BlockMode string value
func ValidateBlockMode(value string) error {
	switch models.BlockMode(value) {
	case models.BlockModeAuto, models.BlockMode60, models.BlockMode90, models.BlockMode120, models.BlockModeCustom:
		return nil
	default:
		return fmt.Errorf("invalid block_mode: %s (must be 'auto', '60', '90', '120', or 'custom')", value)
	}
}

// SanitizeText trims whitespace and removes control characters from user text
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
