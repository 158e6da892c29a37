package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/calbright/flowday/internal/config"
	"github.com/calbright/flowday/internal/database"
	"github.com/calbright/flowday/internal/models"
	"github.com/calbright/flowday/internal/planner"
	"github.com/calbright/flowday/internal/validation"
	"github.com/spf13/cobra"
)

// NewPlannerCmd creates the planner configuration command with list and set subcommands.
func NewPlannerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "planner",
		Short: "Manage planner settings",
		Long:  "List or update the daily planning defaults (stored in database).",
	}
	cmd.AddCommand(newPlannerListCmd())
	cmd.AddCommand(newPlannerSetCmd())
	return cmd
}

func newPlannerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current planner settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer func() { _ = db.Close() }()
			repo := database.NewPlannerSettingsRepository(db)
			s, err := repo.Get(context.Background())
			if err != nil {
				return fmt.Errorf("get planner settings: %w", err)
			}
			if s == nil {
				fmt.Println("No planner settings in database. Use 'planner set' to add them.")
				return nil
			}
			fmt.Println("Planner settings:")
			fmt.Printf("  Day start: %s\n", s.DayStart)
			fmt.Printf("  Default hours: %.1f\n", s.DefaultHours)
			fmt.Printf("  Block mode: %s\n", s.BlockMode)
			if s.BlockMode == models.BlockModeCustom {
				fmt.Printf("  Custom block minutes: %d\n", s.CustomBlockMinutes)
			}
			fmt.Printf("  Break minutes: %d\n", s.BreakDurationMinutes)
			return nil
		},
	}
}

func newPlannerSetCmd() *cobra.Command {
	var dayStart string
	var hours float64
	var blockMode string
	var customMinutes int
	var breakMinutes int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set planner settings",
		Long:  "Update the daily planning defaults. Stored in database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			dayStart = strings.TrimSpace(dayStart)
			if _, err := planner.ParseClock(dayStart); err != nil {
				return fmt.Errorf("--day-start must be HH:MM: %w", err)
			}
			if hours <= 0 || hours > 24 {
				return fmt.Errorf("--hours must be between 0 and 24")
			}
			if err := validation.ValidateBlockMode(blockMode); err != nil {
				return err
			}
			if models.BlockMode(blockMode) == models.BlockModeCustom && customMinutes <= 0 {
				return fmt.Errorf("--custom-minutes is required for custom block mode")
			}
			if breakMinutes < 0 || breakMinutes > 60 {
				return fmt.Errorf("--break-minutes must be between 0 and 60")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer func() { _ = db.Close() }()
			repo := database.NewPlannerSettingsRepository(db)
			s := &models.PlannerSettings{
				DayStart:             dayStart,
				DefaultHours:         hours,
				BlockMode:            models.BlockMode(blockMode),
				CustomBlockMinutes:   customMinutes,
				BreakDurationMinutes: breakMinutes,
			}
			if err := repo.Set(context.Background(), s); err != nil {
				return fmt.Errorf("set planner settings: %w", err)
			}
			fmt.Println("Planner settings updated.")
			return nil
		},
	}
	cmd.Flags().StringVar(&dayStart, "day-start", "09:00", "Day start time (HH:MM)")
	cmd.Flags().Float64Var(&hours, "hours", 6, "Default working hours per day")
	cmd.Flags().StringVar(&blockMode, "block-mode", "auto", "Block mode (auto, 60, 90, 120, custom)")
	cmd.Flags().IntVar(&customMinutes, "custom-minutes", 0, "Custom block length in minutes (custom mode only)")
	cmd.Flags().IntVar(&breakMinutes, "break-minutes", 15, "Break length between blocks in minutes")
	return cmd
}
