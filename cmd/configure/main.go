package main

import (
	"fmt"
	"os"

	"github.com/calbright/flowday/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "flowday-configure",
		Short: "Configuration tool for the Flowday API",
		Long:  "CLI tool for managing planner, CORS and rate limit settings",
	}

	rootCmd.AddCommand(commands.NewPlannerCmd())
	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
