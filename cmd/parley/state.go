package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parleykit/parley/pkg/domain"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Manage persisted state bags",
	Long:  `List, inspect, and remove the per-principal state bags held by the configured store.`,
}

var stateLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all principals with stored state",
	Run: func(cmd *cobra.Command, args []string) {
		store, _, err := newStateStore(cmd)
		if err != nil {
			fmt.Printf("Error building state store: %v\n", err)
			os.Exit(1)
		}

		principals, err := store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing state: %v\n", err)
			os.Exit(1)
		}

		if len(principals) == 0 {
			fmt.Println("No stored state found.")
			return
		}

		fmt.Println("Stored principals:")
		for _, p := range principals {
			fmt.Println("- " + p.String())
		}
	},
}

var stateInspectCmd = &cobra.Command{
	Use:   "inspect <principal>",
	Short: "Inspect a principal's state bag",
	Long:  `Prints the bag stored for a principal, e.g. "conversation:conv-1" or "user:alice".`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		principal := domain.Principal(args[0])
		store, _, err := newStateStore(cmd)
		if err != nil {
			fmt.Printf("Error building state store: %v\n", err)
			os.Exit(1)
		}

		bag, err := store.Load(cmd.Context(), principal)
		if err != nil {
			fmt.Printf("Error loading state for '%s': %v\n", principal, err)
			os.Exit(1)
		}

		// Pretty print JSON
		data, err := json.MarshalIndent(bag, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling state: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(string(data))
	},
}

var stateRmCmd = &cobra.Command{
	Use:   "rm <principal>...",
	Short: "Remove one or more principals' state",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, _, err := newStateStore(cmd)
		if err != nil {
			fmt.Printf("Error building state store: %v\n", err)
			os.Exit(1)
		}

		hasError := false
		for _, raw := range args {
			principal := domain.Principal(raw)
			if err := store.Delete(cmd.Context(), principal); err != nil {
				fmt.Printf("Error removing '%s': %v\n", principal, err)
				hasError = true
			} else {
				fmt.Printf("Removed state for '%s'\n", principal)
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateLsCmd)
	stateCmd.AddCommand(stateInspectCmd)
	stateCmd.AddCommand(stateRmCmd)
}
