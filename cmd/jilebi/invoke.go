package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Datron/jilebi/internal/application/services"
	"github.com/Datron/jilebi/sdk"
)

var (
	invokeInput string
	invokeBatch string
)

// invokeCmd runs a single tool call through the dispatcher and prints
// the result. The exit code reflects isError so scripts can branch on it.
var invokeCmd = &cobra.Command{
	Use:   "invoke <plugin> <tool>",
	Short: "Invoke a plugin tool",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		input := sdk.Request{}
		if invokeInput != "" {
			if err := json.Unmarshal([]byte(invokeInput), &input); err != nil {
				return fmt.Errorf("--input is not valid JSON: %w", err)
			}
		}

		result := rt.dispatcher.Dispatch(cmd.Context(), args[0], args[1], input, services.HostEnviron())
		printResult(result)
		if result.IsError {
			os.Exit(1)
		}
		return nil
	},
}

// invokeBatchCmd reads a JSON array of calls and dispatches them
// concurrently, each under its own invocation context.
var invokeBatchCmd = &cobra.Command{
	Use:   "invoke-batch",
	Short: "Invoke several tools concurrently from a JSON file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		data, err := os.ReadFile(invokeBatch)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", invokeBatch, err)
		}
		var calls []struct {
			Plugin string         `json:"plugin"`
			Tool   string         `json:"tool"`
			Input  map[string]any `json:"input"`
		}
		if err := json.Unmarshal(data, &calls); err != nil {
			return fmt.Errorf("%s is not a valid call list: %w", invokeBatch, err)
		}

		batch := make([]services.Call, len(calls))
		for i, c := range calls {
			batch[i] = services.Call{Plugin: c.Plugin, Tool: c.Tool, Input: c.Input}
		}

		results := rt.dispatcher.InvokeAll(cmd.Context(), batch, services.HostEnviron(), rt.cfg.InvokeParallelism)
		for i, result := range results {
			fmt.Printf("--- %s/%s\n", calls[i].Plugin, calls[i].Tool)
			printResult(result)
		}
		return nil
	},
}

func printResult(result *sdk.ToolResult) {
	if result.IsError {
		fmt.Fprintln(os.Stderr, "error:")
	}
	for _, c := range result.Content {
		fmt.Println(c.Text)
	}
}

func init() {
	invokeCmd.Flags().StringVar(&invokeInput, "input", "", "tool input as a JSON object")
	invokeBatchCmd.Flags().StringVar(&invokeBatch, "file", "", "JSON file with [{plugin, tool, input}] calls")
	_ = invokeBatchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(invokeCmd)
	rootCmd.AddCommand(invokeBatchCmd)
}
