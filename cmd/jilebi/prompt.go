package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var promptArgs []string

// promptCmd renders a plugin prompt with the given arguments.
var promptCmd = &cobra.Command{
	Use:   "prompt <plugin> <prompt>",
	Short: "Render a plugin prompt template",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		values := make(map[string]string, len(promptArgs))
		for _, kv := range promptArgs {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("argument %q must be name=value", kv)
			}
			values[k] = v
		}

		messages, err := rt.prompts.Render(args[0], args[1], values)
		if err != nil {
			return err
		}
		for _, msg := range messages {
			fmt.Printf("[%s] %s\n", msg.Role, msg.Content)
		}
		return nil
	},
}

func init() {
	promptCmd.Flags().StringArrayVar(&promptArgs, "arg", nil, "prompt argument as name=value (repeatable)")
	rootCmd.AddCommand(promptCmd)
}
