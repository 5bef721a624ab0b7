// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the research assistant a question",
	Long: `Ask sends a free-form research question to the assistant of the
configured content mode (canned in mock mode, Claude in direct mode, the
backend's /chat endpoint in remote mode) and prints the answer.`,
	Example: `  research-hub ask "which benchmarks evaluate LLM agents on tool use?"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logWriter(cmd)
		svc, err := buildContent(cmd.Context(), cfg, newAuthSession(log), log)
		if err != nil {
			return err
		}
		answer, err := svc.Ask(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(strings.TrimSpace(answer))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
