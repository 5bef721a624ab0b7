// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in to the research-hub backend",
	Long: `Login exchanges an email and password for an access token at
<base_url>/auth/login and stores it in .secrets/ for remote content mode.
The password is read from the first line of stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading password: %w", err)
		}
		session := newAuthSession(logWriter(cmd))
		if err := loginFunc(cfg, session)(cmd.Context(), args[0], strings.TrimRight(line, "\r\n")); err != nil {
			return err
		}
		fmt.Println("signed in")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored backend credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newAuthSession(logWriter(cmd)).Logout(); err != nil {
			return err
		}
		fmt.Println("signed out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
