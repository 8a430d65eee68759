package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in as the board administrator",
	Long: `Prompts for the admin password and stores the returned token in the config file.
The password can also be piped on stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword("Admin password: ")
		if err != nil {
			return err
		}
		if password == "" {
			return errors.New("password is required")
		}

		resp, err := apiClient().Login(password)
		if err != nil {
			return err
		}

		viper.Set("auth.token", resp.Token)
		viper.Set("auth.expires_at", resp.ExpiresAt)
		if err := saveConfig(); err != nil {
			return fmt.Errorf("saving token: %w", err)
		}
		cliLog.Info("Logged in", "expires_at", resp.ExpiresAt)
		printSuccess("Logged in, token valid until %s", resp.ExpiresAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved admin token",
	RunE: func(cmd *cobra.Command, args []string) error {
		viper.Set("auth.token", "")
		viper.Set("auth.expires_at", "")
		if err := saveConfig(); err != nil {
			return err
		}
		printSuccess("Logged out")
		return nil
	},
}

func readPassword(label string) (string, error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}

	fmt.Print(label)
	pw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(pw)), nil
}
