package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errPasswordMismatch = errors.New("new passwords do not match")

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long: `Create an account. Registration does not sign you in; run
"phimctl login" afterwards.`,
	RunE: runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and save the session token",
	RunE:  runLogin,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user from the saved token",
	Long: `Show the identity stored in the saved session token. This reads the
token locally and does not contact the server.`,
	RunE: runWhoami,
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change display name and gender",
	RunE:  runUpdate,
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change password",
	RunE:  runPasswd,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session token",
	RunE:  runLogout,
}

func init() {
	registerCmd.Flags().String("name", "", "display name")
	registerCmd.Flags().String("email", "", "email address")
	registerCmd.Flags().String("password", "", "password (at least 6 characters)")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("password")

	loginCmd.Flags().String("email", "", "email address")
	loginCmd.Flags().String("password", "", "password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	updateCmd.Flags().String("name", "", "new display name")
	updateCmd.Flags().String("gender", "", "male, female or other")
	_ = updateCmd.MarkFlagRequired("name")
	_ = updateCmd.MarkFlagRequired("gender")

	passwdCmd.Flags().String("old", "", "current password")
	passwdCmd.Flags().String("new", "", "new password")
	passwdCmd.Flags().String("confirm", "", "new password again")
	_ = passwdCmd.MarkFlagRequired("old")
	_ = passwdCmd.MarkFlagRequired("new")
	_ = passwdCmd.MarkFlagRequired("confirm")

	rootCmd.AddCommand(registerCmd, loginCmd, whoamiCmd, updateCmd, passwdCmd, logoutCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	if err := getClient().Register(context.Background(), name, email, password); err != nil {
		return err
	}

	fmt.Printf("Registered %s. Run \"phimctl login\" to sign in.\n", email)
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	store, err := getSession()
	if err != nil {
		return err
	}

	resp, err := getClient().Login(context.Background(), email, password)
	if err != nil {
		return err
	}

	user, err := store.Set(resp.Token)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	if jsonOut {
		return printJSON(user)
	}
	fmt.Printf("Signed in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	store, err := getSession()
	if err != nil {
		return err
	}

	user := store.Current()
	if jsonOut {
		return printJSON(map[string]interface{}{"user": user})
	}
	if user == nil {
		fmt.Println("Not signed in")
		return nil
	}

	w := newTable()
	fmt.Fprintf(w, "Name:\t%s\n", user.Name)
	fmt.Fprintf(w, "Email:\t%s\n", user.Email)
	fmt.Fprintf(w, "Gender:\t%s\n", user.Gender)
	if user.Avatar != "" {
		fmt.Fprintf(w, "Avatar:\t%s\n", user.Avatar)
	}
	return w.Flush()
}

func runUpdate(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	gender, _ := cmd.Flags().GetString("gender")

	store, err := requireSession()
	if err != nil {
		return err
	}

	newToken, err := getClient().UpdateProfile(context.Background(), store.Token(), name, gender)
	if err != nil {
		return err
	}

	user, err := store.Set(newToken)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	if jsonOut {
		return printJSON(user)
	}
	fmt.Printf("Profile updated: %s (%s)\n", user.Name, user.Gender)
	return nil
}

func runPasswd(cmd *cobra.Command, args []string) error {
	oldPassword, _ := cmd.Flags().GetString("old")
	newPassword, _ := cmd.Flags().GetString("new")
	confirm, _ := cmd.Flags().GetString("confirm")

	if newPassword != confirm {
		return errPasswordMismatch
	}

	store, err := requireSession()
	if err != nil {
		return err
	}

	if err := getClient().ChangePassword(context.Background(), store.Token(), oldPassword, newPassword); err != nil {
		return err
	}

	fmt.Println("Password changed")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	store, err := getSession()
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return err
	}

	fmt.Println("Signed out")
	return nil
}
