package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var adminPassword string

var loginCmd = &cobra.Command{
	Use:   "login <email> <name>",
	Short: "Log in and record the visit with the storefront",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, sess, err := newClient()
		if err != nil {
			return err
		}

		if err := sess.Login(cmd.Context(), c, args[0], args[1]); err != nil {
			return err
		}

		if sess.Admin {
			fmt.Println("logged in as admin")
		} else {
			fmt.Println("logged in")
		}
		return nil
	},
}

var adminLoginCmd = &cobra.Command{
	Use:   "admin-login <email> <name>",
	Short: "Authenticate as the configured admin identity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, sess, err := newClient()
		if err != nil {
			return err
		}

		if err := sess.AdminLogin(cmd.Context(), c, args[0], args[1], adminPassword); err != nil {
			return err
		}
		fmt.Println("logged in as admin")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		if err := sess.Logout(); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := openSession()
		if err != nil {
			return err
		}
		if !sess.LoggedIn {
			fmt.Println("not logged in")
			return nil
		}
		if sess.Identity != nil {
			fmt.Printf("%s <%s> admin=%v\n", sess.Identity.Username, sess.Identity.Email, sess.Admin)
			return nil
		}
		fmt.Printf("logged in, admin=%v\n", sess.Admin)
		return nil
	},
}

func init() {
	adminLoginCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password (when the backend requires one)")

	rootCmd.AddCommand(loginCmd, adminLoginCmd, logoutCmd, whoamiCmd)
}
