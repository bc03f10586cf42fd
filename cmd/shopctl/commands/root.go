// Package commands implements the shopctl CLI: a terminal shopper for the
// storefront API that keeps its session and cart in local state files, the
// way the browser app kept them in localStorage.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Is-Prog22/fastandtrust/internal/shopclient"
)

var (
	apiURL   string
	stateDir string
)

var rootCmd = &cobra.Command{
	Use:           "shopctl",
	Short:         "Command-line storefront client",
	Long:          "shopctl browses the storefront catalog, manages a locally persisted cart, and performs admin catalog changes.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("SHOPCTL_API", "http://localhost:5000"), "Storefront API base URL")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", envOr("SHOPCTL_STATE_DIR", ""), "Directory for session and cart state")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func resolveStateDir() (string, error) {
	if stateDir != "" {
		return stateDir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "shopctl"), nil
}

func openSession() (*shopclient.Session, error) {
	dir, err := resolveStateDir()
	if err != nil {
		return nil, err
	}
	return shopclient.OpenSession(filepath.Join(dir, "session.json"))
}

func openCart() (*shopclient.Cart, error) {
	dir, err := resolveStateDir()
	if err != nil {
		return nil, err
	}
	return shopclient.OpenCart(filepath.Join(dir, "cart.json"))
}

func newClient() (*shopclient.Client, *shopclient.Session, error) {
	sess, err := openSession()
	if err != nil {
		return nil, nil, err
	}
	c := shopclient.NewClient(apiURL)
	sess.Attach(c)
	return c, sess, nil
}
