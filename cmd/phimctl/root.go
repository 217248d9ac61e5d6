package main

import (
	"fmt"
	"strings"

	"github.com/dom/phim-stream/internal/client"
	"github.com/dom/phim-stream/internal/client/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	jsonOut bool
	cfg     = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "phimctl",
	Short: "Command-line client for phim-stream",
	Long: `phimctl signs in to a phim-stream server and browses its movie catalog.

The session token is kept in the user config directory and reused by later
commands until "phimctl logout".

Examples:
  phimctl register --name An --email an@example.com --password secret1
  phimctl login --email an@example.com --password secret1
  phimctl whoami
  phimctl movies latest --limit 10`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "phim-stream server URL")
	rootCmd.PersistentFlags().String("token-file", "", "session token file (default: user config dir)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print JSON output")

	cfg.SetEnvPrefix("PHIMCTL")
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.AutomaticEnv()
	_ = cfg.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = cfg.BindPFlag("token-file", rootCmd.PersistentFlags().Lookup("token-file"))
}

func getClient() *client.APIClient {
	return client.NewAPIClient(cfg.GetString("server"))
}

// getSession returns the session store after loading any saved token.
func getSession() (*session.Store, error) {
	path := cfg.GetString("token-file")
	if path == "" {
		var err error
		if path, err = session.DefaultPath(); err != nil {
			return nil, err
		}
	}

	store := session.NewStore(session.NewFileStorage(path))
	if _, err := store.Hydrate(); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return store, nil
}

// requireSession is getSession for commands that need a signed-in user.
func requireSession() (*session.Store, error) {
	store, err := getSession()
	if err != nil {
		return nil, err
	}
	if store.Current() == nil {
		return nil, fmt.Errorf("not logged in; run \"phimctl login\" first")
	}
	return store, nil
}
