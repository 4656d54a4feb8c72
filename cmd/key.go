package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/umlgen/internal/credentials"
	"github.com/ziadkadry99/umlgen/internal/db"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the stored API key",
}

var keySetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Store an API key (prompts when no argument is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var key string
		if len(args) == 1 {
			key = args[0]
		} else {
			prompt := promptui.Prompt{
				Label: fmt.Sprintf("%s API key", appConfig.Provider),
				Mask:  '*',
				Validate: func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("the API key cannot be empty")
					}
					return nil
				},
			}
			var err error
			if key, err = prompt.Run(); err != nil {
				return fmt.Errorf("key prompt: %w", err)
			}
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return errors.New("the API key cannot be empty")
		}

		return withKeyStore(func(store credentials.Store, where string) error {
			if err := store.Save(context.Background(), key); err != nil {
				return err
			}
			fmt.Printf("API key saved to %s\n", where)
			return nil
		})
	},
}

var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show which API key would be used, masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range credentials.EnvVars(string(appConfig.Provider)) {
			if key := os.Getenv(name); key != "" {
				fmt.Printf("%s (from $%s)\n", maskKey(key), name)
				return nil
			}
		}
		return withKeyStore(func(store credentials.Store, where string) error {
			key, err := store.Load(context.Background())
			if err != nil {
				return err
			}
			if key == "" {
				fmt.Println("No API key configured. Run `umlgen key set`.")
				return nil
			}
			fmt.Printf("%s (from %s)\n", maskKey(key), where)
			return nil
		})
	},
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withKeyStore(func(store credentials.Store, where string) error {
			if err := store.Clear(context.Background()); err != nil {
				return err
			}
			fmt.Printf("API key removed from %s\n", where)
			return nil
		})
	},
}

// withKeyStore opens the persistent key store: the --key-file when given,
// otherwise the settings table of the database.
func withKeyStore(fn func(store credentials.Store, where string) error) error {
	if keyFile != "" {
		return fn(credentials.NewFileStore(keyFile), keyFile)
	}
	d, err := db.Open(appConfig.DBPath())
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(credentials.NewSQLStore(d), d.Path())
}

// maskKey hides all but the ends of a key.
func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

func init() {
	keyCmd.AddCommand(keySetCmd, keyShowCmd, keyClearCmd)
	rootCmd.AddCommand(keyCmd)
}
