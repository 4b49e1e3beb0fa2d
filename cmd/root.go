/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/lingolink/internal/completion"
	"github.com/valpere/lingolink/internal/translator"
)

var version = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "lingolink",
	Short: "Thin CLI over remote translation and text-completion APIs",
	Long: `A CLI that sends text to a LibreTranslate-compatible endpoint (or Google
Translate) and prompts to an OpenAI-style completion endpoint.

Configuration is read from $HOME/.lingolink.yaml (or --config), a .env file
in the working directory, LINGOLINK_* environment variables and flags.

Use "lingolink translate --help" for translation options.`,
	Version:      version,
	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $HOME/.lingolink.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Translation memory database path (empty disables the cache)")
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("translate.service", "libretranslate")
	viper.SetDefault("translate.endpoint", translator.DefaultLibreTranslateEndpoint)
	viper.SetDefault("translate.timeout", "30s")
	viper.SetDefault("complete.endpoint", completion.DefaultEndpoint)
	viper.SetDefault("complete.max_tokens", completion.DefaultMaxTokens)
	viper.SetDefault("complete.timeout", "120s")
}

func initConfig() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".lingolink")
	}

	viper.SetEnvPrefix("lingolink")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.BindEnv("complete.api_key", "LINGOLINK_COMPLETE_API_KEY", "OPENAI_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}
