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
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/lingolink/internal/detector"
	"github.com/valpere/lingolink/internal/translator"
)

var errNoTranslation = errors.New("no translation produced")

var (
	inputFile   string
	outputFile  string
	sourceLang  string
	targetLang  string
	detectLocal bool
	rawOutput   bool
	noCache     bool
)

var translateCmd = &cobra.Command{
	Use:   "translate [text...]",
	Short: "Translate text through a remote translation service",
	Long: `Translate text through a LibreTranslate-compatible endpoint (default) or
Google Translate.

The text is taken from the arguments, from --input, or from stdin.

Available services:
  - libretranslate  POST form to --endpoint (default https://translate.astian.org/translate)
  - google          Google Cloud Translation (requires credentials)

When the service cannot be reached the failure is reported on stderr and the
command exits non-zero without output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile != "" && inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		text, err := readInput(args, inputFile, cmd.InOrStdin())
		if err != nil {
			return err
		}

		if err := checkLang(sourceLang, true); err != nil {
			return err
		}
		if err := checkLang(targetLang, false); err != nil {
			return err
		}

		ctx := context.Background()
		logger := newLogger()

		if detectLocal && sourceLang == detector.AutoLang {
			if detected, ok := detector.New().Resolve(text, sourceLang); ok {
				sourceLang = detected
				logger.Printf("Detected source language: %s", sourceLang)
			}
		}

		svc, err := buildService(viper.GetString("translate.service"), logger)
		if err != nil {
			return err
		}

		req := translator.TranslateRequest{
			Text:       text,
			SourceLang: sourceLang,
			TargetLang: targetLang,
		}

		if rawOutput {
			libre, ok := svc.(*translator.LibreTranslateService)
			if !ok {
				return fmt.Errorf("--raw is only supported by libretranslate")
			}
			out, err := libre.Call(ctx, map[string]any{"q": req.Text, "source": req.SourceLang, "target": req.TargetLang})
			if err != nil {
				return err
			}
			encoded, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), outputFile, string(encoded))
		}

		db, err := openStore(noCache)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()

			if cached, found, cacheErr := db.Get(ctx, text, sourceLang, targetLang, svc.Name()); cacheErr == nil && found {
				logger.Printf("Using cached translation")
				return writeOutput(cmd.OutOrStdout(), outputFile, cached)
			}
		}

		translated, err := translate(ctx, svc, req)
		if err != nil {
			return err
		}

		if db != nil {
			if _, err := db.Put(ctx, text, sourceLang, targetLang, svc.Name(), translated); err != nil {
				logger.Printf("Failed to save translation memory: %v", err)
			}
		}

		return writeOutput(cmd.OutOrStdout(), outputFile, translated)
	},
}

// translate runs req through svc. LibreTranslate transport failures are
// already logged by the service and surface here as errNoTranslation.
func translate(ctx context.Context, svc translator.TranslationService, req translator.TranslateRequest) (string, error) {
	if libre, ok := svc.(*translator.LibreTranslateService); ok {
		text, ok, err := libre.TranslateOrNil(ctx, req)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", errNoTranslation
		}
		return text, nil
	}

	result, err := svc.Translate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", svc.Name(), err)
	}
	return result.TranslatedText, nil
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file to translate")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default stdout)")
	translateCmd.Flags().StringVarP(&sourceLang, "source", "s", translator.DefaultSourceLang, `Source language code ("auto" to let the service or --detect decide)`)
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", translator.DefaultTargetLang, "Target language code")
	translateCmd.Flags().BoolVar(&detectLocal, "detect", false, `Detect the source language locally when --source is "auto"`)
	translateCmd.Flags().BoolVar(&rawOutput, "raw", false, "Print the full JSON response instead of the translated text")
	translateCmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable translation memory cache")

	translateCmd.Flags().String("service", "libretranslate", "Translation service (libretranslate, google)")
	translateCmd.Flags().String("endpoint", translator.DefaultLibreTranslateEndpoint, "LibreTranslate endpoint URL")
	translateCmd.Flags().Duration("timeout", 0, "Request timeout")
	translateCmd.Flags().String("credentials", "", "Path to Google Cloud credentials")
	translateCmd.Flags().String("project", "", "Google Cloud project ID")

	viper.BindPFlag("translate.service", translateCmd.Flags().Lookup("service"))
	viper.BindPFlag("translate.endpoint", translateCmd.Flags().Lookup("endpoint"))
	viper.BindPFlag("translate.timeout", translateCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("google.credentials", translateCmd.Flags().Lookup("credentials"))
	viper.BindPFlag("google.project_id", translateCmd.Flags().Lookup("project"))
}
