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
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/valpere/lingolink/internal/completion"
	"github.com/valpere/lingolink/internal/detector"
	"github.com/valpere/lingolink/internal/store"
	"github.com/valpere/lingolink/internal/translator"
)

// newLogger returns the diagnostic logger shared by the commands.
func newLogger() *log.Logger {
	return log.New(os.Stderr, "lingolink: ", 0)
}

// buildService constructs the translation service named by the
// translate.service setting.
func buildService(name string, logger *log.Logger) (translator.TranslationService, error) {
	switch name {
	case "libretranslate", "libre":
		svc := translator.NewLibreTranslateService(translator.ServiceConfig{
			Endpoint: viper.GetString("translate.endpoint"),
			Timeout:  viper.GetDuration("translate.timeout"),
		})
		svc.SetLogger(logger)
		return svc, nil
	case "google":
		return translator.NewGoogleService(translator.ServiceConfig{
			Credentials: viper.GetString("google.credentials"),
			ProjectID:   viper.GetString("google.project_id"),
		}), nil
	default:
		return nil, fmt.Errorf("unknown translation service: %s", name)
	}
}

// buildCompletionService reads each key on its own: UnmarshalKey on a nested
// key misses flag and env overrides.
func buildCompletionService(logger *log.Logger) *completion.OpenAIService {
	svc := completion.NewOpenAIService(completion.Config{
		Endpoint:  viper.GetString("complete.endpoint"),
		APIKey:    viper.GetString("complete.api_key"),
		MaxTokens: viper.GetInt("complete.max_tokens"),
		Timeout:   viper.GetDuration("complete.timeout"),
	})
	svc.SetLogger(logger)
	return svc
}

// openStore opens the translation memory, or returns nil when caching is off.
func openStore(noCache bool) (*store.Store, error) {
	dbPath := viper.GetString("db")
	if noCache || dbPath == "" {
		return nil, nil
	}
	db, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// readInput picks the text from args, then file, then stdin.
func readInput(args []string, file string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// checkLang rejects codes that are not well-formed BCP 47 tags. Well-formed
// but unregistered subtags pass: LibreTranslate serves codes such as "zt"
// and "pb". "auto" is accepted for the source side.
func checkLang(code string, allowAuto bool) error {
	if allowAuto && code == detector.AutoLang {
		return nil
	}
	if _, err := language.Parse(code); err != nil {
		var unknown language.ValueError
		if errors.As(err, &unknown) {
			return nil
		}
		return fmt.Errorf("invalid language code %q: %w", code, err)
	}
	return nil
}

func writeOutput(w io.Writer, file, text string) error {
	if file == "" {
		_, err := fmt.Fprintln(w, text)
		return err
	}
	if err := os.WriteFile(file, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
