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

	"github.com/valpere/lingolink/internal/completion"
)

var errNoCompletion = errors.New("no completion produced")

var (
	promptFile     string
	completionOut  string
	completionText bool
)

var completeCmd = &cobra.Command{
	Use:   "complete [prompt...]",
	Short: "Send a prompt to a text-completion endpoint",
	Long: `Send a prompt to an OpenAI-style completion endpoint and print the JSON
response unchanged.

The API key comes from --api-key, complete.api_key in the config file,
LINGOLINK_COMPLETE_API_KEY or OPENAI_API_KEY.

Use --text to print only choices[0].text.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt, err := readInput(args, promptFile, cmd.InOrStdin())
		if err != nil {
			return err
		}

		logger := newLogger()
		svc := buildCompletionService(logger)

		resp, err := svc.CompleteOrNil(context.Background(), prompt, "")
		if err != nil {
			return err
		}
		if resp == nil {
			return errNoCompletion
		}

		if completionText {
			text, ok := completion.FirstText(resp)
			if !ok {
				return fmt.Errorf("response has no choices[0].text")
			}
			return writeOutput(cmd.OutOrStdout(), completionOut, text)
		}

		encoded, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), completionOut, string(encoded))
	},
}

func init() {
	rootCmd.AddCommand(completeCmd)

	completeCmd.Flags().StringVarP(&promptFile, "input", "i", "", "File containing the prompt")
	completeCmd.Flags().StringVarP(&completionOut, "output", "o", "", "Output file (default stdout)")
	completeCmd.Flags().BoolVar(&completionText, "text", false, "Print only the first choice's text")

	completeCmd.Flags().String("api-key", "", "Completion API key")
	completeCmd.Flags().Int("max-tokens", completion.DefaultMaxTokens, "Maximum tokens to generate")
	completeCmd.Flags().String("endpoint", completion.DefaultEndpoint, "Completion endpoint URL")
	completeCmd.Flags().Duration("timeout", 0, "Request timeout")

	viper.BindPFlag("complete.api_key", completeCmd.Flags().Lookup("api-key"))
	viper.BindPFlag("complete.max_tokens", completeCmd.Flags().Lookup("max-tokens"))
	viper.BindPFlag("complete.endpoint", completeCmd.Flags().Lookup("endpoint"))
	viper.BindPFlag("complete.timeout", completeCmd.Flags().Lookup("timeout"))
}
