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
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List language codes supported by the translation service",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildService(viper.GetString("translate.service"), newLogger())
		if err != nil {
			return err
		}

		ctx := context.Background()
		langs, err := svc.SupportedLanguages(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", svc.Name(), err)
		}

		out := cmd.OutOrStdout()
		for _, code := range langs {
			fmt.Fprintln(out, code)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}
