// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/consensys/go-dectab/pkg/analysis"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] spec_file",
	Short: "Analyze a decision table for completeness and conflicts.",
	Long: `Analyze a decision table for completeness and conflicts.
	Reports uncovered input combinations, pairs of rules which match a
	common input with different outputs, dead rules and minimization
	opportunities.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		var (
			table = readSpecFile(args[0])
			opts  = analysis.DefaultOptions()
		)
		//
		opts.Minimize = GetFlag(cmd, "minimize")
		//
		if GetString(cmd, "mode") == "first-match" {
			opts.Mode = analysis.FIRST_MATCH
		}
		//
		report, ok := cachedReport(GetString(cmd, "cache"), &table, opts)
		//
		if !ok {
			var err error
			//
			report, err = analysis.Analyze(table, opts)
			if err != nil {
				fmt.Println(err)
				os.Exit(2)
			}
			//
			storeReport(GetString(cmd, "cache"), &table, opts, report)
		}
		//
		if GetFlag(cmd, "json") {
			bytes, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				fmt.Println(err)
				os.Exit(2)
			}
			//
			fmt.Println(string(bytes))
		} else {
			printReport(&table, report)
		}
		// Conflicts and gaps are findings, reflected in the exit code.
		if !report.IsComplete || len(report.Overlaps) != 0 {
			os.Exit(4)
		}
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().String("mode", "exhaustive", "overlap semantics (exhaustive or first-match)")
	analyzeCmd.Flags().Bool("minimize", true, "check for minimization opportunities")
	analyzeCmd.Flags().Bool("json", false, "emit the report as JSON")
	analyzeCmd.Flags().String("cache", "", "cache reports in the given bolt database")
}
