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
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/consensys/go-dectab/pkg/analysis"
)

// minimizeCmd represents the minimize command
var minimizeCmd = &cobra.Command{
	Use:   "minimize [flags] spec_file",
	Short: "Minimize the rule set of a decision table.",
	Long: `Minimize the rule set of a decision table without changing its
	function, reporting the transformations applied.`,
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
		if GetString(cmd, "mode") == "first-match" {
			opts.Mode = analysis.FIRST_MATCH
		}
		//
		result, err := analysis.Minimize(table, opts)
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		if GetFlag(cmd, "write") {
			bytes, err := result.Spec.ToYaml()
			if err != nil {
				fmt.Println(err)
				os.Exit(2)
			}
			//
			fmt.Print(string(bytes))
			//
			return
		}
		//
		printMinimized(result)
	},
}

func init() {
	rootCmd.AddCommand(minimizeCmd)
	minimizeCmd.Flags().String("mode", "exhaustive", "overlap semantics (exhaustive or first-match)")
	minimizeCmd.Flags().Bool("write", false, "emit the minimized table as YAML")
}
