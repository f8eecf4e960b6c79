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

	"github.com/spf13/cobra"

	"github.com/consensys/go-dectab/pkg/analysis"
	"github.com/consensys/go-dectab/pkg/expr"
)

// predicatesCmd represents the predicates command
var predicatesCmd = &cobra.Command{
	Use:   "predicates [flags] spec_file",
	Short: "List the atomic predicates of a decision table.",
	Long: `List the atomic predicates extracted from the rule conditions of a
	decision table, in interning order.  The index of each predicate is
	stable across runs.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		table := readSpecFile(args[0])
		// Surface condition diagnostics with source highlighting.
		env := func(name string) bool {
			_, ok := table.Variable(name)
			return ok
		}
		//
		for _, rule := range table.Rules {
			if _, errs := expr.Parse(rule.When.Expr(), env); len(errs) != 0 {
				fmt.Printf("rule %s:\n", rule.Id)
				//
				for _, err := range errs {
					printSyntaxError(&err)
				}
			}
		}
		//
		set, err := analysis.ExtractPredicates(table)
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		for i := uint(0); i < set.Len(); i++ {
			pred := set.Get(i)
			fmt.Printf("%4d: %s\n", i, pred.String())
		}
	},
}

func init() {
	rootCmd.AddCommand(predicatesCmd)
}
