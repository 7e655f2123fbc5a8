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

	"github.com/h00k3r/z64sim/pkg/asm"
	"github.com/h00k3r/z64sim/pkg/util/source"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble [flags] source_file",
	Short: "assemble a source file and report any errors.",
	Long: `Assemble a given source file into an in-memory program, reporting every
	 syntax error with its offending line.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		// Read source file
		files, err := source.ReadFiles(args[0])
		if err != nil {
			log.Error(err)
			os.Exit(1)
		}
		//
		log.Debugf("assembling %s", args[0])
		// Assemble source file
		prog, errors := asm.Assemble(&files[0])
		// Report errors against the original text
		for _, e := range errors {
			printSyntaxError(&e)
		}
		//
		if GetFlag(cmd, "summary") {
			lo, hi := prog.Data.Bounds()
			fmt.Printf("%d instructions, %d labels, %d drivers, data [0x%x,0x%x)\n",
				len(prog.Code), len(prog.Labels), len(prog.Drivers), lo, hi)
		}
		//
		if len(errors) > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(assembleCmd)
	assembleCmd.Flags().Bool("summary", false, "print program statistics")
}
