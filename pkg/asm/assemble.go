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
package asm

import (
	"github.com/h00k3r/z64sim/pkg/asm/assembler"
	"github.com/h00k3r/z64sim/pkg/asm/program"
	"github.com/h00k3r/z64sim/pkg/util/source"
)

// Program is the in-memory result of assembling a source text.
type Program = program.Program

// Instruction is one of the eight structural instruction classes.
type Instruction = program.Instruction

// Operand is an immediate, register or memory operand.
type Operand = program.Operand

// Assemble takes a source file written in the 64-bit AT&T dialect and
// assembles it into a Program: an ordered instruction stream, a data image,
// the symbol table and the driver vector.  The Program is returned even when
// syntax errors were accumulated, so downstream tooling can still render
// highlights over the partial result.
func Assemble(srcfile *source.File) (*Program, []source.SyntaxError) {
	return assembler.Parse(srcfile)
}
