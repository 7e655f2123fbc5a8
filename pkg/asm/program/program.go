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
package program

import "strings"

// InstructionSlot is the number of bytes of address space each instruction
// occupies in the simulated machine.  The front-end does not encode
// instructions, but labels inside code sections still need addresses, so
// every appended instruction advances the location counter by one slot.
const InstructionSlot = 16

// Program is the in-memory result of assembling one source text: an ordered
// instruction stream, a sparse data image, the symbol table and the
// driver/handler vector.  It is created empty by the parse entry point,
// mutated by every directive and instruction, and returned on completion
// (partial, if errors were accumulated).
type Program struct {
	// Counter is the mutable location counter, readable as '.' in
	// expressions.
	Counter uint64
	// Labels maps each defined symbol to its address.
	Labels map[string]uint64
	// Code is the ordered instruction stream of the text sections.
	Code []Instruction
	// Data is the sparse byte image written by the data directives.
	Data *Image
	// Drivers maps an interrupt number (in decimal) or a label to the
	// instruction sequence of the corresponding driver/handler block.
	Drivers map[string][]Instruction
}

// NewProgram constructs an empty program.
func NewProgram() *Program {
	return &Program{
		Labels:  make(map[string]uint64),
		Data:    NewImage(),
		Drivers: make(map[string][]Instruction),
	}
}

// DefineLabel records a symbol at a given address.  Names are
// case-insensitive, like the rest of the dialect.
func (p *Program) DefineLabel(name string, addr uint64) {
	p.Labels[strings.ToLower(name)] = addr
}

// LookupLabel resolves a symbol to its address, if defined.
func (p *Program) LookupLabel(name string) (uint64, bool) {
	addr, ok := p.Labels[strings.ToLower(name)]
	return addr, ok
}

// Append adds an instruction to the code stream, advancing the location
// counter by one instruction slot.
func (p *Program) Append(insn Instruction) {
	p.Code = append(p.Code, insn)
	p.Counter += InstructionSlot
}

// InstallDriver records the instruction sequence of a driver/handler block
// under the given key (decimal interrupt number or label).
func (p *Program) InstallDriver(key string, code []Instruction) {
	p.Drivers[strings.ToLower(key)] = code
}

// Emit writes a little-endian value of the given width (in bytes) into the
// data image at the location counter, advancing it.
func (p *Program) Emit(value int64, width int) {
	for i := 0; i < width; i++ {
		p.Data.Write(p.Counter, byte(value))
		value >>= 8
		p.Counter++
	}
}

// EmitBytes writes raw bytes into the data image at the location counter,
// advancing it.
func (p *Program) EmitBytes(bytes []byte) {
	for _, b := range bytes {
		p.Data.Write(p.Counter, b)
		p.Counter++
	}
}

// Skip advances the location counter by n bytes without writing anything;
// the skipped bytes read back as zero.
func (p *Program) Skip(n uint64) {
	p.Counter += n
}
