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

// NoRegister marks an absent base or index register in a memory operand.
const NoRegister = -1

// Architectural register ids.  The same id space is shared by all four name
// families, so %al, %ax, %eax and %rax all resolve to RAX.
const (
	RAX = iota
	RBX
	RCX
	RDX
	RSI
	RDI
	RBP
	RSP
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

// Register name families, indexed by architectural id.
var (
	names64 = []string{
		"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rbp", "rsp",
		"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
	}
	names32 = []string{
		"eax", "ebx", "ecx", "edx", "esi", "edi", "ebp", "esp",
		"r8d", "r9d", "r10d", "r11d", "r12d", "r13d", "r14d", "r15d",
	}
	names16 = []string{
		"ax", "bx", "cx", "dx", "si", "di", "bp", "sp",
		"r8w", "r9w", "r10w", "r11w", "r12w", "r13w", "r14w", "r15w",
	}
	names8 = []string{
		"al", "bl", "cl", "dl", "sil", "dil", "bpl", "spl",
		"r8b", "r9b", "r10b", "r11b", "r12b", "r13b", "r14b", "r15b",
	}
)

// RegisterNames returns the sixteen names of the family with the given width
// in bits.
func RegisterNames(bits uint) []string {
	switch bits {
	case 8:
		return names8
	case 16:
		return names16
	case 32:
		return names32
	case 64:
		return names64
	}
	//
	panic("unknown register family")
}

// RegisterId resolves a register name (with or without the leading '%') to
// its architectural id, or NoRegister if the name is unknown.  Lookup is
// case-insensitive.
func RegisterId(name string) int {
	name = strings.ToLower(strings.TrimPrefix(name, "%"))
	//
	for _, family := range [][]string{names8, names16, names32, names64} {
		for id, n := range family {
			if n == name {
				return id
			}
		}
	}
	//
	return NoRegister
}

// RegisterBits determines the width (in bits) of the family a register name
// belongs to, or zero if the name is unknown.
func RegisterBits(name string) uint {
	name = strings.ToLower(strings.TrimPrefix(name, "%"))
	//
	for bits, family := range map[uint][]string{8: names8, 16: names16, 32: names32, 64: names64} {
		for _, n := range family {
			if n == name {
				return bits
			}
		}
	}
	//
	return 0
}

// RegisterName returns the canonical name of a register id at a given width.
func RegisterName(id int, bits uint) string {
	if id < 0 || id >= len(names64) {
		return "?"
	}
	//
	return "%" + RegisterNames(bits)[id]
}
