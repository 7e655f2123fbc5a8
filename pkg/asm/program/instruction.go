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

import "fmt"

// Instruction is one of eight structural classes into which every supported
// mnemonic is mapped.  The class determines the operand arity and the fields
// the downstream encoder pattern-matches on.
type Instruction interface {
	fmt.Stringer
	// Class returns the structural class (0..7) of this instruction.
	Class() int
	// Mnemonic returns the base mnemonic, with any size suffix stripped.
	Mnemonic() string
}

// Class0 covers interrupts, halt and nop.  Interrupt is -1 when absent.
type Class0 struct {
	Name      string
	Interrupt int64
}

// Class returns the structural class of this instruction.
func (i *Class0) Class() int { return 0 }

// Mnemonic returns the base mnemonic of this instruction.
func (i *Class0) Mnemonic() string { return i.Name }

func (i *Class0) String() string {
	if i.Interrupt < 0 {
		return i.Name
	}
	//
	return fmt.Sprintf("%s %d", i.Name, i.Interrupt)
}

// Class1 covers data movement: mov, push/pop, movs/movz, lea and the
// operand-less string moves.  SizeHint carries the suffix width (in bytes)
// when it cannot be recovered from the operands, and -1 otherwise.
type Class1 struct {
	Name     string
	Src      Operand
	Dst      Operand
	SizeHint int
}

// Class returns the structural class of this instruction.
func (i *Class1) Class() int { return 1 }

// Mnemonic returns the base mnemonic of this instruction.
func (i *Class1) Mnemonic() string { return i.Name }

func (i *Class1) String() string {
	return binaryString(i.Name, i.Src, i.Dst)
}

// Class2 covers binary arithmetic and logical operations: add, sub, adc,
// sbb, cmp, test, and, or, xor, neg, not.  Unary members carry a nil Src.
type Class2 struct {
	Name string
	Src  Operand
	Dst  Operand
}

// Class returns the structural class of this instruction.
func (i *Class2) Class() int { return 2 }

// Mnemonic returns the base mnemonic of this instruction.
func (i *Class2) Mnemonic() string { return i.Name }

func (i *Class2) String() string {
	return binaryString(i.Name, i.Src, i.Dst)
}

// Class3 covers shifts and rotates.  Count is -1 when the implicit
// one-position form was written.
type Class3 struct {
	Name  string
	Count int64
	Dst   Register
}

// Class returns the structural class of this instruction.
func (i *Class3) Class() int { return 3 }

// Mnemonic returns the base mnemonic of this instruction.
func (i *Class3) Mnemonic() string { return i.Name }

func (i *Class3) String() string {
	if i.Count < 0 {
		return fmt.Sprintf("%s %s", i.Name, i.Dst.String())
	}
	//
	return fmt.Sprintf("%s $%d, %s", i.Name, i.Count, i.Dst.String())
}

// Class4 covers flag manipulation (the clX/stX family).
type Class4 struct {
	Name string
}

// Class returns the structural class of this instruction.
func (i *Class4) Class() int { return 4 }

// Mnemonic returns the base mnemonic of this instruction.
func (i *Class4) Mnemonic() string { return i.Name }

func (i *Class4) String() string { return i.Name }

// Class5 covers unconditional control transfer: ret, jmp, call and the
// driver-epilogue iret.  Target is nil for ret/iret.
type Class5 struct {
	Name   string
	Target Operand
}

// Class returns the structural class of this instruction.
func (i *Class5) Class() int { return 5 }

// Mnemonic returns the base mnemonic of this instruction.
func (i *Class5) Mnemonic() string { return i.Name }

func (i *Class5) String() string {
	if i.Target == nil {
		return i.Name
	}
	//
	return fmt.Sprintf("%s %s", i.Name, i.Target.String())
}

// Class6 covers conditional jumps; the target is always a memory reference.
type Class6 struct {
	Name   string
	Target Memory
}

// Class returns the structural class of this instruction.
func (i *Class6) Class() int { return 6 }

// Mnemonic returns the base mnemonic of this instruction.
func (i *Class6) Mnemonic() string { return i.Name }

func (i *Class6) String() string {
	return fmt.Sprintf("%s %s", i.Name, i.Target.String())
}

// Class7 covers port I/O.  The operands are fixed by the architecture, so
// only the transfer size (in bytes) is recorded.
type Class7 struct {
	Name string
	Size int
}

// Class returns the structural class of this instruction.
func (i *Class7) Class() int { return 7 }

// Mnemonic returns the base mnemonic of this instruction.
func (i *Class7) Mnemonic() string { return i.Name }

func (i *Class7) String() string {
	return fmt.Sprintf("%s[%d]", i.Name, i.Size)
}

func binaryString(name string, src, dst Operand) string {
	switch {
	case src == nil && dst == nil:
		return name
	case src == nil:
		return fmt.Sprintf("%s %s", name, dst.String())
	case dst == nil:
		return fmt.Sprintf("%s %s", name, src.String())
	}
	//
	return fmt.Sprintf("%s %s, %s", name, src.String(), dst.String())
}
