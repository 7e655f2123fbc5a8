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
package assembler

import (
	"fmt"
	"strings"

	"github.com/h00k3r/z64sim/pkg/asm/program"
	"github.com/h00k3r/z64sim/pkg/util/source"
	"github.com/h00k3r/z64sim/pkg/util/source/lex"
)

// suffixBytes maps a one-character size suffix to its width in bytes.
func suffixBytes(c byte) int {
	switch c {
	case 'b':
		return 1
	case 'w':
		return 2
	case 'l':
		return 4
	case 'q':
		return 8
	}
	//
	return -1
}

// splitMnemonic splits the (lower-cased) lexeme of a mnemonic token into its
// base mnemonic and suffix width in bytes (-1 when absent).  The lexer only
// emits lexemes this table accepts, so the split cannot fail.
func splitMnemonic(kind uint, lexeme string) (string, int) {
	for _, base := range mnemonics[kind] {
		if lexeme == base {
			return base, -1
		}
	}
	//
	for _, base := range mnemonics[kind] {
		if len(lexeme) == len(base)+1 && strings.HasPrefix(lexeme, base) {
			return base, suffixBytes(lexeme[len(base)])
		}
	}
	//
	panic(fmt.Sprintf("unreachable: %s", lexeme))
}

// parseInstruction dispatches on the mnemonic family of the current token,
// determines the size suffix, parses the operands in the family's format,
// validates operand-size consistency and constructs an instruction of the
// appropriate class.
func (p *Parser) parseInstruction() (program.Instruction, []source.SyntaxError) {
	lookahead := p.lookahead()
	//
	switch lookahead.Kind {
	case INSN_0, INSN_0_WQ, INSN_0_NOSUFF, INSN_1_S, INSN_LEA, INSN_1_E,
		INSN_SHIFT, INSN_1_M, INSN_JC, INSN_B_E, INSN_EXT, INSN_IN,
		INSN_OUT, INSN_IO_S:
		// fall through below
	default:
		return nil, p.syntaxErrors(lookahead, "unexpected token")
	}
	//
	p.index++
	//
	lexeme := strings.ToLower(p.string(lookahead))
	//
	switch lookahead.Kind {
	case INSN_EXT:
		return p.parseExtension(lookahead, lexeme)
	case INSN_IO_S:
		return p.parseStringIO(lookahead, lexeme)
	}
	//
	base, suffix := splitMnemonic(lookahead.Kind, lexeme)
	//
	switch lookahead.Kind {
	case INSN_0, INSN_0_WQ:
		// operand-less data movement; the suffix is the only size source
		return &program.Class1{Name: base, SizeHint: suffix}, nil
	case INSN_0_NOSUFF:
		return parseNoOperand(base), nil
	case INSN_1_S:
		return p.parseInterrupt(base)
	case INSN_LEA:
		return p.parseLea(lookahead, base, suffix)
	case INSN_1_E:
		return p.parseUnary(lookahead, base, suffix)
	case INSN_SHIFT:
		return p.parseShift(lookahead, base, suffix)
	case INSN_1_M:
		return p.parseConditionalJump(base)
	case INSN_JC:
		return p.parseJump(lookahead, base, suffix)
	case INSN_B_E:
		return p.parseBinary(lookahead, base, suffix)
	case INSN_IN, INSN_OUT:
		return p.parsePortIO(lookahead, base, suffix, lookahead.Kind == INSN_IN)
	}
	//
	panic("unreachable")
}

// parseNoOperand constructs the instruction for a suffix-less, operand-less
// mnemonic: ret transfers control, hlt/nop are class 0, and the remaining
// clX/stX family manipulates flags.
func parseNoOperand(base string) program.Instruction {
	switch base {
	case "ret":
		return &program.Class5{Name: base}
	case "hlt", "nop":
		return &program.Class0{Name: base, Interrupt: -1}
	}
	//
	return &program.Class4{Name: base}
}

// parseInterrupt parses "int INTEGER".
func (p *Parser) parseInterrupt(base string) (program.Instruction, []source.SyntaxError) {
	tok, errs := p.expect(NUMBER)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	value, err := parseInt(p.string(tok))
	if err != nil {
		return nil, p.syntaxErrors(tok, "malformed integer literal")
	}
	//
	return &program.Class0{Name: base, Interrupt: value}, nil
}

// parseLea parses "lea FormatE, FormatE".
func (p *Parser) parseLea(at lex.Token, base string, suffix int) (program.Instruction, []source.SyntaxError) {
	src, errs := p.parseFormatE(suffix)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	if _, errs = p.expect(COMMA); len(errs) > 0 {
		return nil, errs
	}
	//
	dst, errs := p.parseFormatE(suffix)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	if errs = p.checkOperandSize(at, suffix, src, dst); len(errs) > 0 {
		return nil, errs
	}
	//
	return &program.Class1{Name: base, Src: src, Dst: dst, SizeHint: -1}, nil
}

// parseUnary parses the single-E-operand family: push/pop are data
// movement, neg/not are arithmetic.
func (p *Parser) parseUnary(at lex.Token, base string, suffix int) (program.Instruction, []source.SyntaxError) {
	op, errs := p.parseFormatE(suffix)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	if errs = p.checkOperandSize(at, suffix, op); len(errs) > 0 {
		return nil, errs
	}
	//
	switch base {
	case "push":
		return &program.Class1{Name: base, Src: op, SizeHint: -1}, nil
	case "pop":
		return &program.Class1{Name: base, Dst: op, SizeHint: -1}, nil
	}
	//
	return &program.Class2{Name: base, Dst: op}, nil
}

// parseShift parses "[FormatK ','] FormatG".  The count is -1 when the
// implicit one-position form was written.
func (p *Parser) parseShift(at lex.Token, base string, suffix int) (program.Instruction, []source.SyntaxError) {
	var count int64 = -1
	//
	if p.lookahead().Kind == DOLLAR {
		k, errs := p.parseFormatK()
		if len(errs) > 0 {
			return nil, errs
		}
		//
		if _, errs = p.expect(COMMA); len(errs) > 0 {
			return nil, errs
		}
		//
		count = k
	}
	//
	dst, errs := p.parseFormatG()
	if len(errs) > 0 {
		return nil, errs
	}
	//
	if errs = p.checkOperandSize(at, suffix, dst); len(errs) > 0 {
		return nil, errs
	}
	//
	return &program.Class3{Name: base, Count: count, Dst: dst}, nil
}

// parseConditionalJump parses the target of a conditional jump.  The family
// takes no suffix, so the target memory operand carries no operand size.
func (p *Parser) parseConditionalJump(base string) (program.Instruction, []source.SyntaxError) {
	target, errs := p.parseFormatM(-1)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	return &program.Class6{Name: base, Target: target}, nil
}

// parseJump parses "jmp/call ('*' FormatG | FormatM)".
func (p *Parser) parseJump(at lex.Token, base string, suffix int) (program.Instruction, []source.SyntaxError) {
	if p.match(STAR) {
		target, errs := p.parseFormatG()
		if len(errs) > 0 {
			return nil, errs
		}
		//
		if errs = p.checkOperandSize(at, suffix, target); len(errs) > 0 {
			return nil, errs
		}
		//
		return &program.Class5{Name: base, Target: target}, nil
	}
	//
	target, errs := p.parseFormatM(suffix)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	return &program.Class5{Name: base, Target: target}, nil
}

// parseBinary parses "FormatB ',' FormatE": mov is data movement, the rest
// are binary arithmetic/logical operations.
func (p *Parser) parseBinary(at lex.Token, base string, suffix int) (program.Instruction, []source.SyntaxError) {
	src, errs := p.parseFormatB(suffix)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	if _, errs = p.expect(COMMA); len(errs) > 0 {
		return nil, errs
	}
	//
	dst, errs := p.parseFormatE(suffix)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	if errs = p.checkOperandSize(at, suffix, src, dst); len(errs) > 0 {
		return nil, errs
	}
	//
	if base == "mov" {
		return &program.Class1{Name: base, Src: src, Dst: dst, SizeHint: -1}, nil
	}
	//
	return &program.Class2{Name: base, Src: src, Dst: dst}, nil
}

// parseExtension parses "movs/movz FormatE, FormatG" with a two-character
// suffix encoding the source and destination widths.
func (p *Parser) parseExtension(at lex.Token, lexeme string) (program.Instruction, []source.SyntaxError) {
	var (
		base    = lexeme[:4]
		srcSize = suffixBytes(lexeme[4])
		dstSize = suffixBytes(lexeme[5])
	)
	//
	if srcSize >= dstSize {
		return nil, p.syntaxErrors(at,
			fmt.Sprintf("Wrong suffices for extension: cannot extend from %d to %d", srcSize, dstSize))
	}
	//
	if srcSize == 8 {
		return nil, p.syntaxErrors(at, "Zero/Sign extension with wrong source prefix type")
	}
	//
	src, errs := p.parseFormatE(srcSize)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	if _, errs = p.expect(COMMA); len(errs) > 0 {
		return nil, errs
	}
	//
	dst, errs := p.parseFormatG()
	if len(errs) > 0 {
		return nil, errs
	}
	// Register operands must agree with the widths the suffix pair demands.
	if reg, ok := src.(program.Register); ok && reg.Bits != uint(srcSize*8) {
		return nil, p.syntaxErrors(at, "Operand size mismatch.")
	}
	//
	if dst.Bits != uint(dstSize*8) {
		return nil, p.syntaxErrors(at, "Operand size mismatch.")
	}
	//
	return &program.Class1{Name: base, Src: src, Dst: dst, SizeHint: -1}, nil
}

// parsePortIO parses the fixed-register port I/O forms "in %dx, %rAX" and
// "out %rAX, %dx", where %rAX stands for the accumulator of the width the
// suffix demands.
func (p *Parser) parsePortIO(at lex.Token, base string, suffix int, in bool) (program.Instruction, []source.SyntaxError) {
	first, errs := p.parseRegister()
	if len(errs) > 0 {
		return nil, errs
	}
	//
	if _, errs = p.expect(COMMA); len(errs) > 0 {
		return nil, errs
	}
	//
	second, errs := p.parseRegister()
	if len(errs) > 0 {
		return nil, errs
	}
	// The port register is always %dx; the data register is the accumulator.
	port, data := first, second
	if !in {
		port, data = second, first
	}
	//
	wrong := port.Id != program.RDX || port.Bits != 16 || data.Id != program.RAX
	//
	if suffix > 0 && data.Bits != uint(suffix*8) {
		wrong = true
	}
	//
	if wrong {
		return nil, p.syntaxErrors(at, fmt.Sprintf("Wrong operands for instruction %s.", base))
	}
	//
	return &program.Class7{Name: base, Size: int(data.Bits / 8)}, nil
}

// parseStringIO parses the string port I/O forms insb/insw/insl (and the
// outs equivalents).  A 64-bit transfer does not exist, so an absent or 'q'
// suffix is rejected.
func (p *Parser) parseStringIO(at lex.Token, lexeme string) (program.Instruction, []source.SyntaxError) {
	base, suffix := splitMnemonic(INSN_IO_S, lexeme)
	//
	if suffix == -1 || suffix == 8 {
		return nil, p.syntaxErrors(at, fmt.Sprintf("Wrong size suffix for instruction %s", base))
	}
	//
	return &program.Class7{Name: base, Size: suffix}, nil
}

// checkOperandSize validates that every register operand agrees with the
// width demanded by the instruction suffix.  Memory operands carry the
// suffix width by construction, and an absent suffix demands nothing.
func (p *Parser) checkOperandSize(at lex.Token, suffix int, operands ...program.Operand) []source.SyntaxError {
	if suffix <= 0 {
		return nil
	}
	//
	for _, op := range operands {
		if reg, ok := op.(program.Register); ok && reg.Bits != uint(suffix*8) {
			return p.syntaxErrors(at, "Operand size and instruction suffix mismatch.")
		}
	}
	//
	return nil
}
