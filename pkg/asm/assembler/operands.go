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
	"math"

	"github.com/h00k3r/z64sim/pkg/asm/program"
	"github.com/h00k3r/z64sim/pkg/util/source"
)

// isRegister reports whether a token kind belongs to one of the four
// register families.
func isRegister(kind uint) bool {
	switch kind {
	case REG_8, REG_16, REG_32, REG_64:
		return true
	}
	//
	return false
}

// familyBits maps a register token kind to the family width in bits.
func familyBits(kind uint) uint {
	switch kind {
	case REG_8:
		return 8
	case REG_16:
		return 16
	case REG_32:
		return 32
	case REG_64:
		return 64
	}
	//
	panic("not a register token")
}

// parseRegister matches a single register token and yields the register
// operand, resolving the name to its architectural id.
func (p *Parser) parseRegister() (program.Register, []source.SyntaxError) {
	lookahead := p.lookahead()
	//
	if !isRegister(lookahead.Kind) {
		return program.Register{}, p.syntaxErrors(lookahead, "expected register")
	}
	//
	p.index++
	//
	return program.Register{
		Id:   program.RegisterId(p.string(lookahead)),
		Bits: familyBits(lookahead.Kind),
	}, nil
}

// parseAddressing parses the memory-operand syntax "[disp] [(base[, index,
// scale])]".  At least one of the displacement and the register block must
// be present.  The operand size is carried from the instruction suffix, not
// inferred.
//
// A two-token lookahead distinguishes a parenthesised register block from a
// parenthesised displacement expression.
func (p *Parser) parseAddressing(size int) (program.Memory, []source.SyntaxError) {
	mem := program.Memory{
		Base:        program.NoRegister,
		Index:       program.NoRegister,
		OperandSize: size,
	}
	//
	start := p.lookahead()
	//
	if !p.follows(LBRACE) || !isRegister(p.peek(1).Kind) {
		value, errs := p.parseExpression()
		if len(errs) > 0 {
			return mem, errs
		}
		//
		if value < math.MinInt32 || value > math.MaxInt32 {
			return mem, p.syntaxErrors(start, "displacement out of range")
		}
		//
		mem.Displacement = int32(value)
		mem.HasDisplacement = true
	}
	//
	if p.match(LBRACE) {
		base, errs := p.parseRegister()
		if len(errs) > 0 {
			return mem, errs
		}
		//
		mem.Base, mem.BaseBits = base.Id, base.Bits
		//
		if p.match(COMMA) {
			index, errs := p.parseRegister()
			if len(errs) > 0 {
				return mem, errs
			}
			//
			mem.Index, mem.IndexBits = index.Id, index.Bits
			//
			if _, errs = p.expect(COMMA); len(errs) > 0 {
				return mem, errs
			}
			//
			tok, errs := p.expect(NUMBER)
			if len(errs) > 0 {
				return mem, errs
			}
			//
			scale, err := parseInt(p.string(tok))
			if err != nil {
				return mem, p.syntaxErrors(tok, "malformed integer literal")
			}
			//
			mem.Scale = uint(scale)
			//
			if mem.BaseBits != mem.IndexBits {
				return mem, p.syntaxErrors(tok, "base and index register sizes must match")
			}
		}
		//
		if _, errs = p.expect(RBRACE); len(errs) > 0 {
			return mem, errs
		}
	}
	//
	return mem, nil
}

// parseFormatE parses a register or a memory operand.
func (p *Parser) parseFormatE(size int) (program.Operand, []source.SyntaxError) {
	if isRegister(p.lookahead().Kind) {
		reg, errs := p.parseRegister()
		if len(errs) > 0 {
			return nil, errs
		}
		//
		return reg, nil
	}
	//
	mem, errs := p.parseAddressing(size)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	return mem, nil
}

// parseFormatG parses a register operand only.
func (p *Parser) parseFormatG() (program.Register, []source.SyntaxError) {
	return p.parseRegister()
}

// parseFormatM parses a direct memory reference: either a label, resolved
// eagerly against the symbol table, or an addressing expression.  Forward
// references are not resolved in a second pass.
func (p *Parser) parseFormatM(size int) (program.Memory, []source.SyntaxError) {
	lookahead := p.lookahead()
	//
	if lookahead.Kind == LABEL_NAME && !p.addressingFollows() {
		p.index++
		//
		addr, ok := p.program.LookupLabel(p.string(lookahead))
		if !ok {
			return program.Memory{},
				p.syntaxErrors(lookahead, "Trying to address a label which has not been defined")
		}
		//
		return program.Memory{
			Base:            program.NoRegister,
			Index:           program.NoRegister,
			Displacement:    int32(addr),
			HasDisplacement: true,
			OperandSize:     size,
		}, nil
	}
	//
	return p.parseAddressing(size)
}

// addressingFollows reports whether the label name at the cursor is really
// the head of an addressing expression (followed by an operator or a
// register block) rather than a bare reference.
func (p *Parser) addressingFollows() bool {
	switch p.peek(1).Kind {
	case PLUS, MINUS, STAR, SLASH, LBRACE:
		return true
	}
	//
	return false
}

// parseFormatB parses an immediate ('$' Expression), a register, or a
// direct memory reference.
func (p *Parser) parseFormatB(size int) (program.Operand, []source.SyntaxError) {
	if p.match(DOLLAR) {
		value, errs := p.parseExpression()
		if len(errs) > 0 {
			return nil, errs
		}
		//
		return program.Immediate{Value: value}, nil
	}
	//
	if isRegister(p.lookahead().Kind) {
		reg, errs := p.parseRegister()
		if len(errs) > 0 {
			return nil, errs
		}
		//
		return reg, nil
	}
	//
	mem, errs := p.parseFormatM(size)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	return mem, nil
}

// parseFormatK parses an immediate shift count, narrowed to 32 bits.
func (p *Parser) parseFormatK() (int64, []source.SyntaxError) {
	if _, errs := p.expect(DOLLAR); len(errs) > 0 {
		return 0, errs
	}
	//
	value, errs := p.parseExpression()
	if len(errs) > 0 {
		return 0, errs
	}
	//
	return int64(int32(value)), nil
}
