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
	"strconv"
	"strings"

	"github.com/h00k3r/z64sim/pkg/asm/program"
	"github.com/h00k3r/z64sim/pkg/util/source"
	"github.com/h00k3r/z64sim/pkg/util/source/lex"
)

// Parse accepts a source file written in the 64-bit AT&T dialect and
// assembles it into a Program.  On error, the (partial) Program is returned
// alongside every accumulated syntax error, so downstream tooling can still
// render highlights.
func Parse(srcfile *source.File) (*program.Program, []source.SyntaxError) {
	parser := NewParser(srcfile)
	//
	return parser.Parse()
}

// Parser is a single forward pass over the token stream.  It holds a cursor
// into the (hidden-token-free) token slice, the Program under construction
// and the accumulated error list.  The parser peeks at most one token ahead,
// except for the two-token lookahead the Addressing rule needs.
type Parser struct {
	srcfile *source.File
	tokens  []lex.Token
	// Position within the tokens
	index int
	// Program being constructed
	program *program.Program
	// Errors accumulated so far
	errors []source.SyntaxError
}

// NewParser constructs a new parser for a given source file.
func NewParser(srcfile *source.File) *Parser {
	var tokens []lex.Token
	// Hidden tokens are kept by the lexer for highlighting, but the parser
	// never sees them.
	for _, t := range Lex(srcfile) {
		if t.Kind != WHITESPACE && t.Kind != COMMENT {
			tokens = append(tokens, t)
		}
	}
	//
	return &Parser{srcfile, tokens, 0, program.NewProgram(), nil}
}

// Parse drives the top-level grammar: an optional leading location-counter
// assignment, data sections, text sections and driver blocks in any order,
// terminated by '.end'.
func (p *Parser) Parse() (*program.Program, []source.SyntaxError) {
	for {
		p.skipNewlines()
		//
		lookahead := p.lookahead()
		//
		switch lookahead.Kind {
		case END_OF:
			p.report(p.syntaxErrors(lookahead, "unexpected end of file"))
			return p.program, p.errors
		case DIR_END:
			p.match(DIR_END)
			p.skipNewlines()
			//
			if eof := p.lookahead(); eof.Kind != END_OF {
				p.report(p.syntaxErrors(eof, "unexpected token after .end"))
			}
			//
			return p.program, p.errors
		case DIR_DATA, DIR_BSS:
			p.parseDataSection()
		case DIR_TEXT:
			p.parseTextSection()
		case DIR_DRIVER, DIR_HANDLER:
			p.parseDriver()
		case LOCATION_COUNTER, DIR_ORG:
			if errs := p.parseLocationCounter(); !p.report(errs) {
				continue
			}
			//
			p.report(p.endOfStatement())
		default:
			p.report(p.syntaxErrors(lookahead, "unexpected token"))
		}
	}
}

// ============================================================================
// Sections
// ============================================================================

// sectionStart reports whether a token kind opens a new section (or ends the
// program), and hence terminates the statement loop of the current one.
func sectionStart(kind uint) bool {
	switch kind {
	case DIR_DATA, DIR_BSS, DIR_TEXT, DIR_DRIVER, DIR_HANDLER, DIR_END, END_OF:
		return true
	}
	//
	return false
}

// parseDataSection parses "(.data | .bss) NEWLINE" followed by data lines
// until the next section.
func (p *Parser) parseDataSection() {
	// Cannot fail, dispatched on lookahead
	p.index++
	//
	if !p.report(p.endOfStatement()) {
		return
	}
	//
	for !sectionStart(p.lookahead().Kind) {
		p.report(p.parseDataLine())
	}
}

func (p *Parser) parseDataLine() []source.SyntaxError {
	lookahead := p.lookahead()
	//
	switch lookahead.Kind {
	case NEWLINE:
		p.index++
		return nil
	case LOCATION_COUNTER, DIR_ORG:
		if errs := p.parseLocationCounter(); len(errs) > 0 {
			return errs
		}
	case DIR_EQU:
		if errs := p.parseEqu(); len(errs) > 0 {
			return errs
		}
	case LABEL_NAME:
		if errs := p.parseSymbolAssignment(); len(errs) > 0 {
			return errs
		}
	case LABEL:
		p.index++
		// Record the label at the current location counter, before emission.
		p.program.DefineLabel(p.labelOf(lookahead), p.program.Counter)
		// An emitting directive may follow on the same line.
		if p.lookahead().Kind != NEWLINE {
			if errs := p.parseDataDirective(); len(errs) > 0 {
				return errs
			}
		}
	default:
		if errs := p.parseDataDirective(); len(errs) > 0 {
			return errs
		}
	}
	//
	return p.endOfStatement()
}

// parseDataDirective parses one of the emitting directives (.byte, .word,
// .long, .quad, .ascii, .fill, .comm).
func (p *Parser) parseDataDirective() []source.SyntaxError {
	lookahead := p.lookahead()
	//
	switch lookahead.Kind {
	case DIR_BYTE:
		return p.parseEmit(1)
	case DIR_WORD:
		return p.parseEmit(2)
	case DIR_LONG:
		return p.parseEmit(4)
	case DIR_QUAD:
		return p.parseEmit(8)
	case DIR_ASCII:
		return p.parseAscii()
	case DIR_FILL:
		return p.parseFill()
	case DIR_COMM:
		return p.parseComm()
	}
	//
	return p.syntaxErrors(lookahead, "unexpected token")
}

// parseEmit parses "Expression {, Expression}", emitting each value with the
// given element width and advancing the location counter.
func (p *Parser) parseEmit(width int) []source.SyntaxError {
	p.index++
	//
	for {
		value, errs := p.parseExpression()
		if len(errs) > 0 {
			return errs
		}
		//
		p.program.Emit(value, width)
		//
		if !p.match(COMMA) {
			return nil
		}
	}
}

func (p *Parser) parseAscii() []source.SyntaxError {
	p.index++
	//
	tok, errs := p.expect(STRING)
	if len(errs) > 0 {
		return errs
	}
	//
	bytes, err := unescape(p.string(tok))
	if err != nil {
		return p.syntaxErrors(tok, err.Error())
	}
	//
	p.program.EmitBytes(bytes)
	//
	return nil
}

// parseFill parses ".fill repeat [, size [, value]]" with GAS semantics:
// repeat units of size bytes each (default 1), holding value (default 0) in
// little-endian order.
func (p *Parser) parseFill() []source.SyntaxError {
	var (
		size  int64 = 1
		value int64
	)
	//
	tok := p.lookahead()
	p.index++
	//
	repeat, errs := p.parseExpression()
	if len(errs) > 0 {
		return errs
	}
	//
	if p.match(COMMA) {
		if size, errs = p.parseExpression(); len(errs) > 0 {
			return errs
		}
		//
		if p.match(COMMA) {
			if value, errs = p.parseExpression(); len(errs) > 0 {
				return errs
			}
		}
	}
	//
	if repeat < 0 || size < 0 || size > 8 {
		return p.syntaxErrors(tok, "invalid .fill arguments")
	}
	//
	for i := int64(0); i < repeat; i++ {
		p.program.Emit(value, int(size))
	}
	//
	return nil
}

// parseComm parses ".comm NAME , Expression": the symbol is placed at the
// current location counter and the counter advances by the given number of
// (zero) bytes.
func (p *Parser) parseComm() []source.SyntaxError {
	p.index++
	//
	tok, errs := p.expect(LABEL_NAME)
	if len(errs) > 0 {
		return errs
	}
	//
	if _, errs = p.expect(COMMA); len(errs) > 0 {
		return errs
	}
	//
	size, errs := p.parseExpression()
	if len(errs) > 0 {
		return errs
	}
	//
	if size < 0 {
		return p.syntaxErrors(tok, "invalid .comm size")
	}
	//
	p.program.DefineLabel(p.string(tok), p.program.Counter)
	p.program.Skip(uint64(size))
	//
	return nil
}

// parseEqu parses ".equ NAME , Expression".
func (p *Parser) parseEqu() []source.SyntaxError {
	p.index++
	//
	tok, errs := p.expect(LABEL_NAME)
	if len(errs) > 0 {
		return errs
	}
	//
	if _, errs = p.expect(COMMA); len(errs) > 0 {
		return errs
	}
	//
	value, errs := p.parseExpression()
	if len(errs) > 0 {
		return errs
	}
	//
	p.program.DefineLabel(p.string(tok), uint64(value))
	//
	return nil
}

// parseSymbolAssignment parses "NAME = Expression".
func (p *Parser) parseSymbolAssignment() []source.SyntaxError {
	tok, errs := p.expect(LABEL_NAME)
	if len(errs) > 0 {
		return errs
	}
	//
	if _, errs = p.expect(EQUALS); len(errs) > 0 {
		return errs
	}
	//
	value, errs := p.parseExpression()
	if len(errs) > 0 {
		return errs
	}
	//
	p.program.DefineLabel(p.string(tok), uint64(value))
	//
	return nil
}

// parseTextSection parses ".text NEWLINE" followed by statements until the
// next section.
func (p *Parser) parseTextSection() {
	p.index++
	//
	if !p.report(p.endOfStatement()) {
		return
	}
	//
	for !sectionStart(p.lookahead().Kind) {
		insn, errs := p.parseStatement()
		//
		if p.report(errs) && insn != nil {
			p.program.Append(insn)
		}
	}
}

// parseStatement parses a single code statement: a label, a location-counter
// assignment, an instruction, or an empty line.  A nil instruction with no
// errors means the statement emitted nothing.
func (p *Parser) parseStatement() (program.Instruction, []source.SyntaxError) {
	lookahead := p.lookahead()
	//
	switch lookahead.Kind {
	case NEWLINE:
		p.index++
		return nil, nil
	case LABEL:
		p.index++
		p.program.DefineLabel(p.labelOf(lookahead), p.program.Counter)
		//
		return nil, nil
	case LOCATION_COUNTER, DIR_ORG:
		if errs := p.parseLocationCounter(); len(errs) > 0 {
			return nil, errs
		}
		//
		return nil, p.endOfStatement()
	}
	//
	insn, errs := p.parseInstruction()
	if len(errs) > 0 {
		return nil, errs
	}
	//
	return insn, p.endOfStatement()
}

// parseDriver parses ".driver/.handler (INTEGER | LABEL_NAME) NEWLINE
// Statement* IRET NEWLINE" and installs the collected instruction sequence
// (ending with the iret marker) into the driver vector.
func (p *Parser) parseDriver() {
	var code []program.Instruction
	//
	p.index++
	//
	key, errs := p.parseDriverKey()
	if !p.report(errs) {
		return
	}
	//
	if !p.report(p.endOfStatement()) {
		return
	}
	//
	for {
		lookahead := p.lookahead()
		//
		switch lookahead.Kind {
		case END_OF:
			p.report(p.syntaxErrors(lookahead, "driver block not terminated by iret"))
			return
		case IRET:
			p.index++
			code = append(code, &program.Class5{Name: "iret"})
			p.program.Skip(program.InstructionSlot)
			p.report(p.endOfStatement())
			p.program.InstallDriver(key, code)
			//
			return
		}
		//
		insn, errs := p.parseStatement()
		//
		if p.report(errs) && insn != nil {
			code = append(code, insn)
			p.program.Skip(program.InstructionSlot)
		}
	}
}

func (p *Parser) parseDriverKey() (string, []source.SyntaxError) {
	lookahead := p.lookahead()
	//
	switch lookahead.Kind {
	case NUMBER:
		p.index++
		//
		value, err := parseInt(p.string(lookahead))
		if err != nil {
			return "", p.syntaxErrors(lookahead, "malformed integer literal")
		}
		//
		return strconv.FormatInt(value, 10), nil
	case LABEL_NAME:
		p.index++
		return strings.ToLower(p.string(lookahead)), nil
	}
	//
	return "", p.syntaxErrors(lookahead, "expected interrupt number or label")
}

// parseLocationCounter parses ". = INTEGER", ".org INTEGER", ".org INTEGER ,
// INTEGER" or ".org , INTEGER".  The extra value of the comma forms is a
// fill value, parsed and ignored.
func (p *Parser) parseLocationCounter() []source.SyntaxError {
	lookahead := p.lookahead()
	//
	if lookahead.Kind == LOCATION_COUNTER {
		p.index++
		//
		if _, errs := p.expect(EQUALS); len(errs) > 0 {
			return errs
		}
	} else {
		// .org, dispatched on lookahead
		p.index++
		// leading comma form
		p.match(COMMA)
	}
	//
	value, errs := p.parseExpression()
	if len(errs) > 0 {
		return errs
	}
	//
	if p.match(COMMA) {
		// trailing fill value, ignored
		if _, errs := p.parseExpression(); len(errs) > 0 {
			return errs
		}
	}
	//
	p.program.Counter = uint64(value)
	//
	return nil
}

// ============================================================================
// Error recovery
// ============================================================================

// report appends any given errors and, if there were any, drives the
// skip-to-newline recovery machine.  It returns true if there were no errors.
func (p *Parser) report(errs []source.SyntaxError) bool {
	if len(errs) == 0 {
		return true
	}
	//
	p.errors = append(p.errors, errs...)
	p.recover()
	//
	return false
}

// recover advances the cursor until a NEWLINE has been consumed (or the end
// of input is reached), so that parsing resumes at the next statement.  No
// attempt is made to resynchronise mid-statement.
func (p *Parser) recover() {
	for {
		switch p.lookahead().Kind {
		case END_OF:
			return
		case NEWLINE:
			p.index++
			return
		}
		//
		p.index++
	}
}

// endOfStatement requires the current statement to be finished: either a
// NEWLINE (consumed) or the end of input.
func (p *Parser) endOfStatement() []source.SyntaxError {
	lookahead := p.lookahead()
	//
	switch lookahead.Kind {
	case NEWLINE:
		p.index++
		return nil
	case END_OF:
		return nil
	}
	//
	return p.syntaxErrors(lookahead, "expected end of statement")
}

func (p *Parser) skipNewlines() {
	for p.lookahead().Kind == NEWLINE {
		p.index++
	}
}

// ============================================================================
// Cursor helpers
// ============================================================================

// Get the text representing the given token as a string.
func (p *Parser) string(token lex.Token) string {
	start, end := token.Span.Start(), token.Span.End()
	return string(p.srcfile.Contents()[start:end])
}

// Get the name of a LABEL token, i.e. its text without the trailing colon.
func (p *Parser) labelOf(token lex.Token) string {
	text := p.string(token)
	return text[:len(text)-1]
}

// Lookahead returns the next token.  This must exist because END_OF is
// always appended at the end of the token stream.
func (p *Parser) lookahead() lex.Token {
	return p.tokens[p.index]
}

// Expect returns an error if the next token is not what was expected.
func (p *Parser) expect(kind uint) (lex.Token, []source.SyntaxError) {
	lookahead := p.lookahead()
	//
	if lookahead.Kind != kind {
		return lookahead, p.syntaxErrors(lookahead, "unexpected token")
	}
	//
	p.index++
	//
	return lookahead, nil
}

// Match attempts to match the given token.
func (p *Parser) match(kind uint) bool {
	if p.lookahead().Kind == kind {
		p.index++
		return true
	}
	//
	return false
}

// Follows attempts to check what follows the current position.
func (p *Parser) follows(kinds ...uint) bool {
	for i, kind := range kinds {
		n := i + p.index
		if n >= len(p.tokens) {
			return false
		} else if p.tokens[n].Kind != kind {
			return false
		}
	}
	//
	return true
}

// Peek returns the token n positions ahead of the cursor, without advancing.
func (p *Parser) peek(n int) lex.Token {
	if p.index+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	//
	return p.tokens[p.index+n]
}

func (p *Parser) syntaxErrors(token lex.Token, msg string) []source.SyntaxError {
	return []source.SyntaxError{*p.srcfile.SyntaxError(token.Span, msg)}
}
