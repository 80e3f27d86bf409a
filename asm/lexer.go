// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"strings"
	"unicode"

	"github.com/ezrec/i8085/isa"
)

// TokenKind is the lexical class of a token.
// A label token omits its colon, and a comment token is the text
// after the ';'. Each operand is its own token.
type TokenKind int

//go:generate go tool stringer -linecomment -type=TokenKind
const (
	TOKEN_LABEL    = TokenKind(0) // label
	TOKEN_MNEMONIC = TokenKind(1) // mnemonic
	TOKEN_OPERAND  = TokenKind(2) // operand
	TOKEN_COMMENT  = TokenKind(3) // comment
)

// Token is one lexical element of a source line.
type Token struct {
	Kind   TokenKind
	Text   string
	LineNo int
}

// Line is a lexed source line.
type Line struct {
	LineNo   int      // Line number, starting at 1.
	Text     string   // Raw source text.
	Label    string   // Upper case label, or the name of an EQU.
	Mnemonic string   // Upper case mnemonic or directive.
	Operands []string // Operands; upper case outside of character literals.
	Comment  string   // Comment text, without the ';'.
}

// Empty returns true for blank and comment-only lines.
func (ln *Line) Empty() bool {
	return len(ln.Label) == 0 && len(ln.Mnemonic) == 0
}

// Tokens returns the tokens of the line, in source order.
// Blank and comment-only lines have no tokens.
func (ln *Line) Tokens() (tokens []Token) {
	if ln.Empty() {
		return
	}

	add := func(kind TokenKind, text string) {
		tokens = append(tokens, Token{Kind: kind, Text: text, LineNo: ln.LineNo})
	}

	if len(ln.Label) > 0 {
		add(TOKEN_LABEL, ln.Label)
	}
	if len(ln.Mnemonic) > 0 {
		add(TOKEN_MNEMONIC, ln.Mnemonic)
	}
	for _, operand := range ln.Operands {
		add(TOKEN_OPERAND, operand)
	}
	if len(ln.Comment) > 0 {
		add(TOKEN_COMMENT, ln.Comment)
	}

	return
}

// isIdentStart returns true for characters that may begin a symbol.
func isIdentStart(c rune) bool {
	return c == '_' || c == '?' || c == '@' || (c < unicode.MaxASCII && unicode.IsLetter(c))
}

// isIdentPart returns true for characters that may continue a symbol.
func isIdentPart(c rune) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// isIdent returns true if the word is a valid symbol name.
func isIdent(word string) bool {
	if len(word) == 0 {
		return false
	}
	for n, c := range word {
		if n == 0 && !isIdentStart(c) {
			return false
		}
		if !isIdentPart(c) {
			return false
		}
	}
	return true
}

// scanQuoted calls fn for every byte index of text that is outside a
// character literal, stopping when fn returns false.
// Returns true if text ends inside a character literal.
func scanQuoted(text string, fn func(n int) bool) (open bool) {
	for n := 0; n < len(text); n++ {
		if text[n] == '\'' {
			open = !open
			continue
		}
		if !open && !fn(n) {
			break
		}
	}
	return
}

// upper converts text outside of character literals to upper case.
func upper(text string) string {
	buff := []byte(text)
	scanQuoted(text, func(n int) bool {
		if buff[n] >= 'a' && buff[n] <= 'z' {
			buff[n] -= 'a' - 'A'
		}
		return true
	})
	return string(buff)
}

// indexQuoted finds the first c outside of a character literal, or -1.
func indexQuoted(text string, c byte) (index int) {
	index = -1
	scanQuoted(text, func(n int) bool {
		if text[n] == c {
			index = n
			return false
		}
		return true
	})
	return
}

// splitOperands splits on commas outside of character literals.
func splitOperands(text string) (operands []string, err error) {
	start := 0
	scanQuoted(text, func(n int) bool {
		if text[n] == ',' {
			operands = append(operands, strings.TrimSpace(text[start:n]))
			start = n + 1
		}
		return true
	})
	operands = append(operands, strings.TrimSpace(text[start:]))

	for _, operand := range operands {
		if len(operand) == 0 {
			err = ErrOperandEmpty
			return
		}
	}

	return
}

// cutSpace splits off the first whitespace delimited word.
func cutSpace(text string) (word string, rest string) {
	word = text
	if space := strings.IndexFunc(text, unicode.IsSpace); space >= 0 {
		word, rest = text[:space], strings.TrimSpace(text[space+1:])
	}
	return
}

// Lex splits a source line into label, mnemonic, operands and comment.
// On error, the returned line still carries the raw text and line number.
func Lex(lineno int, text string) (line *Line, err error) {
	line = &Line{LineNo: lineno, Text: text}

	code := text
	if semi := indexQuoted(text, ';'); semi >= 0 {
		code = text[:semi]
		line.Comment = strings.TrimSpace(text[semi+1:])
	}

	if scanQuoted(code, func(int) bool { return true }) {
		err = ErrCharUnterminated
		return
	}

	code = strings.TrimSpace(upper(code))
	if len(code) == 0 {
		return
	}

	if colon := indexQuoted(code, ':'); colon >= 0 {
		label := strings.TrimSpace(code[:colon])
		switch {
		case len(label) == 0:
			err = ErrLabelEmpty
			return
		case !isIdent(label):
			err = ErrLabelInvalid
			return
		case isa.Reserved(label):
			err = ErrLabelReserved
			return
		}
		line.Label = label
		code = strings.TrimSpace(code[colon+1:])
	}

	if len(code) == 0 {
		return
	}

	mnemonic, rest := cutSpace(code)

	// NAME EQU expr
	if len(line.Label) == 0 && len(rest) > 0 {
		second, tail := cutSpace(rest)
		if second == "EQU" {
			if !isIdent(mnemonic) {
				err = ErrLabelInvalid
				return
			}
			if isa.Reserved(mnemonic) {
				err = ErrLabelReserved
				return
			}
			line.Label = mnemonic
			mnemonic, rest = "EQU", tail
		}
	}

	if !isIdent(mnemonic) {
		err = ErrMnemonicInvalid
		return
	}
	line.Mnemonic = mnemonic

	if len(rest) > 0 {
		line.Operands, err = splitOperands(rest)
		if err != nil {
			return
		}
	}

	return
}
