// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"errors"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/i8085/isa"
)

// Evaluator evaluates constant expressions on a single source line.
type Evaluator struct {
	Symbols *SymbolTable // Symbols, as currently populated.
	LineNo  int          // Line of the expression.
	Here    uint16       // Value of '$', the address of the statement.
}

// ParseNumber parses a numeric literal: decimal with an optional D
// suffix, hex with an H suffix, or binary with a B suffix.
func ParseNumber(word string) (value int64, err error) {
	word = strings.ToUpper(word)
	digits, base := word, 10
	switch {
	case strings.HasSuffix(word, "H"):
		digits, base = word[:len(word)-1], 16
	case strings.HasSuffix(word, "B"):
		digits, base = word[:len(word)-1], 2
	case strings.HasSuffix(word, "D"):
		digits = word[:len(word)-1]
	}

	if len(digits) == 0 || digits[0] < '0' || digits[0] > '9' {
		err = ErrNumber(word)
		return
	}

	value, err = strconv.ParseInt(digits, base, 64)
	if err != nil {
		err = ErrNumber(word)
		return
	}

	return
}

// hexWord parses a hex literal written without a leading digit, like FFH.
func hexWord(word string) (value int64, ok bool) {
	digits, found := strings.CutSuffix(word, "H")
	if !found || len(digits) == 0 {
		return
	}

	value, err := strconv.ParseInt(digits, 16, 64)
	ok = err == nil
	return
}

// operators are the operator tokens, longest first.
var operators = []string{"<<", ">>", "+", "-", "*", "/", "&", "|", "^", "~", "(", ")"}

// normalize tokenizes an expression, resolving numbers, characters,
// symbols and '$' to decimal integers. The result is a Starlark
// expression with identical integer semantics.
func (ev *Evaluator) normalize(expr string) (out string, single bool, err error) {
	var terms []string
	values := 0

	for n := 0; n < len(expr); {
		c := expr[n]
		switch {
		case c == ' ' || c == '\t':
			n++
			continue
		case c == '$':
			terms = append(terms, strconv.FormatInt(int64(ev.Here), 10))
			values++
			n++
			continue
		case c == '\'':
			if n+2 >= len(expr) || expr[n+2] != '\'' {
				err = ErrCharUnterminated
				return
			}
			terms = append(terms, strconv.Itoa(int(expr[n+1])))
			values++
			n += 3
			continue
		case c >= '0' && c <= '9':
			end := n
			for end < len(expr) && isIdentPart(rune(expr[end])) {
				end++
			}
			var value int64
			value, err = ParseNumber(expr[n:end])
			if err != nil {
				return
			}
			terms = append(terms, strconv.FormatInt(value, 10))
			values++
			n = end
			continue
		case isIdentStart(rune(c)):
			end := n
			for end < len(expr) && isIdentPart(rune(expr[end])) {
				end++
			}
			name := strings.ToUpper(expr[n:end])
			if isa.Reserved(name) {
				err = ErrRegisterValue
				return
			}
			var value int64
			value, err = ev.Symbols.Resolve(name, ev.LineNo)
			if _, undefined := err.(ErrUndefined); undefined {
				// Symbols take precedence over hex words.
				if hex, ok := hexWord(name); ok {
					value, err = hex, nil
				}
			}
			if err != nil {
				return
			}
			terms = append(terms, strconv.FormatInt(value, 10))
			values++
			n = end
			continue
		}

		found := false
		for _, op := range operators {
			if strings.HasPrefix(expr[n:], op) {
				n += len(op)
				if op == "/" {
					op = "//"
				}
				terms = append(terms, op)
				found = true
				break
			}
		}
		if !found {
			err = ErrExpression
			return
		}
	}

	if len(terms) == 0 {
		err = ErrExpression
		return
	}

	single = len(terms) == 1 && values == 1
	out = strings.Join(terms, " ")
	return
}

// Evaluate computes the integer value of an expression.
// Range validation is left to the caller.
func (ev *Evaluator) Evaluate(expr string) (value int64, err error) {
	text, single, err := ev.normalize(expr)
	if err != nil {
		return
	}

	if single {
		value, err = strconv.ParseInt(text, 10, 64)
		return
	}

	thread := starlark.Thread{Name: "expr"}
	opts := syntax.FileOptions{}
	prog := "rc=" + text + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, nil)
	if err != nil {
		err = errors.Join(ErrExpression, err)
		return
	}

	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrExpression
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrOutOfRange{Min: -(1 << 63), Max: 1<<63 - 1}
		return
	}

	return
}
