// Package asm implements a two pass assembler for Intel 8085 source text.
//
// Source is one statement per line: an optional 'label:', a mnemonic or
// directive, and comma separated operands, with ';' starting a comment.
// The directives are ORG, EQU, DS and END. Operands are constant
// expressions over decimal, hex (H), binary (B) and character literals,
// symbols, and '$' (the address of the statement).
//
// Pass 1 lays out addresses and defines symbols; pass 2 encodes every
// instruction. Assembly is all-or-nothing: either a Program is produced, or
// an ErrorList holding every error in the source.
package asm
