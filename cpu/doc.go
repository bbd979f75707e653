// Package cpu implements the processor and assembler for the lemurs machine.
//
// The CPU consists of an instruction pointer (IP), two independent register
// banks (sixteen 8-bit "small" registers and sixteen 16-bit "wide"
// registers), an ALU of thirty operations at either width, and a 64KiB
// byte addressable memory. Instructions are one to four bytes long and are
// fetched directly from memory.
//
// The assembler provides a line oriented assembly language for the
// instruction set, supporting macros, labels, equates, data directives and
// compile-time expression evaluation.
package cpu
