// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/lemurs/internal/log"
	"github.com/ezrec/lemurs/memory"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":      "0",
	"MEMORY_SIZE": fmt.Sprintf("%#x", memory.SIZE),
}

// Assembler is a single pass macro assembler for the lemurs machine.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of jump labels to image offsets.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	expansions int // Macro invocations so far, for unique @ labels.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// aluMap maps ALU operation names to selectors.
var aluMap = func() map[string]CodeAluOp {
	ops := make(map[string]CodeAluOp, int(ALU_OP_LIMIT))
	for op := range ALU_OP_LIMIT {
		ops[op.String()] = op
	}
	return ops
}()

// memMap maps memory and output mnemonics to their classes.
var memMap = map[string]CodeClass{
	"loadmem":   OP_LOADMEM,
	"loadmemw":  OP_LOADMEMW,
	"storemem":  OP_STOREMEM,
	"storememw": OP_STOREMEMW,
}

var reLabel = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}
	if len(word) == 0 {
		err = ErrParseNumber("~")
		return
	}
	if word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}
	value, err = strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if invert {
		value = ^value
	}

	return
}

// getRegister parses a register name, r0 through r15.
func (asm *Assembler) getRegister(word string) (reg CodeReg, err error) {
	if !strings.HasPrefix(word, "r") {
		err = ErrRegisterInvalid
		return
	}

	index, perr := strconv.Atoi(word[1:])
	if perr != nil || index < 0 || index >= REGISTER_COUNT {
		err = ErrRegisterInvalid
		return
	}

	reg = CodeReg(index)
	return
}

// getAddress parses an address, or returns the label it references.
func (asm *Assembler) getAddress(word string) (addr uint16, label string, err error) {
	value, verr := asm.valueOf(word)
	if verr != nil {
		if reLabel.MatchString(word) {
			label = word
			return
		}
		err = verr
		return
	}

	if strings.HasPrefix(word, "~") {
		value &= int64(WIDTH_WIDE.Max())
	}
	if value < 0 || value > int64(WIDTH_WIDE.Max()) {
		err = ErrAddressInvalid
		return
	}

	addr = uint16(value)
	return
}

// getImmediate parses a literal that must fit in width. Negative values
// are stored in two's complement.
func (asm *Assembler) getImmediate(width CodeWidth, word string) (imm uint16, err error) {
	value, err := asm.valueOf(word)
	if err != nil {
		return
	}

	limit := int64(width.Max())
	if strings.HasPrefix(word, "~") {
		value &= limit
	}
	if value > limit || value < -(limit+1)/2 {
		err = ErrImmediateInvalid
		return
	}

	imm = uint16(value) & uint16(limit)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v int64
		v, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(v)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\x00"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	words = strings.Fields(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentIp()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		asm.expansions++
		local := fmt.Sprintf("%v_%v_", name, asm.expansions)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentIp gets the image offset of the next opcode.
func (asm *Assembler) currentIp() int {
	if len(asm.Opcode) == 0 {
		return 0
	}

	last := &asm.Opcode[len(asm.Opcode)-1]

	return last.Ip + last.Len()
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.expansions = 0
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Asm.Debug().Msgf("%v: %v", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	if asm.currentIp() > memory.SIZE {
		err = ErrProgramTooLarge
		return
	}

	// Final linking of jump labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		label := op.LinkLabel
		ip, ok := asm.Label[label]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrLabelMissing(label)
			return
		}
		if len(op.Codes) < 1 {
			log.Asm.Fatal().Msgf("Unable to link label '%s' to line %d: %v", label, op.LineNo, op.Words)
		}
		linked := &op.Codes[len(op.Codes)-1]
		linked.Addr = uint16(ip)
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// parseData evaluates a .byte or .word directive.
func (asm *Assembler) parseData(width CodeWidth, args []string) (data []byte, err error) {
	if len(args) == 0 {
		err = ErrOpcodeValueMissing
		return
	}

	for _, word := range args {
		var value uint16
		value, err = asm.getImmediate(width, word)
		if err != nil {
			data = nil
			return
		}
		if width == WIDTH_WIDE {
			data = append(data, byte(value), byte(value>>8))
		} else {
			data = append(data, byte(value))
		}
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []Code
	var data []byte
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if len(codes) == 0 && len(data) == 0 {
			return
		}
		opcode := Opcode{LineNo: lineno, Ip: asm.currentIp(), Words: initial_words, Codes: codes, Data: data, LinkLabel: label}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	// Alternate syntax substitutions
	switch {
	case len(words) == 1 && words[0] == "nop":
		// nop => or r0 r0
		words = []string{"or", "r0", "r0"}
	case len(words) >= 1 && words[0] == "jump":
		// jump ADDR => jmp ADDR
		words = append([]string{"jmp"}, words[1:]...)
	case len(words) == 3 && words[0] == "set":
		// set REG VALUE => copyimm REG REG VALUE
		words = []string{"copyimm", words[1], words[1], words[2]}
	case len(words) == 3 && words[0] == "setw":
		// setw REG VALUE => copyimmw REG REG VALUE
		words = []string{"copyimmw", words[1], words[1], words[2]}
	default:
		// unchanged
	}

	args := words[1:]

	switch words[0] {
	case ".byte":
		data, err = asm.parseData(WIDTH_SMALL, args)
	case ".word":
		data, err = asm.parseData(WIDTH_WIDE, args)
	case "output", "outputw":
		if len(args) < 1 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 1 {
			err = ErrOpcodeExtraArgs
			return
		}
		var reg CodeReg
		reg, err = asm.getRegister(args[0])
		if err != nil {
			return
		}
		width := WIDTH_SMALL
		if words[0] == "outputw" {
			width = WIDTH_WIDE
		}
		codes = append(codes, MakeCodeOutput(width, reg))
	case "loadmem", "loadmemw", "storemem", "storememw", "jo":
		if len(args) < 2 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 2 {
			err = ErrOpcodeExtraArgs
			return
		}
		var reg CodeReg
		reg, err = asm.getRegister(args[0])
		if err != nil {
			return
		}
		var addr uint16
		addr, label, err = asm.getAddress(args[1])
		if err != nil {
			return
		}
		if words[0] == "jo" {
			codes = append(codes, MakeCodeJumpOdd(reg, addr))
		} else {
			codes = append(codes, Code{Class: memMap[words[0]], A: reg, Addr: addr})
		}
	case "jmp":
		if len(args) < 1 {
			err = ErrOpcodeValueMissing
			return
		}
		if len(args) > 1 {
			err = ErrOpcodeExtraArgs
			return
		}
		var addr uint16
		addr, label, err = asm.getAddress(args[0])
		if err != nil {
			return
		}
		codes = append(codes, MakeCodeJump(addr))
	default:
		var code Code
		code, err = asm.parseAlu(words[0], args)
		if err != nil {
			return
		}
		codes = append(codes, code)
	}

	return
}

// parseAlu evaluates an OP[imm][w] mnemonic and its arguments.
func (asm *Assembler) parseAlu(name string, args []string) (code Code, err error) {
	width := WIDTH_SMALL
	immediate := false

	if strings.HasSuffix(name, "w") {
		name = name[:len(name)-1]
		width = WIDTH_WIDE
	}
	if strings.HasSuffix(name, "imm") {
		name = name[:len(name)-3]
		immediate = true
	}

	op, ok := aluMap[name]
	if !ok {
		err = ErrInstructionInvalid
		return
	}

	need := 2
	if immediate {
		need = 3
	}
	if len(args) < need {
		err = ErrOpcodeValueMissing
		return
	}
	if len(args) > need {
		err = ErrOpcodeExtraArgs
		return
	}

	a, err := asm.getRegister(args[0])
	if err != nil {
		return
	}
	b, err := asm.getRegister(args[1])
	if err != nil {
		return
	}

	if !immediate {
		code = MakeCodeAlu(width, op, a, b)
		return
	}

	imm, err := asm.getImmediate(width, args[2])
	if err != nil {
		return
	}

	code = MakeCodeAluImm(width, op, a, b, imm)
	return
}
