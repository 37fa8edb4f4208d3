package classfile

// Opcode is a single JVM instruction opcode.
type Opcode uint8

// Opcodes the patcher and the arena treat specially. The rest are only
// distinguished through the operand width table below.
const (
	OpNop             Opcode = 0x00
	OpAconstNull      Opcode = 0x01
	OpIconst0         Opcode = 0x03
	OpIload           Opcode = 0x15
	OpAload0          Opcode = 0x2a
	OpIinc            Opcode = 0x84
	OpIfeq            Opcode = 0x99
	OpIfne            Opcode = 0x9a
	OpIfIcmpge        Opcode = 0xa2
	OpGoto            Opcode = 0xa7
	OpJsr             Opcode = 0xa8
	OpRet             Opcode = 0xa9
	OpTableswitch     Opcode = 0xaa
	OpLookupswitch    Opcode = 0xab
	OpIreturn         Opcode = 0xac
	OpAreturn         Opcode = 0xb0
	OpReturn          Opcode = 0xb1
	OpGetstatic       Opcode = 0xb2
	OpInvokevirtual   Opcode = 0xb6
	OpInvokespecial   Opcode = 0xb7
	OpInvokestatic    Opcode = 0xb8
	OpInvokeinterface Opcode = 0xb9
	OpInvokedynamic   Opcode = 0xba
	OpNew             Opcode = 0xbb
	OpAthrow          Opcode = 0xbf
	OpWide            Opcode = 0xc4
	OpIfnull          Opcode = 0xc6
	OpIfnonnull       Opcode = 0xc7
	OpGotoW           Opcode = 0xc8
	OpJsrW            Opcode = 0xc9
)

// operandWidth holds the fixed operand byte count per opcode. -1 marks
// opcodes that are undefined or need dedicated decoding (switches, wide).
var operandWidth = func() [256]int8 {
	var w [256]int8
	for i := range w {
		w[i] = -1
	}
	set := func(from, to int, n int8) {
		for op := from; op <= to; op++ {
			w[op] = n
		}
	}
	set(0x00, 0x0f, 0) // nop, constants
	w[0x10] = 1        // bipush
	w[0x11] = 2        // sipush
	w[0x12] = 1        // ldc
	set(0x13, 0x14, 2) // ldc_w, ldc2_w
	set(0x15, 0x19, 1) // loads
	set(0x1a, 0x35, 0) // load_n, array loads
	set(0x36, 0x3a, 1) // stores
	set(0x3b, 0x83, 0) // store_n, array stores, stack, arithmetic
	w[0x84] = 2        // iinc
	set(0x85, 0x98, 0) // conversions, compares
	set(0x99, 0xa8, 2) // if*, goto, jsr
	w[0xa9] = 1        // ret
	set(0xac, 0xb1, 0) // returns
	set(0xb2, 0xb8, 2) // field access, invokevirtual/special/static
	set(0xb9, 0xba, 4) // invokeinterface, invokedynamic
	w[0xbb] = 2        // new
	w[0xbc] = 1        // newarray
	w[0xbd] = 2        // anewarray
	set(0xbe, 0xbf, 0) // arraylength, athrow
	set(0xc0, 0xc1, 2) // checkcast, instanceof
	set(0xc2, 0xc3, 0) // monitorenter, monitorexit
	w[0xc5] = 3        // multianewarray
	set(0xc6, 0xc7, 2) // ifnull, ifnonnull
	set(0xc8, 0xc9, 4) // goto_w, jsr_w
	w[0xca] = 0        // breakpoint
	return w
}()

// IsBranch reports whether op carries a single relative jump offset.
func (op Opcode) IsBranch() bool {
	return (op >= OpIfeq && op <= OpJsr) || op == OpIfnull || op == OpIfnonnull || op == OpGotoW || op == OpJsrW
}

// IsWideBranch reports whether the jump offset is four bytes.
func (op Opcode) IsWideBranch() bool {
	return op == OpGotoW || op == OpJsrW
}

// IsSwitch reports whether op is a table or lookup switch.
func (op Opcode) IsSwitch() bool {
	return op == OpTableswitch || op == OpLookupswitch
}

// IsInvoke reports whether op calls a method.
func (op Opcode) IsInvoke() bool {
	return op >= OpInvokevirtual && op <= OpInvokedynamic
}

// IsReturn reports whether op returns from the method.
func (op Opcode) IsReturn() bool {
	return op >= OpIreturn && op <= OpReturn
}
