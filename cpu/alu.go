package cpu

import (
	"math/bits"
)

// Apply performs the ALU operation op at width on the operands a and b.
// Operands are truncated to the width; the output is always within it.
func Apply(op CodeAluOp, width CodeWidth, a, b uint16) (output uint16, err error) {
	limit := uint32(width.Max())
	size := uint32(width.Bits())

	a &= uint16(limit)
	b &= uint16(limit)
	va := uint32(a)
	vb := uint32(b)

	var result uint32

	switch op {
	case ALU_OP_COPY:
		result = vb
	case ALU_OP_NOT:
		result = ^vb & limit
	case ALU_OP_NEG:
		result = limit - vb
	case ALU_OP_REVERSE:
		if width == WIDTH_WIDE {
			result = uint32(bits.Reverse16(b))
		} else {
			result = uint32(bits.Reverse8(uint8(b)))
		}
	case ALU_OP_NUMONES:
		// Byte swap; a single byte swaps to itself.
		if width == WIDTH_WIDE {
			result = uint32(bits.ReverseBytes16(b))
		} else {
			result = vb
		}
	case ALU_OP_NUMZEROS:
		// Population count.
		result = uint32(bits.OnesCount16(b))
	case ALU_OP_AND:
		result = va & vb
	case ALU_OP_OR:
		result = va | vb
	case ALU_OP_XOR:
		result = va ^ vb
	case ALU_OP_SHL:
		if vb < size {
			result = va << vb
		}
	case ALU_OP_SHLM:
		result = va << (vb % size)
	case ALU_OP_SHR:
		if vb < size {
			result = va >> vb
		}
	case ALU_OP_SHRM:
		result = va >> (vb % size)
	case ALU_OP_ROTL:
		result = rotate(width, a, int(vb%size))
	case ALU_OP_ROTR:
		result = rotate(width, a, -int(vb%size))
	case ALU_OP_ADDC:
		result = min(va+vb, limit)
	case ALU_OP_ADDM:
		result = va + vb
	case ALU_OP_SUBC:
		if va > vb {
			result = va - vb
		}
	case ALU_OP_SUBM:
		result = va + (limit + 1) - vb
	case ALU_OP_ABSDIFF:
		if vb > va {
			result = vb - va
		} else {
			result = va - vb
		}
	case ALU_OP_MULC:
		result = min(va*vb, limit)
	case ALU_OP_MULM:
		result = va * vb
	case ALU_OP_DIV:
		result = va / max(vb, 1)
	case ALU_OP_MOD:
		result = va % max(vb, 1)
	case ALU_OP_POWM:
		result = powMasked(va, vb, limit)
	case ALU_OP_POWC:
		result = powSaturated(va, vb, limit)
	case ALU_OP_GT:
		result = boolValue(va > vb)
	case ALU_OP_GE:
		result = boolValue(va >= vb)
	case ALU_OP_LT:
		result = boolValue(va < vb)
	case ALU_OP_LE:
		result = boolValue(va <= vb)
	default:
		err = ErrInvalidOperation
		return
	}

	output = uint16(result & limit)
	return
}

// rotate rotates value left by k bits within width; negative k rotates right.
func rotate(width CodeWidth, value uint16, k int) uint32 {
	if width == WIDTH_WIDE {
		return uint32(bits.RotateLeft16(value, k))
	}
	return uint32(bits.RotateLeft8(uint8(value), k))
}

// powMasked computes base**exp modulo limit+1.
func powMasked(base, exp, limit uint32) (result uint32) {
	result = 1
	for exp > 0 {
		if exp&1 != 0 {
			result = (result * base) & limit
		}
		base = (base * base) & limit
		exp >>= 1
	}

	return result & limit
}

// powSaturated computes base**exp clamped to limit.
func powSaturated(base, exp, limit uint32) (result uint32) {
	if exp == 0 {
		return 1
	}
	if base <= 1 {
		return base
	}

	result = 1
	for range exp {
		result *= base
		if result > limit {
			return limit
		}
	}

	return
}

func boolValue(ok bool) uint32 {
	if ok {
		return 1
	}
	return 0
}
