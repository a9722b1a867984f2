package accel

import "encoding/binary"

// PackWords packs a 16-byte block into four register words with byte 0
// as the most significant byte of word 0. This is the byte order the
// accelerator expects and must be preserved exactly.
func PackWords(b [16]byte) [4]uint32 {
	var w [4]uint32
	for i := range w {
		w[i] = binary.BigEndian.Uint32(b[i*4 : i*4+4])
	}
	return w
}

// UnpackWords is the inverse of PackWords.
func UnpackWords(w [4]uint32) [16]byte {
	var b [16]byte
	for i, v := range w {
		binary.BigEndian.PutUint32(b[i*4:i*4+4], v)
	}
	return b
}

func writeBlock(regs Registers, base uint32, w [4]uint32) {
	for i, v := range w {
		regs.WriteWord(base+uint32(i)*4, v)
	}
}

func readBlock(regs Registers, base uint32) [4]uint32 {
	var w [4]uint32
	for i := range w {
		w[i] = regs.ReadWord(base + uint32(i)*4)
	}
	return w
}
