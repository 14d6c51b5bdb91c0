package digest

import (
	"encoding/binary"
	"encoding/hex"
	"math/bits"
)

// Size is the digest length in bytes.
const Size = 16

const blockSize = 64

var initialState = [4]uint32{0x67452301, 0xEFCDAB89, 0x98BADCFE, 0x10325476}

var shifts = [64]int{
	7, 12, 17, 22, 7, 12, 17, 22, 7, 12, 17, 22, 7, 12, 17, 22,
	5, 9, 14, 20, 5, 9, 14, 20, 5, 9, 14, 20, 5, 9, 14, 20,
	4, 11, 16, 23, 4, 11, 16, 23, 4, 11, 16, 23, 4, 11, 16, 23,
	6, 10, 15, 21, 6, 10, 15, 21, 6, 10, 15, 21, 6, 10, 15, 21,
}

var constants = [64]uint32{
	0xD76AA478, 0xE8C7B756, 0x242070DB, 0xC1BDCEEE,
	0xF57C0FAF, 0x4787C62A, 0xA8304613, 0xFD469501,
	0x698098D8, 0x8B44F7AF, 0xFFFF5BB1, 0x895CD7BE,
	0x6B901122, 0xFD987193, 0xA679438E, 0x49B40821,

	0xF61E2562, 0xC040B340, 0x265E5A51, 0xE9B6C7AA,
	0xD62F105D, 0x02441453, 0xD8A1E681, 0xE7D3FBC8,
	0x21E1CDE6, 0xC33707D6, 0xF4D50D87, 0x455A14ED,
	0xA9E3E905, 0xFCEFA3F8, 0x676F02D9, 0x8D2A4C8A,

	0xFFFA3942, 0x8771F681, 0x6D9D6122, 0xFDE5380C,
	0xA4BEEA44, 0x4BDECFA9, 0xF6BB4B60, 0xBEBFBC70,
	0x289B7EC6, 0xEAA127FA, 0xD4EF3085, 0x04881D05,
	0xD9D4D039, 0xE6DB99E5, 0x1FA27CF8, 0xC4AC5665,

	0xF4292244, 0x432AFF97, 0xAB9423A7, 0xFC93A039,
	0x655B59C3, 0x8F0CCC92, 0xFFEFF47D, 0x85845DD1,
	0x6FA87E4F, 0xFE2CE6E0, 0xA3014314, 0x4E0811A1,
	0xF7537E82, 0xBD3AF235, 0x2AD7D2BB, 0xEB86D391,
}

// Sum returns the MD5 digest of data.
func Sum(data []byte) [Size]byte {
	state := initialState
	padded := pad(data)
	var words [16]uint32
	for offset := 0; offset < len(padded); offset += blockSize {
		for i := range words {
			words[i] = binary.LittleEndian.Uint32(padded[offset+i*4:])
		}
		compress(&state, &words)
	}

	var out [Size]byte
	for i, register := range state {
		binary.LittleEndian.PutUint32(out[i*4:], register)
	}
	return out
}

// Hex returns the digest of data as 32 lowercase hexadecimal characters.
func Hex(data []byte) string {
	sum := Sum(data)
	return hex.EncodeToString(sum[:])
}

// String hashes the UTF-8 bytes of s.
func String(s string) string {
	return Hex([]byte(s))
}

// Latin1 hashes s taking one byte per character. It reports false, and
// hashes nothing, when s contains a character above U+00FF since such input
// has no single-byte representation.
func Latin1(s string) (string, bool) {
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return "", false
		}
		buf = append(buf, byte(r))
	}
	return Hex(buf), true
}

// pad appends the 0x80 marker, zero fill up to 56 mod 64 bytes and the
// 64-bit little-endian message length in bits.
func pad(data []byte) []byte {
	length := len(data)
	fill := 56 - (length+1)%blockSize
	if fill < 0 {
		fill += blockSize
	}
	out := make([]byte, length+1+fill+8)
	copy(out, data)
	out[length] = 0x80
	binary.LittleEndian.PutUint64(out[len(out)-8:], uint64(length)<<3)
	return out
}

func compress(state *[4]uint32, words *[16]uint32) {
	a, b, c, d := state[0], state[1], state[2], state[3]
	for step := 0; step < 64; step++ {
		var mixed uint32
		var index int
		switch step / 16 {
		case 0:
			mixed = (b & c) | (^b & d)
			index = step
		case 1:
			mixed = (b & d) | (c &^ d)
			index = (5*step + 1) % 16
		case 2:
			mixed = b ^ c ^ d
			index = (3*step + 5) % 16
		default:
			mixed = c ^ (b | ^d)
			index = (7 * step) % 16
		}
		mixed += a + constants[step] + words[index]
		a, d, c = d, c, b
		b += bits.RotateLeft32(mixed, shifts[step])
	}
	state[0] += a
	state[1] += b
	state[2] += c
	state[3] += d
}
