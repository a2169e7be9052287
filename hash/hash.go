package hash

import "github.com/zeebo/blake3"

// Size is the size of the blake3 digest used across the repository.
const Size = 32

// New returns a blake3 hasher.
var New = blake3.New

// Sum computes blake3 of all chunks.
func Sum(chunks ...[]byte) (rst [Size]byte) {
	hh := GetHasher()
	defer PutHasher(hh)
	for _, chunk := range chunks {
		hh.Write(chunk)
	}
	hh.Sum(rst[:0])
	return rst
}

// Sum20 computes blake3 of all chunks and truncates it to 20 bytes.
func Sum20(chunks ...[]byte) (rst [20]byte) {
	full := Sum(chunks...)
	copy(rst[:], full[:])
	return rst
}
