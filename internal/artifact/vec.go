package artifact

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/plenario-ai/plenario/internal/domain"
)

// Vector artifact layout: "PVEC" magic, uint32 version, uint32 dimension,
// uint32 count, then count*dimension little-endian float32 values.
const (
	vecMagic   = "PVEC"
	vecVersion = 1
	vecHeader  = 16
	maxVecDim  = 1 << 16
)

// WriteVec atomically writes the vector artifact for one collection.
// vectors is row-major; its length must be a multiple of dim.
func WriteVec(path string, dim int, vectors []float32) error {
	if dim <= 0 {
		return fmt.Errorf("vector dimension must be positive, got %d", dim)
	}
	if len(vectors)%dim != 0 {
		return fmt.Errorf("vector block of %d floats is not a multiple of dimension %d", len(vectors), dim)
	}
	count := len(vectors) / dim

	buf := make([]byte, vecHeader+len(vectors)*4)
	copy(buf[0:4], vecMagic)
	binary.LittleEndian.PutUint32(buf[4:8], vecVersion)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(dim))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(count))
	for i, v := range vectors {
		binary.LittleEndian.PutUint32(buf[vecHeader+i*4:], math.Float32bits(v))
	}

	return writeAtomic(path, func(f *os.File) error {
		if _, err := f.Write(buf); err != nil {
			return fmt.Errorf("write vectors: %w", err)
		}
		return nil
	})
}

// ReadVec reads and verifies the vector artifact. Returns the dimension and
// the row-major float32 block.
func ReadVec(path string) (int, []float32, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, fmt.Errorf("read index artifact: %w", err)
	}
	if len(b) < vecHeader {
		return 0, nil, fmt.Errorf("file too short (%d bytes): %w", len(b), domain.ErrIndexCorrupted)
	}
	if string(b[0:4]) != vecMagic {
		return 0, nil, fmt.Errorf("bad magic %q: %w", b[0:4], domain.ErrIndexCorrupted)
	}
	if v := binary.LittleEndian.Uint32(b[4:8]); v != vecVersion {
		return 0, nil, fmt.Errorf("unsupported version %d: %w", v, domain.ErrIndexCorrupted)
	}

	dim := int(binary.LittleEndian.Uint32(b[8:12]))
	count := int(binary.LittleEndian.Uint32(b[12:16]))
	if dim <= 0 || dim > maxVecDim {
		return 0, nil, fmt.Errorf("implausible dimension %d: %w", dim, domain.ErrIndexCorrupted)
	}
	if want := vecHeader + count*dim*4; len(b) != want {
		return 0, nil, fmt.Errorf("file size %d, expected %d: %w", len(b), want, domain.ErrIndexCorrupted)
	}

	vectors := make([]float32, count*dim)
	for i := range vectors {
		bits := binary.LittleEndian.Uint32(b[vecHeader+i*4:])
		vectors[i] = math.Float32frombits(bits)
	}
	return dim, vectors, nil
}
