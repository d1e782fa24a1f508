package db

import (
	"encoding/binary"
	"math"
)

// VectorToBytes encodes a float32 slice as the little-endian FLOAT32 binary
// string FT expects both in HSET vector fields and KNN PARAMS.
func VectorToBytes(vec []float32) string {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return string(buf)
}
