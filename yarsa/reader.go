package yarsa

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"hash"
)

// DeterministicReader is a reproducible byte stream: block i is
// HMAC-SHA256(seed, bigEndian(i)). Feeding it to GenerateKeypair makes the
// primes, the witnesses of the primality test and the public exponent depend
// on the seed only.
//
// It is not safe for concurrent use. A guessable seed gives away the key.
//
// Example:
//
//	params, err := yarsa.GenerateKeypair(ctx, yarsa.KeyOpts{
//	    Bits:   512,
//	    Random: yarsa.NewDeterministicReader([]byte("lab seed")),
//	})
type DeterministicReader struct {
	mac     hash.Hash
	counter uint64
	block   []byte
	pos     int
}

// NewDeterministicReader copies seed, so later changes to the slice do not
// affect the stream.
func NewDeterministicReader(seed []byte) *DeterministicReader {
	return &DeterministicReader{
		mac: hmac.New(sha256.New, append([]byte(nil), seed...)),
	}
}

// Read always fills p completely and never fails.
func (r *DeterministicReader) Read(p []byte) (int, error) {
	written := 0

	for written < len(p) {
		if r.pos == len(r.block) {
			r.next()
		}

		n := copy(p[written:], r.block[r.pos:])
		r.pos += n
		written += n
	}

	return written, nil
}

func (r *DeterministicReader) next() {
	var counter [8]byte

	binary.BigEndian.PutUint64(counter[:], r.counter)
	r.counter++

	r.mac.Reset()
	r.mac.Write(counter[:])
	r.block = r.mac.Sum(r.block[:0])
	r.pos = 0
}
