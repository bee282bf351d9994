// Copyright (c) 2024 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package gc

import (
	"io"

	"github.com/valyala/bytebufferpool"
)

// Buffer defines the interface for a reusable byte buffer.
// It abstracts the [bytebufferpool.ByteBuffer] type to avoid direct dependencies.
type Buffer interface {
	Write(p []byte) (int, error)
	WriteString(s string) (int, error)
	WriteByte(c byte) error
	WriteTo(w io.Writer) (int64, error)
	ReadFrom(r io.Reader) (int64, error)
	Bytes() []byte
	String() string
	Len() int
	Set(p []byte)
	SetString(s string)
	Reset()
}

// Pool defines the interface for buffer pooling.
// It abstracts the [bytebufferpool.Pool] type to avoid direct dependencies.
//
// Pool implementations must be safe for concurrent use by multiple goroutines.
type Pool interface {
	Get() Buffer
	Put(b Buffer)
}

// pool wraps [bytebufferpool.Pool] to implement Pool interface.
type pool struct{ p *bytebufferpool.Pool }

// Get returns a buffer from the pool.
func (p *pool) Get() Buffer { return p.p.Get() }

// Put returns a buffer to the pool.
func (p *pool) Put(b Buffer) {
	if buf, ok := b.(*bytebufferpool.ByteBuffer); ok {
		p.p.Put(buf)
	}
}

// Default is the default buffer pool used for efficient memory reuse in I/O operations.
//
// Example usage for reading a trust anchor bundle from disk:
//
//	// Get a buffer from the pool
//	buf := gc.Default.Get()
//
//	defer func() {
//		buf.Reset()         // Reset the buffer to prevent data leaks
//		gc.Default.Put(buf) // Return the buffer to the pool for reuse
//	}()
//
//	// Open the bundle for reading
//	file, err := os.Open("roots.pem")
//	if err != nil {
//		return 0, fmt.Errorf("error opening bundle: %w", err)
//	}
//	defer file.Close()
//
//	// Read the bundle contents into the buffer
//	if _, err := buf.ReadFrom(file); err != nil {
//		return 0, fmt.Errorf("error reading bundle: %w", err)
//	}
//
//	// Parse the anchors from the buffer
//	return c.LoadTrustedCertificatesFromBytes(buf.Bytes())
//
// Example usage for assembling a PEM bundle from parsed certificates:
//
//	buf := gc.Default.Get()
//
//	// Use defer to guarantee buffer cleanup (reset and return to the pool)
//	// even if an error occurs during encoding.
//	defer func() {
//		buf.Reset()         // Reset the buffer to prevent data leaks.
//		gc.Default.Put(buf) // Return the buffer to the pool for reuse.
//	}()
//
//	for _, cert := range certs {
//		if err := pem.Encode(buf, &pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}); err != nil {
//			return nil, fmt.Errorf("error encoding certificate: %w", err)
//		}
//	}
//
//	// Copy out before the buffer goes back to the pool.
//	bundle := append([]byte(nil), buf.Bytes()...)
//	return bundle, nil
//
// Note: Efficient memory usage is achieved by leveraging a buffer pool, which is
// especially beneficial in high-concurrency environments. For example, using 8 cores
// while keeping memory usage under 100MiB maintains high CPU efficiency with low
// memory consumption it's better.
var Default Pool = &pool{p: &bytebufferpool.Pool{}}
