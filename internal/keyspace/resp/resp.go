// Package resp encodes the subset of the Redis Serialization Protocol
// this project speaks: simple strings, errors, integers, bulk strings,
// and arrays. It intentionally stops at RESP2 — RESP3, pub/sub push
// types, and verbatim strings are out of scope (spec Non-goals).
package resp

import (
	"strconv"
)

const nullBulk = "$-1\r\n"

// OK returns the canonical "+OK\r\n" simple-string reply.
func OK() []byte {
	return SimpleString("OK")
}

// SimpleString encodes a `+<text>\r\n` reply.
func SimpleString(text string) []byte {
	b := make([]byte, 0, len(text)+3)
	b = append(b, '+')
	b = append(b, text...)
	return append(b, '\r', '\n')
}

// Err encodes a `-<text>\r\n` error reply. text should already carry
// the conventional error-kind prefix (ERR, OOM, ...).
func Err(text string) []byte {
	b := make([]byte, 0, len(text)+3)
	b = append(b, '-')
	b = append(b, text...)
	return append(b, '\r', '\n')
}

// Int encodes a `:<n>\r\n` integer reply.
func Int(n int64) []byte {
	b := make([]byte, 0, 16)
	b = append(b, ':')
	b = strconv.AppendInt(b, n, 10)
	return append(b, '\r', '\n')
}

// Bulk encodes a `$<len>\r\n<bytes>\r\n` bulk string reply.
func Bulk(v []byte) []byte {
	b := make([]byte, 0, len(v)+16)
	b = append(b, '$')
	b = strconv.AppendInt(b, int64(len(v)), 10)
	b = append(b, '\r', '\n')
	b = append(b, v...)
	return append(b, '\r', '\n')
}

// NullBulk encodes the `$-1\r\n` "no value" reply used by GET on a
// missing or expired key.
func NullBulk() []byte {
	return []byte(nullBulk)
}

// Array encodes a `*<n>\r\n` array reply followed by each element
// verbatim (each element must already be a complete RESP value).
func Array(items ...[]byte) []byte {
	total := 0
	for _, it := range items {
		total += len(it)
	}
	b := make([]byte, 0, total+16)
	b = append(b, '*')
	b = strconv.AppendInt(b, int64(len(items)), 10)
	b = append(b, '\r', '\n')
	for _, it := range items {
		b = append(b, it...)
	}
	return b
}
