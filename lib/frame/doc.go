// Package frame implements the length-prefixed wire format used by every
// dMQ connection.
//
// A message is a list of opaque binary frames. On the wire it is written as:
//
//	+----------------------+------------+--------+------------+--------+-----
//	| version<<4 | count   | len (4 BE) | data   | len (4 BE) | data   | ...
//	+----------------------+------------+--------+------------+--------+-----
//
// The leading byte carries the protocol version in the high nibble and the
// number of frames (at most 15) in the low nibble. Every frame follows as a
// 4 byte big endian length and the raw bytes.
//
// Key Components:
//
//   - Encode: turns a list of frames into one contiguous wire buffer.
//
//   - Decoder: a per-connection, restartable parser. Stream bytes are fed in
//     arbitrarily sized chunks via Write; fully reassembled messages are pulled
//     with Next. Partial frames are buffered until the rest arrives.
//
//   - ProtocolError: returned for malformed input (unknown version, frames
//     exceeding the configured maximum). The owning connection is expected
//     to be torn down when it occurs.
package frame
