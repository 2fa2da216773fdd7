// Package message provides the multi-frame message type carried by every dMQ
// socket together with the typed argument convention used by request/reply.
//
// Key Components:
//
//   - Message: an ordered list of binary frames with Push/Pop/Shift/Unshift
//     helpers. The frame count of a message must not exceed frame.MaxFrames.
//
//   - Args: an optional typed encoding for frames. Strings are sent as "s:"
//     prefixed UTF-8, arbitrary values as "j:" prefixed JSON and raw byte
//     slices are passed through untouched. Sockets never require it, it only
//     gives peers that exchange structured values a common convention.
//
//   - Reply errors: Rep sockets put an error slot first into every reply
//     ("j:null" for success, "s:<text>" for a failure). EncodeError and
//     DecodeError translate between that slot and Go errors.
package message
