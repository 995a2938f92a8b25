// Package wire implements the host/device protocol codec.
package wire

// The protocol is communicated between the host channel and the device
// firmware over a serial link whose packets are at most 64 bytes.
//
// Every envelope is a list of self-describing fields: a header byte
// (key<<3 | type) followed by a fixed width value, a length prefixed byte
// string, or a length prefixed group of nested fields. Decoders skip
// unknown keys so newer peers can add fields without breaking older ones.
//
// One envelope is carried by exactly one frame:
//
//   0xC5 | payload length | payload
//
// There is no multi-frame reassembly. An envelope which doesn't fit in a
// single packet is rejected by the encoder.
//
// Producer: host channel (requests), device dispatcher (responses)
// Consumer: device dispatcher (requests), host channel (responses)
