// Package msgs defines the messages exchanged between the daemon and its
// clients.
//
// Every packet is a Typed envelope: a type id, a sequence and a protobuf
// encoded message. Device commands use GroupDevice ids whose low bits are the
// wire tag of the command. Sequence 0 asks the daemon not to reply, otherwise
// the daemon answers with a Result or a CommandErr using the same sequence.
package msgs
