// Package ipc moves fixed-size messages between processes through a shared
// memory ring. The ring's header word is a process-shared futex used as a
// generation counter: writers bump it and wake, readers wait on the value
// they last consumed.
package ipc

import "context"

// Writer is an interface for sending data across processes
type Writer interface {
	Write(data []byte) error
	Cleanup()
}

// ReaderMessage is a message returned by a Reader.
type ReaderMessage interface {
	Data() []byte
}

// Reader implements a blocking interface for reading from an IPC.
// This is not thread safe.
type Reader interface {
	// Read blocks until a new message is available or ctx is done.
	Read(ctx context.Context) (ReaderMessage, error)
	Cleanup()
}
