package printer

import "errors"

var (
	// ErrDisconnected is returned by any operation against a printer
	// that isn't connected, or whose background I/O task has ended.
	// All handles (Printer, Socket, LineStream) surface this uniformly
	// once the underlying transport is gone.
	ErrDisconnected = errors.New("printer: disconnected")

	// ErrQueueFull is returned by the non-blocking send paths
	// (SendUnsequenced, SendRaw) when the outbound queue has no free
	// slot to reserve. It is not fatal; the caller may retry.
	ErrQueueFull = errors.New("printer: outbound queue full")
)
