// Package toast queues toast messages and presents them one at a time.
//
// A Center owns a FIFO of Operations and a single worker goroutine. The worker
// is held until the host signals readiness through Activate, and from then on
// runs each Operation to completion before admitting the next one. A Toast is
// the Operation that renders a message through a surface.Presenter; building a
// Toast submits it to its Center.
//
// Cancellation is cooperative. A Toast checks for it before its delay, after
// its delay and by watching its rendered handle, which CancelCurrent and
// Cancel tear down immediately.
package toast
