package reliudp

import "github.com/pkg/errors"

// ErrChannelClosed is returned by a worker goroutine when one of its
// channels is closed out from under it. Per spec this is fatal: the
// owning worker stops, any in-flight pendings are abandoned, and
// nothing retries automatically.
var ErrChannelClosed = errors.New("reliudp: channel closed")

// wrapBindFailure annotates a socket bind error for the caller of
// StartNetwork. Bind failures are fatal to construction.
func wrapBindFailure(err error) error {
	return errors.Wrap(err, "reliudp: failed to bind socket")
}
