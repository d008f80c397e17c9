package snapshot

import "errors"

// ByteReader reads target process memory at addr into buf, returning
// the number of bytes read. It is the only way the engine touches the
// target; OS attachment lives entirely behind this callback.
//
// Returning n < len(buf) with a nil error is a short read: the group
// keeps the partial bytes but becomes ineligible for relative
// comparisons until the next complete read. ErrAddressNotMapped is a
// tolerated full miss. Any other error aborts the scan.
type ByteReader func(addr uint64, buf []byte) (int, error)

// ErrAddressNotMapped indicates the target range is no longer mapped
// in the process address space
var ErrAddressNotMapped = errors.New("address not mapped")

// ErrReadFailed indicates the byte reader raised an unrecoverable
// error, not a short read
var ErrReadFailed = errors.New("memory read failed")
