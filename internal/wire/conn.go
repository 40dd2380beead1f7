package wire

import (
	"errors"
	"net"
)

// IsTimeout reports whether err is a network deadline expiry. Session workers
// poll with short read deadlines and treat these as "no data yet".
func IsTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
