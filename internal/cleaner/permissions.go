package cleaner

import (
	"fmt"
	"os"
)

// isSpecialMode reports whether mode is a device, socket or named pipe.
// Symlinks are not special: removing one only removes the link.
func isSpecialMode(mode os.FileMode) (bool, error) {
	switch {
	case mode&os.ModeCharDevice != 0:
		return true, fmt.Errorf("is a character device")
	case mode&os.ModeDevice != 0:
		return true, fmt.Errorf("is a device file")
	case mode&os.ModeSocket != 0:
		return true, fmt.Errorf("is a socket")
	case mode&os.ModeNamedPipe != 0:
		return true, fmt.Errorf("is a named pipe (FIFO)")
	}
	return false, nil
}
