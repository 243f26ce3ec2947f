package events

import "unsafe"

// InputID matches the kernel's struct input_id.
type InputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// AbsInfo matches the kernel's struct input_absinfo.
type AbsInfo struct {
	Value      int32
	Minimum    int32
	Maximum    int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// ioctl request encoding (Linux _IOC macro)
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, nr, size uintptr) uintptr {
	return (dir << iocDirShift) | ('E' << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift)
}

// EVIOCGID returns the request reading a device's InputID.
func EVIOCGID() uintptr {
	return ioc(iocRead, 0x02, unsafe.Sizeof(InputID{}))
}

// EVIOCGNAME returns the request reading a device name into a buffer of size n.
func EVIOCGNAME(n int) uintptr {
	return ioc(iocRead, 0x06, uintptr(n))
}

// EVIOCGUNIQ returns the request reading a device's unique identifier.
func EVIOCGUNIQ(n int) uintptr {
	return ioc(iocRead, 0x08, uintptr(n))
}

// EVIOCGBIT returns the request reading the capability bitmap of an event type.
func EVIOCGBIT(ev EventType, n int) uintptr {
	return ioc(iocRead, 0x20+uintptr(ev), uintptr(n))
}

// EVIOCGABS returns the request reading the AbsInfo of an axis.
func EVIOCGABS(axis uint16) uintptr {
	return ioc(iocRead, 0x40+uintptr(axis), unsafe.Sizeof(AbsInfo{}))
}

// EVIOCSFF returns the request uploading an FFEffect.
func EVIOCSFF() uintptr {
	return ioc(iocWrite, 0x80, unsafe.Sizeof(FFEffect{}))
}

// EVIOCRMFF returns the request erasing an uploaded effect.
func EVIOCRMFF() uintptr {
	return ioc(iocWrite, 0x81, unsafe.Sizeof(int32(0)))
}

// TestBit reports whether bit n is set in a kernel capability bitmap.
func TestBit(bits []byte, n int) bool {
	if n/8 >= len(bits) {
		return false
	}
	return bits[n/8]&(1<<(uint(n)%8)) != 0
}
