package core

// Utoa converts an unsigned integer to a string without using fmt.
// Keeps strconv out of firmware images.
func Utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte // Max digits of a uint32
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}

	return string(buf[pos:])
}
