package cipher

import "runtime"

// Zeroize overwrites key with zero bytes in place. runtime.KeepAlive pins
// the slice's backing array live past the final write, so the compiler
// cannot elide the store as dead code the way it could a bare loop right
// before the slice goes out of scope.
func Zeroize(key []byte) {
	for i := range key {
		key[i] = 0
	}
	runtime.KeepAlive(key)
}
