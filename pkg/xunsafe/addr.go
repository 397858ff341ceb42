//go:build go1.20

package xunsafe

import (
	"fmt"
	"unsafe"

	"github.com/flier/allocgo/pkg/xunsafe/layout"
)

// Addr is a typed address: a uintptr that remembers what it points to, so
// that arithmetic on it can be scaled by sizeof(T) without an intervening
// cast through unsafe.Pointer.
//
// Unlike a *T, an Addr[T] may be zero, compared, and stored in a slot that
// also needs to represent "no address" - exactly the shape needed by the
// free-list/tree intrusive fields and the page-source bump pointers.
type Addr[T any] uintptr

// AddrOf returns the address of p.
func AddrOf[T any](p *T) Addr[T] {
	return Addr[T](unsafe.Pointer(p))
}

// EndOf returns the address one past the last element of s.
func EndOf[S ~[]E, E any](s S) Addr[E] {
	return AddrOf(unsafe.SliceData(s)).Add(len(s))
}

// AssertValid converts this address back into a pointer.
//
// The caller is responsible for the address actually pointing at a live T;
// this performs no validation beyond the unsafe.Pointer conversion itself.
func (a Addr[T]) AssertValid() *T {
	return (*T)(unsafe.Pointer(uintptr(a)))
}

// Add adds n elements of size sizeof(T) to a.
func (a Addr[T]) Add(n int) Addr[T] {
	return a + Addr[T](n*layout.Size[T]())
}

// ByteAdd adds n raw bytes to a, without scaling by sizeof(T).
func (a Addr[T]) ByteAdd(n int) Addr[T] {
	return a + Addr[T](n)
}

// Sub returns the number of T-sized elements between a and b.
func (a Addr[T]) Sub(b Addr[T]) int {
	return int(a-b) / layout.Size[T]()
}

// Padding returns the number of bytes needed to round a up to align.
func (a Addr[T]) Padding(align int) int {
	return layout.Padding(int(a), align)
}

// RoundUpTo rounds a up to the given alignment.
func (a Addr[T]) RoundUpTo(align int) Addr[T] {
	return Addr[T](layout.RoundUp(int(a), align))
}

// SignBit reports whether the high bit of a is set.
func (a Addr[T]) SignBit() bool {
	return a>>(unsafe.Sizeof(a)*8-1) != 0
}

// SignBitMask returns all-ones if SignBit is set, all-zeros otherwise.
func (a Addr[T]) SignBitMask() Addr[T] {
	return Addr[T](int(a) >> (unsafe.Sizeof(a)*8 - 1))
}

// ClearSignBit returns a with its high bit cleared.
func (a Addr[T]) ClearSignBit() Addr[T] {
	return a &^ (Addr[T](1) << (unsafe.Sizeof(a)*8 - 1))
}

// String formats a as a hex address, e.g. for use in debug logs.
func (a Addr[T]) String() string {
	return fmt.Sprintf("%#x", uintptr(a))
}

// Format implements fmt.Formatter so that %x renders without the 0x prefix.
func (a Addr[T]) Format(s fmt.State, verb rune) {
	switch verb {
	case 'x':
		fmt.Fprintf(s, "%x", uintptr(a))
	case 'X':
		fmt.Fprintf(s, "%X", uintptr(a))
	default:
		fmt.Fprint(s, a.String())
	}
}
