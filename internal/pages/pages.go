// Package pages wraps the OS page-mapping primitive shared by the general
// heap's arena chain and the buddy pool.
//
// It models spec's abstract map_pages(n) -> region | fail and
// unmap_pages(region) directly on top of an anonymous mmap, the same call
// shape used for buddy pools elsewhere in the wild (see
// golang.org/x/sys/unix.Mmap with MAP_PRIVATE|MAP_ANONYMOUS).
package pages

import "golang.org/x/sys/unix"

// Map requests n bytes of anonymous, read-write memory from the OS.
//
// It either returns a region of exactly n bytes or an error; there is no
// partial-mapping case to handle.
func Map(n uintptr) ([]byte, error) {
	return unix.Mmap(-1, 0, int(n), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
}

// Unmap returns a region obtained from Map back to the OS.
//
// Neither the general heap nor the buddy pool call this during ordinary
// operation: both grow monotonically for the life of the process. It exists
// so the page source exposes both halves of the abstract primitive, and so
// tests that map throwaway regions can clean up after themselves.
func Unmap(region []byte) error {
	return unix.Munmap(region)
}
