package tracer

import (
	"os"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const wordSize = int(unsafe.Sizeof(uintptr(0)))

// CheckFits reports whether path plus its NUL terminator fits in a scratch
// page of the given size.
func CheckFits(path string, size int) error {
	if len(path)+1 > size {
		return errors.Wrapf(ErrPathTooLong, "%d bytes with terminator, scratch page holds %d", len(path)+1, size)
	}
	return nil
}

// WriteScratch copies path, NUL terminated and zero padded, over the whole
// scratch page at addr in the tracee, one word per poke.
func WriteScratch(pt Ptrace, pid int, addr uintptr, size int, path string) error {
	if err := CheckFits(path, size); err != nil {
		return err
	}
	if size%wordSize != 0 {
		return errors.Errorf("scratch size %d is not a multiple of the word size", size)
	}

	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return opError("mmap", os.Getpid(), err)
	}
	defer unix.Munmap(buf)

	copy(buf, path)

	for off := 0; off < size; off += wordSize {
		if _, err := pt.PokeData(pid, addr+uintptr(off), buf[off:off+wordSize]); err != nil {
			return opError("ptrace pokedata", pid, err)
		}
	}
	debugf("WriteScratch: pid=%d addr=%#x words=%d path=%q", pid, addr, size/wordSize, path)

	return nil
}
