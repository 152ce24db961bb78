// Package procinfo reads what the tracer needs to know about the tracee from
// procfs: its working directory and its memory map.
package procinfo

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/prometheus/procfs"
)

var (
	ErrNoFreeRegion = errors.New("no free scratch region")
	ErrNotDirectory = errors.New("not a directory")
)

type Inspector struct {
	fs procfs.FS
}

func NewInspector(mountPoint string) (*Inspector, error) {
	fs, err := procfs.NewFS(mountPoint)
	if err != nil {
		return nil, errors.Wrapf(err, "open procfs at %s", mountPoint)
	}
	return &Inspector{fs: fs}, nil
}

// ResolveDir resolves dir against the working directory of pid and checks
// that the result is a directory.
func (in *Inspector) ResolveDir(pid int, dir string) (string, error) {
	path := filepath.Clean(dir)
	if !filepath.IsAbs(path) {
		proc, err := in.fs.Proc(pid)
		if err != nil {
			return "", errors.Wrapf(err, "pid %d", pid)
		}
		cwd, err := proc.Cwd()
		if err != nil {
			return "", errors.Wrapf(err, "cwd of pid %d", pid)
		}
		path = filepath.Join(cwd, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrap(err, dir)
	}
	if !info.IsDir() {
		return "", errors.Wrap(ErrNotDirectory, dir)
	}
	return path, nil
}

// PickScratch returns the lowest size-aligned address at or above preferred
// whose [addr, addr+size) range is not mapped in pid.
func (in *Inspector) PickScratch(pid int, preferred uintptr, size int) (uintptr, error) {
	proc, err := in.fs.Proc(pid)
	if err != nil {
		return 0, errors.Wrapf(err, "pid %d", pid)
	}
	maps, err := proc.ProcMaps()
	if err != nil {
		return 0, errors.Wrapf(err, "memory map of pid %d", pid)
	}
	return firstFit(maps, preferred, uintptr(size))
}

func firstFit(maps []*procfs.ProcMap, addr, size uintptr) (uintptr, error) {
	if size == 0 {
		return 0, errors.New("zero scratch size")
	}
	sort.Slice(maps, func(i, j int) bool {
		return maps[i].StartAddr < maps[j].StartAddr
	})

	addr = alignUp(addr, size)
	for _, m := range maps {
		if m.EndAddr <= addr {
			continue
		}
		if addr+size <= m.StartAddr {
			return addr, nil
		}
		next := alignUp(m.EndAddr, size)
		if next < m.EndAddr {
			return 0, ErrNoFreeRegion
		}
		addr = next
	}
	if addr+size < addr {
		return 0, ErrNoFreeRegion
	}
	return addr, nil
}

func alignUp(addr, size uintptr) uintptr {
	return (addr + size - 1) / size * size
}
