package tracer

import (
	"golang.org/x/sys/unix"
)

// Ptrace is the set of tracing primitives the tracer needs from the kernel.
type Ptrace interface {
	Attach(pid int) error
	Detach(pid int) error
	SetOptions(pid int, options int) error
	Syscall(pid int, signal int) error
	Wait(pid int) (unix.WaitStatus, error)
	GetRegs(pid int, regs *unix.PtraceRegs) error
	SetRegs(pid int, regs *unix.PtraceRegs) error
	PokeData(pid int, addr uintptr, data []byte) (int, error)
}

type kernelPtrace struct{}

func NewPtrace() Ptrace {
	return kernelPtrace{}
}

func (kernelPtrace) Attach(pid int) error { return unix.PtraceAttach(pid) }

func (kernelPtrace) Detach(pid int) error { return unix.PtraceDetach(pid) }

func (kernelPtrace) SetOptions(pid int, options int) error {
	return unix.PtraceSetOptions(pid, options)
}

func (kernelPtrace) Syscall(pid int, signal int) error { return unix.PtraceSyscall(pid, signal) }

func (kernelPtrace) Wait(pid int) (unix.WaitStatus, error) {
	for {
		var ws unix.WaitStatus
		wpid, err := unix.Wait4(pid, &ws, unix.WALL, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		if wpid != pid {
			continue
		}
		return ws, nil
	}
}

func (kernelPtrace) GetRegs(pid int, regs *unix.PtraceRegs) error { return getRegs(pid, regs) }

func (kernelPtrace) SetRegs(pid int, regs *unix.PtraceRegs) error { return setRegs(pid, regs) }

func (kernelPtrace) PokeData(pid int, addr uintptr, data []byte) (int, error) {
	return unix.PtracePokeData(pid, addr, data)
}
