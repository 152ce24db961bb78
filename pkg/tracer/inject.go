package tracer

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Injector rewrites the tracee's syscalls so that it runs
// mmap(scratch) and chdir(scratch) in place of its own wait calls.
type Injector struct {
	pt Ptrace
}

func NewInjector(pt Ptrace) *Injector {
	return &Injector{pt: pt}
}

func isWait(nr uint64) bool {
	return nr == SYS_WAIT4 || nr == SYS_WAITID
}

// HandleTrap inspects the syscall-stop the session's tracee is sitting in and
// returns 1 if it was the stop expected for s.StepCount and s.Phase, 0 if it
// was left alone. Registers are only written on a match.
func (in *Injector) HandleTrap(s *Session) (int, error) {
	var regs unix.PtraceRegs
	if err := in.pt.GetRegs(s.TargetPid, &regs); err != nil {
		return 0, opError("ptrace getregs", s.TargetPid, err)
	}

	nr := sysno(&regs)
	switch {
	case s.StepCount == 0 && s.Phase == PhaseEntry && isWait(nr):
		return in.forceMmap(s, &regs)
	case s.StepCount == 1 && s.Phase == PhaseExit && nr == SYS_MMAP:
		return in.fillScratch(s, &regs)
	case s.StepCount == 2 && s.Phase == PhaseEntry && isWait(nr):
		return in.forceChdir(s, &regs)
	case s.StepCount == 3 && s.Phase == PhaseExit && nr == SYS_CHDIR:
		return in.forgeChdir(s, &regs)
	}

	debugf("trap ignored: step=%d phase=%s syscall=%s", s.StepCount, s.Phase, syscallName(nr))
	return 0, nil
}

func (in *Injector) setRegs(s *Session, regs *unix.PtraceRegs) error {
	if err := in.pt.SetRegs(s.TargetPid, regs); err != nil {
		return opError("ptrace setregs", s.TargetPid, err)
	}
	return nil
}

func (in *Injector) forceMmap(s *Session, regs *unix.PtraceRegs) (int, error) {
	nr := sysno(regs)

	setSysno(regs, SYS_MMAP)
	setArg0(regs, uint64(s.ScratchAddress))
	setArg1(regs, uint64(s.ScratchSize))
	setArg2(regs, unix.PROT_READ|unix.PROT_WRITE)
	setArg3(regs, unix.MAP_ANONYMOUS|unix.MAP_FIXED|unix.MAP_PRIVATE)
	setArg4(regs, ^uint64(0))
	setArg5(regs, 0)

	if err := in.setRegs(s, regs); err != nil {
		return 0, err
	}
	s.record(nr, "rewrite to mmap")
	return 1, nil
}

func (in *Injector) fillScratch(s *Session, regs *unix.PtraceRegs) (int, error) {
	got := retval(regs)
	if err := resultErr(got); err != nil {
		return 0, errors.Wrapf(ErrScratchMismatch, "mmap at %#x: %v", s.ScratchAddress, err)
	}
	if uintptr(got) != s.ScratchAddress {
		return 0, errors.Wrapf(ErrScratchMismatch, "mmap returned %#x, want %#x", got, s.ScratchAddress)
	}

	if err := WriteScratch(in.pt, s.TargetPid, s.ScratchAddress, s.ScratchSize, s.TargetDirectory); err != nil {
		return 0, err
	}

	setRetval(regs, uint64(s.ScratchAddress))
	if err := in.setRegs(s, regs); err != nil {
		return 0, err
	}
	s.record(SYS_MMAP, "write path")
	return 1, nil
}

func (in *Injector) forceChdir(s *Session, regs *unix.PtraceRegs) (int, error) {
	nr := sysno(regs)

	setSysno(regs, SYS_CHDIR)
	setArg0(regs, uint64(s.ScratchAddress))

	if err := in.setRegs(s, regs); err != nil {
		return 0, err
	}
	s.record(nr, "rewrite to chdir")
	return 1, nil
}

func (in *Injector) forgeChdir(s *Session, regs *unix.PtraceRegs) (int, error) {
	s.ChdirResult = retval(regs)
	if err := resultErr(s.ChdirResult); err != nil {
		warnf("chdir %q in pid %d failed: %v", s.TargetDirectory, s.TargetPid, err)
	}

	setRetval(regs, 0)
	if err := in.setRegs(s, regs); err != nil {
		return 0, err
	}
	s.record(SYS_CHDIR, "forge result")
	return 1, nil
}
