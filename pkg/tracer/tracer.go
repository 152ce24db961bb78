package tracer

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Syscall-stops report SIGTRAP|0x80 once PTRACE_O_TRACESYSGOOD is set.
const SIGTRAP_MASK = 0x80

// ScratchPicker chooses a free page in the tracee for the path string.
type ScratchPicker interface {
	PickScratch(pid int, preferred uintptr, size int) (uintptr, error)
}

type Tracer struct {
	pt       Ptrace
	injector *Injector
	picker   ScratchPicker
}

// NewTracer returns a tracer driving pt. picker may be nil, in which case the
// session's scratch address is used as is.
func NewTracer(pt Ptrace, picker ScratchPicker) *Tracer {
	return &Tracer{
		pt:       pt,
		injector: NewInjector(pt),
		picker:   picker,
	}
}

// Run attaches to the session's tracee and drives it through the injected
// mmap and chdir before detaching.
func (t *Tracer) Run(s *Session) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if level >= logDebug {
		defer func() {
			if err := s.Report(os.Stderr); err != nil {
				debugf("session report: %v", err)
			}
		}()
	}

	if err := CheckFits(s.TargetDirectory, s.ScratchSize); err != nil {
		return err
	}

	if err := t.Attach(s); err != nil {
		return err
	}

	return t.RunLoop(s)
}

// Attach starts tracing the tracee and consumes its attach stop. The tracee
// must be blocked in a wait call at that point.
func (t *Tracer) Attach(s *Session) error {
	pid := s.TargetPid

	if err := t.pt.Attach(pid); err != nil {
		return opError("ptrace attach", pid, err)
	}

	ws, err := t.pt.Wait(pid)
	if err != nil {
		return opError("wait4", pid, err)
	}
	if err := checkAlive(ws); err != nil {
		return err
	}
	if !ws.Stopped() {
		return errors.Errorf("pid %d: unexpected wait status %#x after attach", pid, uint32(ws))
	}

	if err := t.pt.SetOptions(pid, unix.PTRACE_O_TRACESYSGOOD); err != nil {
		return opError("ptrace setoptions", pid, err)
	}

	var regs unix.PtraceRegs
	if err := t.pt.GetRegs(pid, &regs); err != nil {
		return opError("ptrace getregs", pid, err)
	}
	if nr := sysno(&regs); !isWait(nr) {
		return t.abort(s, errors.Wrapf(ErrParentNotWaiting, "pid %d is in %s", pid, syscallName(nr)))
	}

	if t.picker != nil {
		addr, err := t.picker.PickScratch(pid, s.ScratchAddress, s.ScratchSize)
		if err != nil {
			return t.abort(s, err)
		}
		if addr != s.ScratchAddress {
			debugf("scratch %#x is taken in pid %d, using %#x", s.ScratchAddress, pid, addr)
		}
		s.ScratchAddress = addr
	}

	debugf("attached: pid=%d scratch=%#x size=%d", pid, s.ScratchAddress, s.ScratchSize)

	if err := t.pt.Syscall(pid, resumeSignal(ws.StopSignal())); err != nil {
		return opError("ptrace syscall", pid, err)
	}
	return nil
}

// RunLoop resumes the tracee from syscall boundary to syscall boundary until
// the injector has consumed all steps or the tracee goes away.
func (t *Tracer) RunLoop(s *Session) error {
	pid := s.TargetPid

	for {
		ws, err := t.pt.Wait(pid)
		if err != nil {
			return opError("wait4", pid, err)
		}
		if err := checkAlive(ws); err != nil {
			return err
		}
		if !ws.Stopped() {
			continue
		}

		sig := ws.StopSignal()
		if sig == unix.SIGTRAP|SIGTRAP_MASK {
			n, err := t.injector.HandleTrap(s)
			if err != nil {
				return err
			}
			s.StepCount += n
			s.Phase = s.Phase.Next()
		}

		if s.Done() {
			return t.Detach(s)
		}

		if err := t.pt.Syscall(pid, resumeSignal(sig)); err != nil {
			return opError("ptrace syscall", pid, err)
		}
	}
}

func (t *Tracer) Detach(s *Session) error {
	if err := t.pt.Detach(s.TargetPid); err != nil {
		return opError("ptrace detach", s.TargetPid, err)
	}
	debugf("detached: pid=%d steps=%d", s.TargetPid, s.StepCount)
	return nil
}

// abort detaches after a failed precondition; the precondition error wins.
func (t *Tracer) abort(s *Session, cause error) error {
	if err := t.pt.Detach(s.TargetPid); err != nil {
		debugf("detach after %v: %v", cause, err)
	}
	return cause
}

func checkAlive(ws unix.WaitStatus) error {
	if ws.Exited() {
		return errors.Wrapf(ErrParentExited, "exit status %d", ws.ExitStatus())
	}
	if ws.Signaled() {
		return errors.Wrapf(ErrParentSignaled, "%v", ws.Signal())
	}
	return nil
}

// Syscall-stops, the attach SIGSTOP and stray SIGTRAPs are swallowed; any
// other signal is handed back to the tracee.
func resumeSignal(sig unix.Signal) int {
	switch sig {
	case unix.SIGTRAP | SIGTRAP_MASK, unix.SIGTRAP, unix.SIGSTOP:
		return 0
	default:
		return int(sig)
	}
}
