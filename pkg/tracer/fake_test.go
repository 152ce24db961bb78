package tracer

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

var errNoMoreStops = errors.New("fake: no more stops queued")

type fakeStop struct {
	status unix.WaitStatus
	regs   unix.PtraceRegs
}

type fakePoke struct {
	addr uintptr
	data []byte
}

// fakePtrace replays a scripted list of wait results and records every
// primitive the tracer issues.
type fakePtrace struct {
	stops []fakeStop
	regs  unix.PtraceRegs

	calls   []string
	resumed []int
	pokes   []fakePoke
	setRegs []unix.PtraceRegs

	failOn     map[string]error
	failPokeAt int
}

func newFakePtrace(stops ...fakeStop) *fakePtrace {
	return &fakePtrace{stops: stops, failPokeAt: -1}
}

func (f *fakePtrace) call(name string) error {
	f.calls = append(f.calls, name)
	return f.failOn[name]
}

func (f *fakePtrace) fail(name string, err error) {
	if f.failOn == nil {
		f.failOn = make(map[string]error)
	}
	f.failOn[name] = err
}

func (f *fakePtrace) Attach(pid int) error { return f.call("attach") }

func (f *fakePtrace) Detach(pid int) error { return f.call("detach") }

func (f *fakePtrace) SetOptions(pid int, options int) error { return f.call("setoptions") }

func (f *fakePtrace) Syscall(pid int, signal int) error {
	f.resumed = append(f.resumed, signal)
	return f.call("syscall")
}

func (f *fakePtrace) Wait(pid int) (unix.WaitStatus, error) {
	if err := f.call("wait"); err != nil {
		return 0, err
	}
	if len(f.stops) == 0 {
		return 0, errNoMoreStops
	}
	stop := f.stops[0]
	f.stops = f.stops[1:]
	f.regs = stop.regs
	return stop.status, nil
}

func (f *fakePtrace) GetRegs(pid int, regs *unix.PtraceRegs) error {
	if err := f.call("getregs"); err != nil {
		return err
	}
	*regs = f.regs
	return nil
}

func (f *fakePtrace) SetRegs(pid int, regs *unix.PtraceRegs) error {
	if err := f.call("setregs"); err != nil {
		return err
	}
	f.regs = *regs
	f.setRegs = append(f.setRegs, *regs)
	return nil
}

func (f *fakePtrace) PokeData(pid int, addr uintptr, data []byte) (int, error) {
	if err := f.call("pokedata"); err != nil {
		return 0, err
	}
	if f.failPokeAt == len(f.pokes) {
		return 0, unix.EIO
	}
	f.pokes = append(f.pokes, fakePoke{addr: addr, data: append([]byte(nil), data...)})
	return len(data), nil
}

func (f *fakePtrace) count(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakePtrace) written() []byte {
	var out []byte
	for _, p := range f.pokes {
		out = append(out, p.data...)
	}
	return out
}

func stopped(sig unix.Signal) unix.WaitStatus {
	return unix.WaitStatus(uint32(sig)<<8 | 0x7f)
}

func exited(code int) unix.WaitStatus {
	return unix.WaitStatus(uint32(code) << 8)
}

func signaled(sig unix.Signal) unix.WaitStatus {
	return unix.WaitStatus(uint32(sig))
}

func syscallRegs(nr, ret uint64) unix.PtraceRegs {
	var regs unix.PtraceRegs
	setSysno(&regs, nr)
	setRetval(&regs, ret)
	return regs
}

func syscallStop(nr, ret uint64) fakeStop {
	return fakeStop{status: stopped(unix.SIGTRAP | SIGTRAP_MASK), regs: syscallRegs(nr, ret)}
}

func signalStop(sig unix.Signal, nr uint64) fakeStop {
	return fakeStop{status: stopped(sig), regs: syscallRegs(nr, 0)}
}

type fakePicker struct {
	addr uintptr
	err  error
	asks int
}

func (p *fakePicker) PickScratch(pid int, preferred uintptr, size int) (uintptr, error) {
	p.asks++
	return p.addr, p.err
}
