package tracer

import "golang.org/x/sys/unix"

const (
	SYS_MMAP   = 9
	SYS_CHDIR  = 80
	SYS_WAIT4  = 61
	SYS_WAITID = 247
)

func sysno(regs *unix.PtraceRegs) uint64        { return regs.Orig_rax }
func setSysno(regs *unix.PtraceRegs, v uint64)  { regs.Orig_rax = v }
func retval(regs *unix.PtraceRegs) uint64       { return regs.Rax }
func setRetval(regs *unix.PtraceRegs, v uint64) { regs.Rax = v }
func arg0(regs *unix.PtraceRegs) uint64         { return regs.Rdi }
func setArg0(regs *unix.PtraceRegs, v uint64)   { regs.Rdi = v }
func arg1(regs *unix.PtraceRegs) uint64         { return regs.Rsi }
func setArg1(regs *unix.PtraceRegs, v uint64)   { regs.Rsi = v }
func arg2(regs *unix.PtraceRegs) uint64         { return regs.Rdx }
func setArg2(regs *unix.PtraceRegs, v uint64)   { regs.Rdx = v }
func arg3(regs *unix.PtraceRegs) uint64         { return regs.R10 }
func setArg3(regs *unix.PtraceRegs, v uint64)   { regs.R10 = v }
func arg4(regs *unix.PtraceRegs) uint64         { return regs.R8 }
func setArg4(regs *unix.PtraceRegs, v uint64)   { regs.R8 = v }
func arg5(regs *unix.PtraceRegs) uint64         { return regs.R9 }
func setArg5(regs *unix.PtraceRegs, v uint64)   { regs.R9 = v }

func getRegs(pid int, regs *unix.PtraceRegs) error { return unix.PtraceGetRegs(pid, regs) }
func setRegs(pid int, regs *unix.PtraceRegs) error { return unix.PtraceSetRegs(pid, regs) }
