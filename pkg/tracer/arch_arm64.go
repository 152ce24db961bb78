package tracer

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	SYS_MMAP   = 222
	SYS_CHDIR  = 49
	SYS_WAIT4  = 260
	SYS_WAITID = 95
)

// see include/uapi/linux/elf.h
const (
	ntPRStatus      = 1
	ntArmSystemCall = 0x404
)

func sysno(regs *unix.PtraceRegs) uint64        { return regs.Regs[8] }
func setSysno(regs *unix.PtraceRegs, v uint64)  { regs.Regs[8] = v }
func retval(regs *unix.PtraceRegs) uint64       { return regs.Regs[0] }
func setRetval(regs *unix.PtraceRegs, v uint64) { regs.Regs[0] = v }
func arg0(regs *unix.PtraceRegs) uint64         { return regs.Regs[0] }
func setArg0(regs *unix.PtraceRegs, v uint64)   { regs.Regs[0] = v }
func arg1(regs *unix.PtraceRegs) uint64         { return regs.Regs[1] }
func setArg1(regs *unix.PtraceRegs, v uint64)   { regs.Regs[1] = v }
func arg2(regs *unix.PtraceRegs) uint64         { return regs.Regs[2] }
func setArg2(regs *unix.PtraceRegs, v uint64)   { regs.Regs[2] = v }
func arg3(regs *unix.PtraceRegs) uint64         { return regs.Regs[3] }
func setArg3(regs *unix.PtraceRegs, v uint64)   { regs.Regs[3] = v }
func arg4(regs *unix.PtraceRegs) uint64         { return regs.Regs[4] }
func setArg4(regs *unix.PtraceRegs, v uint64)   { regs.Regs[4] = v }
func arg5(regs *unix.PtraceRegs) uint64         { return regs.Regs[5] }
func setArg5(regs *unix.PtraceRegs, v uint64)   { regs.Regs[5] = v }

func getRegs(pid int, regs *unix.PtraceRegs) error {
	return unix.PtraceGetRegSetArm64(pid, ntPRStatus, (*unix.PtraceRegsArm64)(regs))
}

// The kernel takes the syscall number from its own copy, not from x8, so a
// rewritten number has to go through NT_ARM_SYSTEM_CALL as well.
func setRegs(pid int, regs *unix.PtraceRegs) error {
	if err := unix.PtraceSetRegSetArm64(pid, ntPRStatus, (*unix.PtraceRegsArm64)(regs)); err != nil {
		return err
	}
	nr := int32(regs.Regs[8])
	iov := unix.Iovec{Base: (*byte)(unsafe.Pointer(&nr))}
	iov.SetLen(int(unsafe.Sizeof(nr)))
	_, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_SETREGSET, uintptr(pid), ntArmSystemCall, uintptr(unsafe.Pointer(&iov)), 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}
