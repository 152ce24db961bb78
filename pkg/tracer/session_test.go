package tracer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"
)

func TestNewSession(t *testing.T) {
	s := NewSession(testPid, "/tmp")

	assert.Equal(t, testPid, s.TargetPid)
	assert.Equal(t, "/tmp", s.TargetDirectory)
	assert.Equal(t, 0, s.StepCount)
	assert.Equal(t, PhaseEntry, s.Phase)
	assert.Equal(t, uintptr(0x10000), s.ScratchAddress)
	assert.Equal(t, unix.Getpagesize(), s.ScratchSize)
	assert.False(t, s.Done())
}

func TestPhase(t *testing.T) {
	assert.Equal(t, PhaseExit, PhaseEntry.Next())
	assert.Equal(t, PhaseEntry, PhaseExit.Next())
	assert.Equal(t, "entry", PhaseEntry.String())
	assert.Equal(t, "exit", PhaseExit.String())
}

func TestSessionReport(t *testing.T) {
	f := newFakePtrace(
		attachStop(),
		syscallStop(SYS_WAIT4, enosys),
		syscallStop(SYS_MMAP, DefaultScratchAddress),
		syscallStop(SYS_WAIT4, enosys),
		syscallStop(SYS_CHDIR, negErrno(unix.ENOENT)),
	)
	s := NewSession(testPid, "/missing")
	require.NoError(t, NewTracer(f, nil).Run(s))

	var buf bytes.Buffer
	require.NoError(t, s.Report(&buf))

	var got struct {
		Pid        int    `yaml:"pid"`
		Directory  string `yaml:"directory"`
		Scratch    string `yaml:"scratch"`
		Steps      int    `yaml:"steps"`
		Complete   bool   `yaml:"complete"`
		ChdirError string `yaml:"chdir_error"`
		Traps      []struct {
			Step    int    `yaml:"step"`
			Phase   string `yaml:"phase"`
			Syscall string `yaml:"syscall"`
		} `yaml:"traps"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, testPid, got.Pid)
	assert.Equal(t, "/missing", got.Directory)
	assert.Equal(t, "0x10000", got.Scratch)
	assert.Equal(t, 4, got.Steps)
	assert.True(t, got.Complete)
	assert.Equal(t, unix.ENOENT.Error(), got.ChdirError)
	require.Len(t, got.Traps, 4)
	assert.Equal(t, "wait4", got.Traps[0].Syscall)
	assert.Equal(t, "entry", got.Traps[0].Phase)
	assert.Equal(t, "mmap", got.Traps[1].Syscall)
	assert.Equal(t, "exit", got.Traps[1].Phase)
	assert.Equal(t, 3, got.Traps[3].Step)
	assert.Equal(t, "chdir", got.Traps[3].Syscall)
}

func TestSessionReportIncomplete(t *testing.T) {
	s := NewSession(testPid, "/tmp")
	s.StepCount = 2

	var buf bytes.Buffer
	require.NoError(t, s.Report(&buf))
	assert.Contains(t, buf.String(), "complete: false")
	assert.NotContains(t, buf.String(), "chdir_error")
	assert.Contains(t, buf.String(), "traps: []")
}
