package tracer

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"
)

const (
	DefaultScratchAddress = 0x10000

	// StepsTotal is the number of traps consumed by a complete injection:
	// mmap entry, mmap exit, chdir entry, chdir exit.
	StepsTotal = 4
)

// Phase is the side of a syscall boundary a syscall-stop reports.
type Phase int

const (
	PhaseEntry Phase = iota
	PhaseExit
)

func (p Phase) Next() Phase {
	if p == PhaseEntry {
		return PhaseExit
	}
	return PhaseEntry
}

func (p Phase) String() string {
	if p == PhaseEntry {
		return "entry"
	}
	return "exit"
}

type Trap struct {
	Step    int
	Phase   Phase
	Syscall uint64
	Action  string
}

type Session struct {
	TargetPid       int
	StepCount       int
	TargetDirectory string
	ScratchAddress  uintptr
	ScratchSize     int
	Phase           Phase

	// Real chdir result before it was forged to 0.
	ChdirResult uint64

	Traps []Trap
}

func NewSession(pid int, dir string) *Session {
	return &Session{
		TargetPid:       pid,
		TargetDirectory: dir,
		ScratchAddress:  DefaultScratchAddress,
		ScratchSize:     unix.Getpagesize(),
		Phase:           PhaseEntry,
	}
}

func (s *Session) Done() bool {
	return s.StepCount >= StepsTotal
}

func (s *Session) record(sysno uint64, action string) {
	s.Traps = append(s.Traps, Trap{
		Step:    s.StepCount,
		Phase:   s.Phase,
		Syscall: sysno,
		Action:  action,
	})
	logInject(s, sysno, action)
}

type trapReport struct {
	Step    int    `yaml:"step"`
	Phase   string `yaml:"phase"`
	Syscall string `yaml:"syscall"`
	Action  string `yaml:"action"`
}

type sessionReport struct {
	Pid         int          `yaml:"pid"`
	Directory   string       `yaml:"directory"`
	Scratch     string       `yaml:"scratch"`
	ScratchSize int          `yaml:"scratch_size"`
	Steps       int          `yaml:"steps"`
	Complete    bool         `yaml:"complete"`
	ChdirError  string       `yaml:"chdir_error,omitempty"`
	Traps       []trapReport `yaml:"traps"`
}

// Report writes a YAML summary of the session.
func (s *Session) Report(w io.Writer) error {
	r := sessionReport{
		Pid:         s.TargetPid,
		Directory:   s.TargetDirectory,
		Scratch:     fmt.Sprintf("%#x", s.ScratchAddress),
		ScratchSize: s.ScratchSize,
		Steps:       s.StepCount,
		Complete:    s.Done(),
		Traps:       make([]trapReport, 0, len(s.Traps)),
	}
	if s.Done() {
		if err := resultErr(s.ChdirResult); err != nil {
			r.ChdirError = err.Error()
		}
	}
	for _, t := range s.Traps {
		r.Traps = append(r.Traps, trapReport{
			Step:    t.Step,
			Phase:   t.Phase.String(),
			Syscall: syscallName(t.Syscall),
			Action:  t.Action,
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, "encode session report")
	}
	return enc.Close()
}
