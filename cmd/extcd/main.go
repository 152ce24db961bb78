package main

import (
	"os"

	"github.com/psarna/extcd/pkg/procinfo"
	"github.com/psarna/extcd/pkg/tracer"

	"github.com/prometheus/procfs"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extcd DIR",
		Short: "Change the working directory of the parent process",
		Long: `extcd attaches to its parent process with ptrace and makes it chdir into DIR.
The parent must be waiting for extcd, which is what a shell does while
running a command in the foreground.

Example:
  extcd /tmp && /bin/pwd`,
		Args: cobra.ExactArgs(1),
		RunE: run,
	}
}

func run(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	ppid := os.Getppid()
	s := tracer.NewSession(ppid, args[0])

	if err := tracer.CheckFits(s.TargetDirectory, s.ScratchSize); err != nil {
		return err
	}

	inspector, err := procinfo.NewInspector(procfs.DefaultMountPoint)
	if err != nil {
		return err
	}
	if _, err := inspector.ResolveDir(ppid, s.TargetDirectory); err != nil {
		return err
	}

	t := tracer.NewTracer(tracer.NewPtrace(), inspector)

	return t.Run(s)
}
