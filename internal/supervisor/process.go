// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/google/uuid"
	"github.com/mitchellh/go-ps"
	"github.com/wingedpig/wayout/internal/catalog"
)

// outputDrainTimeout bounds how long reaping waits for output pipes held
// open by grandchildren.
const outputDrainTimeout = 2 * time.Second

// ExitStatus describes how a process ended.
type ExitStatus struct {
	Code   int    `json:"exitCode"`
	Signal string `json:"signal,omitempty"`
}

// process is one spawned application. The supervisor map owns it until a
// stop or the exit observer removes it.
type process struct {
	appID      string
	label      string
	executable string
	pid        int
	startedAt  time.Time

	cmd    *exec.Cmd
	ptmx   *os.File
	stdout *lineWriter
	stderr *lineWriter
	logs   *LogBuffer

	// ptyDone is closed when the pty reader goroutine returns.
	ptyDone chan struct{}

	mu        sync.Mutex
	stopping  bool
	killTimer *time.Timer
	exit      ExitStatus

	done     chan struct{}
	doneOnce sync.Once
}

type outputFunc func(p *process, stream, line string)

// spawn starts desc with env. Nothing is registered on failure.
func spawn(desc catalog.Descriptor, env []string, bufSize int, onOutput outputFunc) (*process, error) {
	p := &process{
		appID:      desc.ID,
		label:      "app_" + uuid.NewString(),
		executable: desc.Executable,
		logs:       NewLogBuffer(bufSize),
		done:       make(chan struct{}),
	}
	p.stdout = newLineWriter(func(line string) { onOutput(p, "stdout", line) })
	p.stderr = newLineWriter(func(line string) { onOutput(p, "stderr", line) })

	cmd := exec.Command(desc.Executable, desc.Args...)
	cmd.Dir = desc.WorkDir
	cmd.Env = env

	if desc.PTY {
		// pty.Start puts the child in its own session, so its pid is also its
		// process group id.
		ptmx, err := pty.Start(cmd)
		if err != nil {
			return nil, err
		}
		p.ptmx = ptmx
		p.ptyDone = make(chan struct{})
		go p.readPTY()
	} else {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		cmd.Stdout = p.stdout
		cmd.Stderr = p.stderr
		cmd.WaitDelay = outputDrainTimeout
		if err := cmd.Start(); err != nil {
			return nil, err
		}
	}

	p.cmd = cmd
	p.pid = cmd.Process.Pid
	p.startedAt = time.Now()
	return p, nil
}

func (p *process) readPTY() {
	defer close(p.ptyDone)
	br := bufio.NewReader(p.ptmx)
	for {
		chunk, err := br.ReadBytes('\n')
		if len(chunk) > 0 {
			p.stdout.Write(chunk)
		}
		if err != nil {
			// EIO once the slave side closes is the normal end of a pty.
			return
		}
	}
}

// wait blocks until the process is reaped and records its exit status.
func (p *process) wait() ExitStatus {
	err := p.cmd.Wait()

	if p.ptmx != nil {
		select {
		case <-p.ptyDone:
		case <-time.After(outputDrainTimeout):
		}
		p.ptmx.Close()
	}
	p.stdout.Flush()
	p.stderr.Flush()

	status := exitStatusOf(p.cmd.ProcessState, err)

	p.doneOnce.Do(func() {
		p.mu.Lock()
		p.exit = status
		if p.killTimer != nil {
			p.killTimer.Stop()
			p.killTimer = nil
		}
		p.mu.Unlock()
		close(p.done)
	})
	return status
}

func exitStatusOf(state *os.ProcessState, err error) ExitStatus {
	if state == nil {
		return ExitStatus{Code: -1}
	}
	status := ExitStatus{Code: state.ExitCode()}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		status.Signal = ws.Signal().String()
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) && status.Code == 0 {
		status.Code = -1
	}
	return status
}

// signal delivers sig to the process group. A group that is already gone
// is not an error.
func (p *process) signal(sig syscall.Signal) error {
	if err := syscall.Kill(-p.pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("signal %s to pid %d: %w", sig, p.pid, err)
	}
	return nil
}

// scheduleKill arms the escalation timer. fn runs only if the process has
// not exited by then.
func (p *process) scheduleKill(after time.Duration, fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.exited() {
		return
	}
	if p.killTimer != nil {
		p.killTimer.Stop()
	}
	p.killTimer = time.AfterFunc(after, func() {
		if p.exited() || !p.alive() {
			return
		}
		fn()
	})
}

func (p *process) markStopping() {
	p.mu.Lock()
	p.stopping = true
	p.mu.Unlock()
}

func (p *process) stopRequested() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopping
}

func (p *process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// alive checks the OS process table for the pid.
func (p *process) alive() bool {
	proc, err := ps.FindProcess(p.pid)
	if err != nil {
		// Can't tell; assume alive so escalation still happens.
		return true
	}
	return proc != nil
}

func (p *process) record() Record {
	return Record{
		Label:     p.label,
		AppID:     p.appID,
		PID:       p.pid,
		StartedAt: p.startedAt,
	}
}

var _ io.Writer = (*lineWriter)(nil)
