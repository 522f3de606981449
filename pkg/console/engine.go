//go:build !windows
// +build !windows

package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"unsafe"

	"github.com/creack/pty"
	"github.com/gliderlabs/ssh"
)

func setWinsize(f *os.File, w, h int) {
	syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), uintptr(syscall.TIOCSWINSZ),
		uintptr(unsafe.Pointer(&struct{ h, w, x, y uint16 }{uint16(h), uint16(w), 0, 0})))
}

// engineSession bridges the session to the engine binary running in a pty.
func engineSession(sess ssh.Session, enginePath string) error {
	if enginePath == "" {
		return errors.New("no engine configured")
	}
	ptyReq, winCh, isPty := sess.Pty()
	if !isPty {
		return errors.New("non-interactive terminals are not supported")
	}

	cmdCtx, cancelCmd := context.WithCancel(sess.Context())
	defer cancelCmd()

	cmd := exec.CommandContext(cmdCtx, enginePath)
	cmd.Env = append(sess.Environ(), fmt.Sprintf("TERM=%s", ptyReq.Term))

	f, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("start pseudo-terminal: %w", err)
	}
	defer f.Close()
	setWinsize(f, ptyReq.Window.Width, ptyReq.Window.Height)

	go func() {
		for win := range winCh {
			setWinsize(f, win.Width, win.Height)
		}
	}()

	go func() {
		io.Copy(f, sess)
	}()
	io.Copy(sess, f)

	cancelCmd()
	cmd.Wait()
	return nil
}
