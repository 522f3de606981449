//go:build windows
// +build windows

package console

import (
	"errors"

	"github.com/gliderlabs/ssh"
)

// Pseudo-terminals are unsupported on Windows.
func engineSession(sess ssh.Session, enginePath string) error {
	return errors.New("engine sessions are not supported on windows")
}
