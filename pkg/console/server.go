package console

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/gliderlabs/ssh"
	"github.com/sirupsen/logrus"
	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/term"
)

const (
	ServerIdleTimeout = 5 * time.Minute
	ShutdownTimeout   = 2 * time.Second
)

type Options struct {
	Addr        string
	HostKeyPath string
	// Empty password disables authentication.
	Password   string
	EnginePath string
}

type Server struct {
	opts    Options
	console *Console
	log     logrus.FieldLogger
}

func NewServer(opts Options, c *Console, log logrus.FieldLogger) *Server {
	return &Server{opts: opts, console: c, log: log}
}

// LoadHostKey reads a PEM private key from path. A missing file is replaced
// by a freshly generated ed25519 key.
func LoadHostKey(path string) (gossh.Signer, error) {
	raw, err := ioutil.ReadFile(path)
	if err == nil {
		signer, err := gossh.ParsePrivateKey(raw)
		if err != nil {
			return nil, fmt.Errorf("parse host key %s: %w", path, err)
		}
		return signer, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read host key: %w", err)
	}

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate host key: %w", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("encode host key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("save host key: %w", err)
	}
	block := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	if err := ioutil.WriteFile(path, block, 0600); err != nil {
		return nil, fmt.Errorf("save host key: %w", err)
	}
	return gossh.NewSignerFromKey(key)
}

// ListenAndServe runs the SSH console until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	signer, err := LoadHostKey(s.opts.HostKeyPath)
	if err != nil {
		return err
	}

	srv := &ssh.Server{
		Addr:        s.opts.Addr,
		IdleTimeout: ServerIdleTimeout,
		Handler:     s.handle,
	}
	srv.AddHostKey(signer)
	if s.opts.Password != "" {
		srv.PasswordHandler = func(ctx ssh.Context, password string) bool {
			return subtle.ConstantTimeCompare([]byte(password), []byte(s.opts.Password)) == 1
		}
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.WithFields(logrus.Fields{"addr": s.opts.Addr, "key": gossh.FingerprintSHA256(signer.PublicKey())}).Info("console listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return srv.Close()
		}
		return nil
	}
}

func (s *Server) handle(sess ssh.Session) {
	log := s.log.WithFields(logrus.Fields{"user": sess.User(), "remote": sess.RemoteAddr()})
	log.Info("console session opened")
	defer log.Info("console session closed")

	if cmd := sess.Command(); len(cmd) > 0 {
		if cmd[0] != "engine" {
			fmt.Fprintf(sess, "unknown session %q\n", cmd[0])
			sess.Exit(1)
			return
		}
		if err := engineSession(sess, s.opts.EnginePath); err != nil {
			log.WithError(err).Warn("engine session failed")
			fmt.Fprintf(sess, "engine: %s\n", err)
			sess.Exit(1)
			return
		}
		sess.Exit(0)
		return
	}

	s.serve(sess)
	sess.Exit(0)
}

// serve runs the command loop on rw until quit or EOF.
func (s *Server) serve(rw io.ReadWriter) {
	t := term.NewTerminal(rw, Prompt)
	fmt.Fprintln(t, "electronic chessboard console, type help for commands")
	for {
		line, err := t.ReadLine()
		if err != nil {
			return
		}
		out, quit := s.console.Exec(line)
		if out != "" {
			io.WriteString(t, out)
		}
		if quit {
			return
		}
	}
}
