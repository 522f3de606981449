package engine

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Launch opens the book, starts the engine binary, negotiates UCI and
// configures it for the level. An empty bookPath selects the ECO book.
func Launch(ctx context.Context, enginePath, bookPath string, level Level, onResult func(Result), log logrus.FieldLogger) (*Player, error) {
	var (
		book Book
		err  error
	)
	if bookPath == "" {
		book = NewECOBook()
	} else if book, err = OpenFileBook(bookPath); err != nil {
		return nil, err
	}

	proc, err := Start(enginePath, log)
	if err != nil {
		book.Close()
		return nil, err
	}

	profile := ProfileFor(level)
	ctx, cancel := context.WithTimeout(ctx, HandshakeTimeout)
	defer cancel()

	if err := setup(ctx, proc, profile); err != nil {
		proc.Quit()
		book.Close()
		return nil, fmt.Errorf("engine %s: %w", enginePath, err)
	}

	log.WithFields(logrus.Fields{"level": level, "skill": profile.Skill, "depth": profile.Depth}).Info("engine ready")
	return NewPlayer(proc, book, profile, onResult, log), nil
}

func setup(ctx context.Context, proc *Process, profile Profile) error {
	if err := proc.Handshake(ctx); err != nil {
		return err
	}
	if err := proc.Configure(ctx, profile.Options()); err != nil {
		return err
	}
	return proc.NewGame(ctx)
}
