package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/notnil/chess"
	"github.com/sirupsen/logrus"
)

const requestQueueSize = 8

// Request asks for a move in a position. Moves is the game so far, from
// the initial position, and is only used for book lookups.
type Request struct {
	Position  *chess.Position
	Moves     []*chess.Move
	WhiteTime time.Duration
	BlackTime time.Duration
	Ponder    bool // speculative search on a predicted position
}

// Result is delivered once per request, tagged with the request token.
type Result struct {
	Token    uint64
	Move     *chess.Move
	Ponder   *chess.Move
	Pondered bool
	FromBook bool
}

type job struct {
	req   Request
	token uint64
}

// Player answers move requests from an opening book first and from the
// engine otherwise. Requests are served one at a time on a worker
// goroutine and results are passed to the onResult callback.
type Player struct {
	proc     Searcher
	book     Book
	profile  Profile
	onResult func(Result)

	jobs     chan job
	token    uint64
	rndMu    sync.Mutex
	rnd      *rand.Rand
	ctx      context.Context
	cancel   context.CancelFunc
	finished chan struct{}

	log logrus.FieldLogger
}

// NewPlayer starts serving requests. book may be nil.
func NewPlayer(proc Searcher, book Book, profile Profile, onResult func(Result), log logrus.FieldLogger) *Player {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		proc:     proc,
		book:     book,
		profile:  profile,
		onResult: onResult,
		jobs:     make(chan job, requestQueueSize),
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		ctx:      ctx,
		cancel:   cancel,
		finished: make(chan struct{}),
		log:      log,
	}
	go p.serve()
	return p
}

// SetSeed makes book choices repeatable.
func (p *Player) SetSeed(seed int64) {
	p.rndMu.Lock()
	defer p.rndMu.Unlock()
	p.rnd = rand.New(rand.NewSource(seed))
}

func (p *Player) Profile() Profile {
	return p.profile
}

// RequestMove queues a request and returns its token. It never blocks:
// when the queue is full the oldest waiting request is dropped, since only
// the newest token is still awaited.
func (p *Player) RequestMove(req Request) uint64 {
	j := job{req: req, token: atomic.AddUint64(&p.token, 1)}
	for {
		select {
		case p.jobs <- j:
			return j.token
		default:
		}

		select {
		case old := <-p.jobs:
			p.log.WithField("token", old.token).Warn("request queue full, dropping oldest request")
		default:
		}
	}
}

// Stop interrupts the running search. Its result is still delivered.
func (p *Player) Stop() {
	if err := p.proc.Stop(); err != nil {
		p.log.WithError(err).Warn("failed to stop search")
	}
}

// Close stops serving, quits the engine and closes the book.
func (p *Player) Close() error {
	p.cancel()
	close(p.jobs)
	<-p.finished

	var errs []error
	if err := p.proc.Quit(); err != nil {
		errs = append(errs, fmt.Errorf("quit engine: %w", err))
	}
	if p.book != nil {
		if err := p.book.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close book: %w", err))
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (p *Player) serve() {
	defer close(p.finished)

	for j := range p.jobs {
		if p.ctx.Err() != nil {
			continue
		}

		log := p.log.WithField("token", j.token)
		if m, ok := p.bookMove(j.req); ok {
			log.WithField("move", m).Debug("book move")
			p.onResult(Result{Token: j.token, Move: m, Pondered: j.req.Ponder, FromBook: true})
			continue
		}

		cmd := p.profile.GoCommand(j.req.WhiteTime, j.req.BlackTime)
		best, ponder, err := p.proc.Search(p.ctx, j.req.Position, cmd)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("engine search failed")
			}
			continue
		}
		log.WithFields(logrus.Fields{"move": best, "ponder": ponder}).Debug("engine move")
		p.onResult(Result{Token: j.token, Move: best, Ponder: ponder, Pondered: j.req.Ponder})
	}
}

func (p *Player) bookMove(req Request) (*chess.Move, bool) {
	if p.book == nil {
		return nil, false
	}

	band := InBand(p.book.Entries(req.Position, req.Moves), p.profile.BookMin, p.profile.BookMax)

	p.rndMu.Lock()
	defer p.rndMu.Unlock()
	return WeightedChoice(band, nil, p.rnd)
}
