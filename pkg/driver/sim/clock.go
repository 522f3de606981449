package sim

import (
	"fmt"
	"time"
)

// Clock counts down while running and calls expired once it reaches zero.
// It is guarded by the owning driver's mutex.
type Clock struct {
	Remaining time.Duration
	Running   bool
	Blank     bool

	startedAt time.Time
	timer     *time.Timer
	expired   func()
	now       func() time.Time
}

func (cl *Clock) String() string {
	if cl.Blank {
		return "--:--"
	}
	rem := cl.remaining()
	return fmt.Sprintf("%d:%02d", int(rem.Minutes()), int(rem.Seconds())%60)
}

func (cl *Clock) remaining() time.Duration {
	if !cl.Running {
		return cl.Remaining
	}
	rem := cl.Remaining - cl.now().Sub(cl.startedAt)
	if rem < 0 {
		rem = 0
	}
	return rem
}

func (cl *Clock) Set(d time.Duration) {
	cl.Pause()
	cl.Remaining = d
	cl.Blank = false
}

func (cl *Clock) Start() {
	if cl.Running {
		return
	}
	cl.Blank = false
	cl.Running = true
	cl.startedAt = cl.now()
	if cl.Remaining > 0 {
		cl.timer = time.AfterFunc(cl.Remaining, cl.expired)
	}
}

func (cl *Clock) Pause() {
	if !cl.Running {
		return
	}
	cl.Remaining = cl.remaining()
	cl.Running = false
	if cl.timer != nil {
		cl.timer.Stop()
		cl.timer = nil
	}
}

func (cl *Clock) Reset() {
	cl.Pause()
	cl.Remaining = 0
	cl.Blank = true
}
