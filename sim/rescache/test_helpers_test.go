package rescache

import (
	"errors"
	"fmt"

	"github.com/culturewave/showcase/sim/internal/testutil"
)

// fakeResource counts Dispose calls and can be told to fail.
type fakeResource struct {
	name     string
	disposed int
	failWith error
	panics   bool
}

func (f *fakeResource) Dispose() error {
	f.disposed++
	if f.panics {
		panic("context lost")
	}
	return f.failWith
}

func newTestCache(cfg Config) (*ResourceCache, *testutil.Clock) {
	clock := testutil.NewClock()
	c := NewResourceCache(cfg)
	c.SetClock(clock.Now)
	return c, clock
}

func texKey(i int) string {
	return fmt.Sprintf("https://cdn.example/tex/%02d.png", i)
}

var errLostContext = errors.New("gl context lost")
