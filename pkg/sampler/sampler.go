package sampler

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"
)

// DefaultMaxResample bounds how many draws Pick makes before giving up on a listing.
const DefaultMaxResample = 32

var (
	// ErrEmpty is returned when sampling from an empty list.
	ErrEmpty = errors.New("sampler: empty candidate list")
	// ErrNoAdmissible is returned when the deny-list covers every index.
	ErrNoAdmissible = errors.New("sampler: every index is denied")
	// ErrResampleExhausted is returned when Pick hit its draw limit without an accepted index.
	ErrResampleExhausted = errors.New("sampler: resample limit reached")
)

// Sampler draws uniform random indices. It is safe for concurrent use.
type Sampler struct {
	mu          sync.Mutex
	rng         *rand.Rand
	maxResample int
}

// New creates a sampler. A zero seed derives one from the clock.
// maxResample <= 0 selects DefaultMaxResample.
func New(seed uint64, maxResample int) *Sampler {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	if maxResample <= 0 {
		maxResample = DefaultMaxResample
	}
	return &Sampler{
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		maxResample: maxResample,
	}
}

// MaxResample returns the draw limit used by Pick.
func (s *Sampler) MaxResample() int {
	return s.maxResample
}

// Intn returns a uniform value in [0, n). n must be positive.
func (s *Sampler) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Index returns a uniform index in [0, n).
func (s *Sampler) Index(n int) (int, error) {
	if n <= 0 {
		return 0, ErrEmpty
	}
	return s.Intn(n), nil
}

// Admissible draws until the index is not on the deny-list.
// A rejected draw never fails; only a deny-list that covers all of [0, n) does.
func (s *Sampler) Admissible(n int, deny []int) (int, error) {
	if n <= 0 {
		return 0, ErrEmpty
	}
	denied := denySet(n, deny)
	if len(denied) >= n {
		return 0, ErrNoAdmissible
	}
	for {
		i := s.Intn(n)
		if !denied[i] {
			return i, nil
		}
	}
}

// Pick draws an admissible index and redraws while accept rejects it,
// at most MaxResample times. accept may be nil.
func (s *Sampler) Pick(n int, deny []int, accept func(i int) bool) (int, error) {
	for attempt := 0; attempt < s.maxResample; attempt++ {
		i, err := s.Admissible(n, deny)
		if err != nil {
			return 0, err
		}
		if accept == nil || accept(i) {
			return i, nil
		}
	}
	return 0, ErrResampleExhausted
}

// denySet keeps only deny entries that fall inside [0, n).
func denySet(n int, deny []int) map[int]bool {
	set := make(map[int]bool, len(deny))
	for _, d := range deny {
		if d >= 0 && d < n {
			set[d] = true
		}
	}
	return set
}
