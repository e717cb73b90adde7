package frame

import "github.com/sarchlab/vmsim/mem/vm"

// A VictimSelector picks an allocated frame to hand out again when no frame
// is free.
type VictimSelector interface {
	SelectVictim(frames []Frame) (pfn vm.FrameNumber, ok bool)
}

// FirstUnpinnedSelector picks the lowest-numbered frame that is allocated and
// not pinned.
type FirstUnpinnedSelector struct{}

// SelectVictim scans the frames in index order.
func (FirstUnpinnedSelector) SelectVictim(frames []Frame) (vm.FrameNumber, bool) {
	for i, f := range frames {
		if f.isEvictable() {
			return vm.FrameNumber(i), true
		}
	}

	return 0, false
}

// ReferenceTracker exposes the referenced bit of pages. The page table
// implements it.
type ReferenceTracker interface {
	Entry(vpn vm.PageNumber) (vm.PageTableEntry, bool)
	SetReferenced(vpn vm.PageNumber, referenced bool)
}

// ClockSelector implements the second-chance algorithm. A clock hand sweeps
// the frames; a frame whose owner page has been referenced since the last
// sweep has its bit cleared and is skipped once.
type ClockSelector struct {
	tracker ReferenceTracker
	hand    int
}

// NewClockSelector creates a ClockSelector that reads referenced bits from
// the tracker.
func NewClockSelector(tracker ReferenceTracker) *ClockSelector {
	return &ClockSelector{tracker: tracker}
}

// SelectVictim advances the clock hand until it finds a frame to evict.
func (s *ClockSelector) SelectVictim(frames []Frame) (vm.FrameNumber, bool) {
	n := len(frames)
	if n == 0 {
		return 0, false
	}

	// Two sweeps are enough: the first one clears every referenced bit.
	for step := 0; step < 2*n; step++ {
		i := s.hand % n
		s.hand = (i + 1) % n

		f := frames[i]
		if !f.isEvictable() {
			continue
		}

		if s.referenced(f.OwnerVPN) {
			s.tracker.SetReferenced(f.OwnerVPN, false)
			continue
		}

		return vm.FrameNumber(i), true
	}

	return 0, false
}

func (s *ClockSelector) referenced(vpn vm.PageNumber) bool {
	entry, found := s.tracker.Entry(vpn)
	return found && entry.Valid && entry.Referenced
}
