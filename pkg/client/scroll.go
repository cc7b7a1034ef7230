package client

// NearBottomThreshold is the distance from the bottom of the scroll extent,
// in viewport units, within which the view still counts as pinned to the
// newest message.
const NearBottomThreshold = 200

// Viewport carries the scroll geometry of a chat view.
type Viewport struct {
	ScrollTop    float64
	ScrollHeight float64
	ClientHeight float64
}

// ScrollState is the derived presentation state of one chat view.
// IsNearBottom and PendingNewMessage are never both expected to drive UI at
// once: a view at the bottom has nothing pending.
type ScrollState struct {
	IsNearBottom      bool
	PendingNewMessage bool
}

// ScrollController derives auto-scroll behavior from viewport geometry and
// message arrival. One instance per open chat view; never shared.
type ScrollController struct {
	state          ScrollState
	scrollToLatest func()
}

// NewScrollController creates a controller for a freshly mounted view, which
// starts pinned to the newest message. scrollToLatest is invoked whenever the
// view must move to the newest unit; nil is allowed.
func NewScrollController(scrollToLatest func()) *ScrollController {
	return &ScrollController{
		state:          ScrollState{IsNearBottom: true},
		scrollToLatest: scrollToLatest,
	}
}

// OnScroll recomputes pinning from the current geometry. Scrolling back into
// the near-bottom zone clears any pending indicator, keeping the
// at-bottom-with-pending combination unreachable.
func (s *ScrollController) OnScroll(vp Viewport) {
	s.state.IsNearBottom = vp.ScrollHeight-vp.ScrollTop <= vp.ClientHeight+NearBottomThreshold
	if s.state.IsNearBottom {
		s.state.PendingNewMessage = false
	}
}

// OnMessageAppended reacts to one new unit in the sequence: auto-scroll while
// pinned, otherwise raise the pending indicator and leave the viewport alone.
func (s *ScrollController) OnMessageAppended() {
	if s.state.IsNearBottom {
		s.jump()
		return
	}
	s.state.PendingNewMessage = true
}

// JumpToLatest is the user-triggered acknowledgement of the pending
// indicator: scroll to the newest unit and clear it.
func (s *ScrollController) JumpToLatest() {
	s.jump()
	s.state.IsNearBottom = true
	s.state.PendingNewMessage = false
}

// State returns the current derived state.
func (s *ScrollController) State() ScrollState {
	return s.state
}

func (s *ScrollController) jump() {
	if s.scrollToLatest != nil {
		s.scrollToLatest()
	}
}
