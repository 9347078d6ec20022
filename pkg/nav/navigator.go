package nav

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/StatML/mrpt/internal/log"
	"github.com/StatML/mrpt/pkg/geom"
	"github.com/StatML/mrpt/pkg/kinematics"
)

// State is the lifecycle state of a navigation episode.
type State int

const (
	StateIdle State = iota
	StateNavigating
	StateWaypointReached
	StateBlocked
	StateEndedNormally
	StateEndedOnError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNavigating:
		return "navigating"
	case StateWaypointReached:
		return "waypoint_reached"
	case StateBlocked:
		return "blocked"
	case StateEndedNormally:
		return "ended_normally"
	case StateEndedOnError:
		return "ended_on_error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Waypoint is one intermediate target of a navigation request.
type Waypoint struct {
	Target geom.Point2D
	// AllowedDistance is the acceptance radius in metres: entering it counts
	// as physically reaching the waypoint.
	AllowedDistance float64
	// AllowSkip permits the navigator to advance past this waypoint when no
	// progress is made for the stall period, instead of declaring the way
	// blocked. The final waypoint is never skipped.
	AllowSkip bool
}

// Config tunes the navigation lifecycle. Zero values take the defaults.
type Config struct {
	ControlPeriod       time.Duration // control loop tick, default 50ms
	WatchdogPeriod      time.Duration // max gap between commands, default 1s
	WatchdogCheckPeriod time.Duration // monitor cadence, default WatchdogPeriod/4
	StallTimeout        time.Duration // no-progress window, default 3s
	ProgressEpsilon     float64       // metres of approach that count as progress, default 0.01
	MaxBlockedRetries   int           // resumes from Blocked before aborting, default 3
	MaxSpeed            float64       // m/s, default 0.5
	MaxRotSpeed         float64       // rad/s, default 1.0
	AlignThreshold      float64       // heading error that triggers align-in-place, default pi/3
}

func (c *Config) applyDefaults() {
	if c.ControlPeriod <= 0 {
		c.ControlPeriod = 50 * time.Millisecond
	}
	if c.WatchdogPeriod <= 0 {
		c.WatchdogPeriod = time.Second
	}
	if c.WatchdogCheckPeriod <= 0 {
		c.WatchdogCheckPeriod = c.WatchdogPeriod / 4
	}
	if c.StallTimeout <= 0 {
		c.StallTimeout = 3 * time.Second
	}
	if c.ProgressEpsilon <= 0 {
		c.ProgressEpsilon = 0.01
	}
	if c.MaxBlockedRetries <= 0 {
		c.MaxBlockedRetries = 3
	}
	if c.MaxSpeed <= 0 {
		c.MaxSpeed = 0.5
	}
	if c.MaxRotSpeed <= 0 {
		c.MaxRotSpeed = 1.0
	}
	if c.AlignThreshold <= 0 {
		c.AlignThreshold = math.Pi / 3
	}
}

// Status is a point-in-time snapshot of the navigator, safe to hand to
// telemetry consumers.
type Status struct {
	State     string      `json:"state"`
	Episode   string      `json:"episode,omitempty"`
	Waypoint  int         `json:"waypoint"`
	Waypoints int         `json:"waypoints"`
	Pose      geom.Pose2D `json:"pose"`
	NavTime   float64     `json:"nav_time_s"`
}

// Navigator drives one Boundary through a waypoint-list navigation episode:
// Idle -> Navigating -> {WaypointReached -> Navigating | Blocked |
// EndedNormally | EndedOnError}. Ended and Blocked states return to the
// start of a new episode on the next Navigate call.
//
// A Navigator is single-episode-at-a-time: Navigate blocks for the whole
// episode and a second concurrent call fails.
type Navigator struct {
	b   *Boundary
	cfg Config

	mu            sync.Mutex
	running       bool
	state         State
	episode       string
	waypoints     []Waypoint
	wpIndex       int
	blockedTries  int
	stopRequested bool
	lastPose      geom.Pose2D

	listeners []Listener
	eventFns  []EventFunc

	// progress tracking for the current waypoint
	bestDist     float64
	lastProgress time.Duration

	lastCmd kinematics.Cmd
}

// NewNavigator creates a navigator over a boundary.
func NewNavigator(b *Boundary, cfg Config) *Navigator {
	cfg.applyDefaults()
	return &Navigator{b: b, cfg: cfg, state: StateIdle}
}

// AddListener registers a lifecycle listener. Not safe to call while an
// episode is running.
func (n *Navigator) AddListener(l Listener) {
	n.listeners = append(n.listeners, l)
}

// AddEventFunc registers a sink for the full event stream. Not safe to call
// while an episode is running.
func (n *Navigator) AddEventFunc(fn EventFunc) {
	n.eventFns = append(n.eventFns, fn)
}

// State returns the current lifecycle state.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Status returns a telemetry snapshot.
func (n *Navigator) Status() Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return Status{
		State:     n.state.String(),
		Episode:   n.episode,
		Waypoint:  n.wpIndex,
		Waypoints: len(n.waypoints),
		Pose:      n.lastPose,
		NavTime:   n.b.NavigationTime().Seconds(),
	}
}

// WaypointList returns a copy of the active waypoint list.
func (n *Navigator) WaypointList() []Waypoint {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Waypoint, len(n.waypoints))
	copy(out, n.waypoints)
	return out
}

// Stop requests a normal end of the running episode: the robot is stopped
// with stop(false) and the episode ends with a single end event. Calling it
// when no episode is running, or after the episode already ended, is a
// no-op.
func (n *Navigator) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch n.state {
	case StateNavigating, StateWaypointReached, StateBlocked:
		n.stopRequested = true
	}
}

// Navigate runs one navigation episode over the waypoint list and blocks
// until it ends. Cancelling ctx cancels the episode: the robot is stopped
// with stop(false) and the navigator returns to Idle.
//
// It returns nil when the episode ends normally, ctx.Err() on cancellation,
// and the terminal failure otherwise.
func (n *Navigator) Navigate(ctx context.Context, waypoints []Waypoint) error {
	if len(waypoints) == 0 {
		return fmt.Errorf("nav: empty waypoint list")
	}
	for i, wp := range waypoints {
		if wp.AllowedDistance <= 0 {
			return fmt.Errorf("nav: waypoint %d has non-positive acceptance radius", i)
		}
	}

	n.mu.Lock()
	if n.running {
		n.mu.Unlock()
		return fmt.Errorf("nav: navigation already in progress (state %s)", n.state)
	}
	// A new request resets any ended or blocked episode back through Idle.
	n.running = true
	n.state = StateNavigating
	n.episode = uuid.New().String()
	n.waypoints = waypoints
	n.wpIndex = 0
	n.blockedTries = 0
	n.stopRequested = false
	n.bestDist = math.Inf(1)
	n.lastCmd = nil
	episode := n.episode
	n.mu.Unlock()

	n.b.ResetNavigationTimer()
	n.mu.Lock()
	n.lastProgress = 0
	n.mu.Unlock()
	defer func() {
		n.mu.Lock()
		n.running = false
		n.mu.Unlock()
	}()
	if err := n.b.StartWatchdog(n.cfg.WatchdogPeriod); err != nil {
		return n.failEpisode(fmt.Errorf("nav: arming watchdog: %w", err))
	}
	defer n.b.StopWatchdog()

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	wdExpired := make(chan error, 1)
	go n.b.RunWatchdogMonitor(monitorCtx, n.cfg.WatchdogCheckPeriod, func(err error) {
		select {
		case wdExpired <- err:
		default:
		}
	})

	log.Info("navigation started", "episode", episode, "waypoints", len(waypoints))
	n.emit(Event{Kind: EventNavigationStart}, func(l Listener) { l.OnNavigationStart() })
	n.emit(Event{Kind: EventNewWaypointTarget, Waypoint: 0}, func(l Listener) { l.OnNewWaypointTarget(0) })

	ticker := time.NewTicker(n.cfg.ControlPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := n.b.Stop(false); err != nil {
				log.Error("stop on cancellation failed", "error", err)
			}
			n.setState(StateIdle)
			log.Info("navigation cancelled", "episode", episode)
			return ctx.Err()
		case err := <-wdExpired:
			return n.failEpisode(err)
		case <-ticker.C:
			done, err := n.step()
			if err != nil {
				return n.failEpisode(err)
			}
			if done {
				return nil
			}
		}
	}
}

// step runs one control cycle. The command it dispatches is computed from
// the pose read in the same cycle; nothing else reads or writes between the
// two, which preserves the pose-before-command causal order.
func (n *Navigator) step() (done bool, err error) {
	n.mu.Lock()
	if n.stopRequested {
		n.mu.Unlock()
		return true, n.endNormally("operator stop")
	}
	state := n.state
	n.mu.Unlock()

	if state == StateBlocked {
		return false, n.resumeFromBlocked()
	}

	pose, _, _, err := n.b.CurrentPoseAndSpeeds()
	if err != nil {
		return false, err
	}

	n.mu.Lock()
	n.lastPose = pose
	wp := n.waypoints[n.wpIndex]
	idx := n.wpIndex
	final := idx == len(n.waypoints)-1
	n.mu.Unlock()

	dist := pose.Point().DistanceTo(wp.Target)

	if dist <= wp.AllowedDistance {
		if final {
			return true, n.endNormally("final waypoint reached")
		}
		n.advanceWaypoint(idx, true)
		return false, nil
	}

	navTime := n.b.NavigationTime()
	n.mu.Lock()
	if n.bestDist-dist >= n.cfg.ProgressEpsilon {
		n.bestDist = dist
		n.lastProgress = navTime
	}
	stalled := navTime-n.lastProgress > n.cfg.StallTimeout
	n.mu.Unlock()

	if stalled {
		if wp.AllowSkip && !final {
			n.advanceWaypoint(idx, false)
			return false, nil
		}
		return false, n.enterBlocked()
	}

	return false, n.drive(pose, wp.Target, dist)
}

// drive computes and dispatches one velocity command toward the target.
// An unchanged command is re-asserted through the NOP path, which still
// refreshes the watchdog.
func (n *Navigator) drive(pose geom.Pose2D, target geom.Point2D, dist float64) error {
	heading := math.Atan2(target.Y-pose.Y, target.X-pose.X)
	headingErr := geom.WrapToPi(heading - pose.Phi)

	var cmd kinematics.Cmd
	if math.Abs(headingErr) > n.cfg.AlignThreshold {
		if alignCmd, ok := n.b.AlignCmd(headingErr); ok {
			cmd = alignCmd
		}
	}
	if cmd == nil {
		var err error
		cmd, err = n.steerCmd(dist, headingErr)
		if err != nil {
			return err
		}
	}

	n.mu.Lock()
	same := n.lastCmd != nil && n.lastCmd == cmd
	n.mu.Unlock()
	if same {
		return n.b.ChangeSpeedsNOP()
	}
	if err := n.b.ChangeSpeeds(cmd); err != nil {
		return err
	}
	n.mu.Lock()
	n.lastCmd = cmd
	n.mu.Unlock()
	return nil
}

// steerCmd shapes a proportional approach command for the backend's
// kinematic model. Speed tapers near the target, rotation tracks the
// heading error.
func (n *Navigator) steerCmd(dist, headingErr float64) (kinematics.Cmd, error) {
	// Taper toward the target but keep a minimum approach speed so the
	// final centimetres do not take forever.
	v := clamp(dist, 0.1*n.cfg.MaxSpeed, n.cfg.MaxSpeed)
	w := clamp(2*headingErr, -n.cfg.MaxRotSpeed, n.cfg.MaxRotSpeed)

	switch n.b.StopCmd().Model() {
	case kinematics.Ackermann:
		return kinematics.NewAckermann(v, clamp(headingErr, -1.2, 1.2))
	case kinematics.Holonomic:
		return kinematics.NewHolo(v, headingErr, w)
	default:
		// Reduce forward speed while the heading error is large.
		return kinematics.NewDiffDrive(v*math.Cos(headingErr), w)
	}
}

// advanceWaypoint records passing waypoint idx (physically reached or
// skipped) and retargets the next one. Both outcomes emit the same event
// kind, distinguished only by the reached flag.
func (n *Navigator) advanceWaypoint(idx int, reached bool) {
	n.mu.Lock()
	n.state = StateWaypointReached
	n.wpIndex = idx + 1
	next := n.wpIndex
	n.bestDist = math.Inf(1)
	n.lastProgress = n.b.NavigationTime()
	n.state = StateNavigating
	n.mu.Unlock()

	log.Info("waypoint passed", "index", idx, "reached", reached, "next", next)
	n.emit(Event{Kind: EventWaypointReached, Waypoint: idx, Reached: reached}, func(l Listener) {
		l.OnWaypointReached(idx, reached)
	})
	n.emit(Event{Kind: EventNewWaypointTarget, Waypoint: next}, func(l Listener) {
		l.OnNewWaypointTarget(next)
	})
}

// enterBlocked transitions to Blocked after a stall and stops the robot
// until the next cycle decides between retry and abort.
func (n *Navigator) enterBlocked() error {
	n.setState(StateBlocked)
	log.Warn("no progress toward waypoint, way seems blocked")
	n.emit(Event{Kind: EventWaySeemsBlocked}, func(l Listener) { l.OnWaySeemsBlocked() })
	if err := n.b.Stop(false); err != nil {
		return err
	}
	return nil
}

// resumeFromBlocked retries a blocked approach a bounded number of times,
// then escalates to a terminal error.
func (n *Navigator) resumeFromBlocked() error {
	n.mu.Lock()
	n.blockedTries++
	tries := n.blockedTries
	if tries > n.cfg.MaxBlockedRetries {
		n.mu.Unlock()
		return fmt.Errorf("nav: still blocked after %d retries", n.cfg.MaxBlockedRetries)
	}
	n.state = StateNavigating
	n.bestDist = math.Inf(1)
	n.lastProgress = n.b.NavigationTime()
	n.mu.Unlock()

	log.Info("retrying blocked approach", "attempt", tries)
	return nil
}

// endNormally stops the robot and closes the episode with a single end
// event.
func (n *Navigator) endNormally(reason string) error {
	if err := n.b.Stop(false); err != nil {
		log.Error("stop at end of navigation failed", "error", err)
	}
	n.setState(StateEndedNormally)
	log.Info("navigation ended", "reason", reason)
	n.emit(Event{Kind: EventNavigationEnd}, func(l Listener) { l.OnNavigationEnd() })
	return nil
}

// failEpisode closes the episode on an unrecoverable failure: force a stop,
// emit the error event once, and report the cause to the caller.
func (n *Navigator) failEpisode(cause error) error {
	if err := n.b.Stop(true); err != nil {
		log.Error("emergency stop on failure failed", "error", err)
	}
	n.setState(StateEndedOnError)
	log.Error("navigation ended on error", "error", cause)
	n.emit(Event{Kind: EventNavigationEndDueToError}, func(l Listener) { l.OnNavigationEndDueToError() })
	return cause
}

func (n *Navigator) setState(s State) {
	n.mu.Lock()
	n.state = s
	n.mu.Unlock()
}

// emit dispatches an event to every listener and event sink, containing any
// panic so a misbehaving observer can never take down the state machine.
func (n *Navigator) emit(ev Event, call func(Listener)) {
	n.mu.Lock()
	ev.Episode = n.episode
	n.mu.Unlock()
	ev.Time = n.b.Clock().Now()

	for _, l := range n.listeners {
		dispatchSafely(func() { call(l) })
	}
	for _, fn := range n.eventFns {
		fn := fn
		dispatchSafely(func() { fn(ev) })
	}
}

func dispatchSafely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("event listener panicked", "panic", r)
		}
	}()
	fn()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
