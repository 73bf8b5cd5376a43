// Package fsm implements the per-symbol strategy state machine. The
// transition table is encoded as data and enforced at a single choke
// point; illegal transitions are rejected as no-ops rather than causing
// a panic.
package fsm

// State is one node of the strategy's finite automaton.
type State string

const (
	Idle              State = "IDLE"
	RangeDefined      State = "RANGE_DEFINED"
	BreakoutDetected  State = "BREAKOUT_DETECTED"
	WaitPullback      State = "WAIT_PULLBACK"
	LimitOrderPlaced  State = "LIMIT_ORDER_PLACED"
	InPosition        State = "IN_POSITION"
	Exit              State = "EXIT"
	Reset             State = "RESET"
)

// transitions is the sole source of truth for legal state transitions.
var transitions = map[State][]State{
	Idle:             {RangeDefined},
	RangeDefined:     {BreakoutDetected, Reset},
	BreakoutDetected: {WaitPullback, Reset},
	WaitPullback:     {LimitOrderPlaced, Reset},
	LimitOrderPlaced: {InPosition, Reset},
	InPosition:       {Exit, Reset},
	Exit:             {Reset},
	Reset:            {Idle},
}

// Listener is notified of every transition attempt, legal or not — the
// caller decides what "logged" means. Illegal attempts must be logged
// somewhere; the listener is the only hook for that.
type Listener interface {
	OnTransition(symbol string, from, to State, allowed bool)
}

// Machine is the per-symbol state holder. EnteredAt records the
// caller-supplied timestamp (epoch ms; the orchestrator passes candle
// close times) at which the current state began, so
// higher layers can enforce timeouts.
type Machine struct {
	symbol    string
	state     State
	enteredAt int64
	listener  Listener
}

// New constructs a machine in IDLE, entered at the given timestamp.
func New(symbol string, now int64, listener Listener) *Machine {
	return &Machine{symbol: symbol, state: Idle, enteredAt: now, listener: listener}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// EnteredAt returns the timestamp at which the current state began.
func (m *Machine) EnteredAt() int64 { return m.enteredAt }

// Allowed reports whether `to` is a legal next state from the current one.
func (m *Machine) Allowed(to State) bool {
	for _, s := range transitions[m.state] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition attempts to move to `to` at timestamp `now`. Illegal
// transitions are rejected (no-op, returns false); the listener, if set,
// is always notified so the caller can log the attempt.
func (m *Machine) Transition(to State, now int64) bool {
	allowed := m.Allowed(to)
	if m.listener != nil {
		m.listener.OnTransition(m.symbol, m.state, to, allowed)
	}
	if !allowed {
		return false
	}
	m.state = to
	m.enteredAt = now
	return true
}

// ForceReset unconditionally drives the machine to RESET then IDLE,
// clearing timing state. Used by driver-initiated resets and by the
// illegal-invariant discard path, which must never be blocked by the
// transition table.
func (m *Machine) ForceReset(now int64) {
	if m.listener != nil && m.state != Reset {
		m.listener.OnTransition(m.symbol, m.state, Reset, true)
	}
	m.state = Reset
	m.enteredAt = now
	m.state = Idle
	m.enteredAt = now
}

// TimeInState returns how long (in the same epoch-ms units as timestamps
// fed to Transition) the machine has been in its current state.
func (m *Machine) TimeInState(now int64) int64 {
	if now < m.enteredAt {
		return 0
	}
	return now - m.enteredAt
}
