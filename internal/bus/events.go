package bus

// NetworkEvent is published whenever the process-wide connectivity state
// flips. Online is the new state.
type NetworkEvent struct {
	Online bool
}

// LockEvent is published on lock/unlock transitions of the session
// auto-lock subsystem.
type LockEvent struct {
	Locked bool
}

// BackendErrorEvent reports an unexpected (non-connectivity) remote-store
// error that forced the façade to degrade to its fallback store. The UI
// surfaces these on a dedicated reporting channel instead of the request
// path.
type BackendErrorEvent struct {
	Op         string
	Collection string
	Code       string
	Message    string
}

// Bus aggregates the application-wide topics.
type Bus struct {
	Network       *Topic[NetworkEvent]
	Lock          *Topic[LockEvent]
	BackendErrors *Topic[BackendErrorEvent]
}

// New creates a Bus with all topics initialized.
func New() *Bus {
	return &Bus{
		Network:       NewTopic[NetworkEvent](),
		Lock:          NewTopic[LockEvent](),
		BackendErrors: NewTopic[BackendErrorEvent](),
	}
}
