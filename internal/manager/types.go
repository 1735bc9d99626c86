package manager

// State represents the lifecycle state of the manager.
type State string

const (
	StateLoading State = "loading"
	StateOpen    State = "open"
	StateClosed  State = "closed"
)

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State         State
	WorkerRunning bool
	Pending       int
}
