package pipeline

// State is the controller's position in the run.
// Transitions are strictly Init → DbReady → IndexReady → SearchDone;
// any step error aborts the run where it stands.
type State int

const (
	StateInit State = iota
	StateDbReady
	StateIndexReady
	StateSearchDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateDbReady:
		return "db-ready"
	case StateIndexReady:
		return "index-ready"
	case StateSearchDone:
		return "search-done"
	default:
		return "unknown"
	}
}
