package cist

// State is the lifecycle state of a conversation session.
type State string

const (
	StateInit            State = "init"
	StatePhotoChat       State = "photo_based_chat"
	StateEvaluation      State = "cist_evaluation"
	StateAsyncProcessing State = "async_processing"
	StateWaitingCache    State = "waiting_cache"
	StateCompleted       State = "completed"
)

// stateTransitions is the allowed transition table. COMPLETED is terminal.
var stateTransitions = map[State][]State{
	StateInit: {
		StatePhotoChat,
		StateEvaluation,
	},
	StatePhotoChat: {
		StateEvaluation,
		StateAsyncProcessing,
		StateCompleted,
	},
	StateEvaluation: {
		StatePhotoChat,
		StateAsyncProcessing,
		StateCompleted,
	},
	StateAsyncProcessing: {
		StateWaitingCache,
		StatePhotoChat,
		StateEvaluation,
	},
	StateWaitingCache: {
		StateEvaluation,
		StatePhotoChat,
	},
	StateCompleted: {},
}

// CanTransition reports whether moving from one state to another is legal.
// A request outside the table signals a logic error in the caller, not a
// user-facing failure; callers log and keep the old state.
func CanTransition(from, to State) bool {
	for _, allowed := range stateTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state admits no further transitions.
func (s State) IsTerminal() bool {
	return len(stateTransitions[s]) == 0
}
