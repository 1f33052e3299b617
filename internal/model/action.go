package model

// Action is the account/game operation a session is currently performing.
// Password handling depends on it.
type Action string

const (
	ActionNone          Action = ""
	ActionCreateAccount Action = "create account"
	ActionLogIn         Action = "log in"
	ActionDeleteGame    Action = "delete game"
)

// ParseAction maps a wire value to an Action. Unknown values return false.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionCreateAccount, ActionLogIn, ActionDeleteGame:
		return Action(s), true
	default:
		return ActionNone, false
	}
}
