package types

import "fmt"

type NotificationKind int

const (
	NotifyState NotificationKind = iota
	NotifyAction
	NotifyInvalidAction
	NotifyReward
)

func (k NotificationKind) String() string {
	switch k {
	case NotifyState:
		return "State"
	case NotifyAction:
		return "Action"
	case NotifyInvalidAction:
		return "InvalidAction"
	case NotifyReward:
		return "Reward"
	default:
		return "Unknown"
	}
}

// Notification is what an environment driver tells a policy about the
// episode. Only the fields of the given Kind are set.
type Notification struct {
	Kind   NotificationKind
	State  State
	Status Status
	Action Action
	Reward float32
}

func StateNotification(s State, status Status) Notification {
	return Notification{Kind: NotifyState, State: s, Status: status}
}

func ActionNotification(a Action) Notification {
	return Notification{Kind: NotifyAction, Action: a}
}

func InvalidActionNotification(a Action) Notification {
	return Notification{Kind: NotifyInvalidAction, Action: a}
}

func RewardNotification(r float32) Notification {
	return Notification{Kind: NotifyReward, Reward: r}
}

func (n Notification) String() string {
	switch n.Kind {
	case NotifyState:
		return fmt.Sprintf("State(%s)", n.Status)
	case NotifyAction, NotifyInvalidAction:
		return fmt.Sprintf("%s(%s)", n.Kind, n.Action.Hash())
	case NotifyReward:
		return fmt.Sprintf("Reward(%g)", n.Reward)
	default:
		return n.Kind.String()
	}
}
