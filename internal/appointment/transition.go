package appointment

import "fmt"

// TransitionType is the action an administrator requests on an appointment.
type TransitionType string

const (
	TransitionSchedule TransitionType = "schedule"
	TransitionCancel   TransitionType = "cancel"
)

var transitionTargets = map[TransitionType]Status{
	TransitionSchedule: StatusScheduled,
	TransitionCancel:   StatusCancelled,
}

func ParseTransitionType(s string) (TransitionType, error) {
	t := TransitionType(s)
	if _, ok := transitionTargets[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidTransition, s)
	}
	return t, nil
}

// TargetStatus returns the status an appointment ends up in after t.
func TargetStatus(t TransitionType) (Status, error) {
	s, ok := transitionTargets[t]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidTransition, string(t))
	}
	return s, nil
}
