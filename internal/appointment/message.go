package appointment

import (
	"fmt"
	"time"
)

var germanMonths = [...]string{"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni", "Juli", "Aug.", "Sept.", "Okt.", "Nov.", "Dez."}

// FormatSchedule renders t the way the front desk displays appointment times,
// e.g. "07. März 2026, 14:30".
func FormatSchedule(t time.Time) string {
	return fmt.Sprintf("%02d. %s %d, %02d:%02d", t.Day(), germanMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

// ComposeSMS builds the text sent to the patient after a transition.
func ComposeSMS(senderName string, a Appointment, t TransitionType) string {
	greeting := fmt.Sprintf("Hi, this is %s.", senderName)
	if t == TransitionSchedule {
		return fmt.Sprintf("%s Your appointment has been scheduled for %s with Dr. %s.",
			greeting, FormatSchedule(a.Schedule), a.PrimaryPhysician)
	}
	return fmt.Sprintf("%s We regret to inform you that your appointment has been cancelled for the following reason: %s",
		greeting, a.CancellationReason)
}
