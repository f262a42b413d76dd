package assistant

import (
	"regexp"
	"strings"
)

// Intent classifies what a message asks for.
type Intent string

const (
	IntentCreateTaskAndEvent Intent = "create_task_and_event"
	IntentCreateTask         Intent = "create_task"
	IntentShowTasks          Intent = "show_tasks"
	IntentCreateEvent        Intent = "create_event"
	IntentCreateReminder     Intent = "create_reminder"
	IntentSendEmail          Intent = "send_email"
	IntentCheckEmail         Intent = "check_email"
	IntentGeneral            Intent = "general"
)

var (
	reAddTask   = regexp.MustCompile(`добав.*задач|создай.*задач`)
	reAndBook   = regexp.MustCompile(`и\s+(забронир|заблокир)`)
	reShowTasks = regexp.MustCompile(`покажи.*дел|список.*дел|мои.*задач`)
	reBookEvent = regexp.MustCompile(`забронир|заблокир|создай встречу`)
	reRemind    = regexp.MustCompile(`напомн`)
	reSendMail  = regexp.MustCompile(`отправ.*письм`)
	reMail      = regexp.MustCompile(`почт|письм|сообщени|email|gmail|mail`)
)

// Classify maps a message to an Intent. Rules are checked in order from
// most to least specific because they overlap. Matching is plain
// substring/regexp over the lowercased message with no negation
// handling: "не добавляй задачу" still classifies as create_task.
func Classify(message string) Intent {
	m := strings.ToLower(message)
	switch {
	case reAddTask.MatchString(m) && reAndBook.MatchString(m):
		return IntentCreateTaskAndEvent
	case reAddTask.MatchString(m):
		return IntentCreateTask
	case reShowTasks.MatchString(m):
		return IntentShowTasks
	case reBookEvent.MatchString(m):
		return IntentCreateEvent
	case reRemind.MatchString(m):
		return IntentCreateReminder
	case reSendMail.MatchString(m):
		return IntentSendEmail
	case reMail.MatchString(m):
		return IntentCheckEmail
	default:
		return IntentGeneral
	}
}
