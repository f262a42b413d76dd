package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		message  string
		expected Intent
	}{
		{"Добавь задачу: купить молоко", IntentCreateTask},
		{"создай задачу позвонить маме", IntentCreateTask},
		{"Добавь задачу: забрать посылку и заблокировать 21:00-22:00", IntentCreateTaskAndEvent},
		{"добавь задачу убраться и забронируй время", IntentCreateTaskAndEvent},
		{"Покажи список дел", IntentShowTasks},
		{"мои задачи", IntentShowTasks},
		{"забронируй время на завтра", IntentCreateEvent},
		{"заблокируй 15:00", IntentCreateEvent},
		{"создай встречу с командой", IntentCreateEvent},
		{"напомни мне позвонить в 10:00", IntentCreateReminder},
		{"отправь письмо Ивану", IntentSendEmail},
		{"проверь почту", IntentCheckEmail},
		{"есть новые письма?", IntentCheckEmail},
		{"как дела?", IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.message))
		})
	}
}

// Matching is substring-based with no negation handling; a negated
// command still classifies by its keywords.
func TestClassifyIgnoresNegation(t *testing.T) {
	assert.Equal(t, IntentCreateTask, Classify("не добавляй задачу"))
}

func TestClassifyOrderCombinedBeforeTask(t *testing.T) {
	// Both the task and the event rules match; the combined rule must
	// win because it is checked first.
	assert.Equal(t, IntentCreateTaskAndEvent, Classify("добавь задачу написать отчет и заблокируй вечер"))
}

func TestClassifySendBeforeCheckEmail(t *testing.T) {
	// "отправь письмо" matches both mail rules; send must win.
	assert.Equal(t, IntentSendEmail, Classify("отправь письмо с отчетом"))
}
