package tools

import (
	"context"
	"time"

	"github.com/martinhq/martin/pkg/martin/tools/calendar"
	"github.com/martinhq/martin/pkg/martin/tools/gmail"
)

// GmailAPI is the slice of the Gmail client the email tools use.
type GmailAPI interface {
	ListMessages(ctx context.Context, query string, maxResults int) (*gmail.ListMessagesResponse, error)
	GetMessage(ctx context.Context, messageID, format string) (*gmail.Message, error)
	Send(ctx context.Context, msg gmail.OutgoingMessage) (*gmail.SendResponse, error)
}

// CalendarAPI is the slice of the Calendar client the scheduling tools use.
type CalendarAPI interface {
	ListEvents(ctx context.Context, timeMin, timeMax time.Time, maxResults int) (*calendar.ListEventsResponse, error)
	CreateEvent(ctx context.Context, event *calendar.Event) (*calendar.Event, error)
}

func (e *Env) Gmail(accessToken string) GmailAPI {
	if e.GmailFactory != nil {
		return e.GmailFactory(accessToken)
	}
	return gmail.NewClient(accessToken)
}

func (e *Env) Calendar(accessToken string) CalendarAPI {
	if e.CalendarFactory != nil {
		return e.CalendarFactory(accessToken)
	}
	return calendar.NewClient(accessToken)
}
