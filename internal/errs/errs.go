package errs

import "errors"

var (
	ErrConfiguration = errors.New("configuration error")

	ErrTicketNotFound      = errors.New("ticket not found")
	ErrDuplicateID         = errors.New("ticket id already exists")
	ErrTicketAlreadyClosed = errors.New("ticket already closed")

	// ErrUnsupportedContent возвращается для типа сообщения, который некуда переслать.
	ErrUnsupportedContent = errors.New("unsupported content type")

	// ErrTransport означает сбой мессенджера (сеть, таймаут, ответ API).
	ErrTransport = errors.New("transport failure")
)
