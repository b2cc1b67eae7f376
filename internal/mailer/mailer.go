package mailer

// Mailer delivers templated mail to members, such as ticket confirmations
// after a booking and receipts after a membership purchase. templateFile names
// a template under templates/.
type Mailer interface {
	Send(recipient, templateFile string, data any) error
}
