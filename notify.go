package notefold

// Notifier receives the single human-readable notification produced for
// every user-visible outcome: one for each failure, one confirmation for
// each successful create/update/delete. The presentation layer decides how
// to render them.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

// NopNotifier returns a Notifier that drops everything.
func NopNotifier() Notifier { return nopNotifier{} }
