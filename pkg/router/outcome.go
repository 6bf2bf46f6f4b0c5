package router

type outcomeKind uint8

const (
	outcomeNext outcomeKind = iota
	outcomeDeny
	outcomeFail
	outcomeRedirect
)

// Outcome is the result of a guard. The zero value advances the navigation.
type Outcome struct {
	kind   outcomeKind
	value  any
	err    error
	target Location
}

// Next advances to the next guard.
func Next() Outcome { return Outcome{} }

// NextWith advances and carries v along. Enter guards use it (through
// EnterWith) to hand over a callback for the instance about to be created.
func NextWith(v any) Outcome { return Outcome{value: v} }

// EnterWith advances and queues fn to run once the entered view is mounted.
func EnterWith(fn EnteredFunc) Outcome { return Outcome{value: fn} }

// Deny aborts the navigation.
func Deny() Outcome { return Outcome{kind: outcomeDeny} }

// Fail aborts the navigation with err. A nil err advances.
func Fail(err error) Outcome {
	if err == nil {
		return Outcome{}
	}
	return Outcome{kind: outcomeFail, err: err}
}

// Redirect aborts the navigation and starts a new one to loc. The new
// navigation replaces the current history entry when loc.Replace is set.
func Redirect(loc Location) Outcome { return Outcome{kind: outcomeRedirect, target: loc} }

// RedirectTo is Redirect for a raw "path?query#hash" string.
func RedirectTo(path string) Outcome { return Redirect(Location{Path: path}) }

// Advances reports whether the outcome lets the navigation continue.
func (o Outcome) Advances() bool { return o.kind == outcomeNext }

// Denied reports whether the guard vetoed the navigation.
func (o Outcome) Denied() bool { return o.kind == outcomeDeny }

// Err returns the failure carried by Fail.
func (o Outcome) Err() error { return o.err }

// Target returns the redirect location and whether the outcome is a redirect.
func (o Outcome) Target() (Location, bool) { return o.target, o.kind == outcomeRedirect }

// Value returns the value carried by NextWith or EnterWith.
func (o Outcome) Value() any { return o.value }

func (o Outcome) enteredFunc() EnteredFunc {
	switch fn := o.value.(type) {
	case EnteredFunc:
		return fn
	case func(Instance):
		return fn
	}
	return nil
}
