package confirm

// Decision is the answer given to a prompt
type Decision int

const (
	// Undecided means no answer was given and there is no default
	Undecided Decision = iota

	// Accepted is a positive answer
	Accepted

	// Denied is a negative answer
	Denied
)

func (d Decision) String() string {
	return [...]string{
		"undecided",
		"accepted",
		"denied",
	}[d]
}

func (d Decision) IsAccepted() bool {
	return d == Accepted
}

func (d Decision) IsDenied() bool {
	return d == Denied
}
