package model

// Candidate is a process selected for termination, together with the
// sockets that matched it. One entry per PID, however many sockets it holds.
type Candidate struct {
	PID        int
	Name       string
	Sockets    []Socket
	Supervisor Supervisor
}
