package model

// Socket is one row of the kernel's socket table.
type Socket struct {
	Protocol string // TCP, TCP6, UDP, UDP6
	Address  string // 0.0.0.0, 127.0.0.1, ::
	Port     uint16
	State    string // LISTEN, ESTABLISHED, UNCONN, etc.
	Inode    string // correlation key on Linux, empty elsewhere
	PID      int    // owning process when the table reports it in-row, 0 otherwise
}
