//go:build windows

package proc

import (
	"errors"
	"fmt"
	"net"
	"unsafe"

	"golang.org/x/sys/windows"

	"killport/pkg/model"
)

var (
	iphlpapi           = windows.NewLazySystemDLL("iphlpapi.dll")
	procGetExtendedTcp = iphlpapi.NewProc("GetExtendedTcpTable")
	procGetExtendedUdp = iphlpapi.NewProc("GetExtendedUdpTable")
)

const (
	afInet  = 2
	afInet6 = 23

	tcpTableOwnerPIDAll = 5
	udpTableOwnerPID    = 1

	errorInsufficientBuffer = 122
)

type mibTCPRowOwnerPID struct {
	State      uint32
	LocalAddr  uint32
	LocalPort  uint32
	RemoteAddr uint32
	RemotePort uint32
	OwningPID  uint32
}

type mibTCP6RowOwnerPID struct {
	LocalAddr     [16]byte
	LocalScopeID  uint32
	LocalPort     uint32
	RemoteAddr    [16]byte
	RemoteScopeID uint32
	RemotePort    uint32
	State         uint32
	OwningPID     uint32
}

type mibUDPRowOwnerPID struct {
	LocalAddr uint32
	LocalPort uint32
	OwningPID uint32
}

type mibUDP6RowOwnerPID struct {
	LocalAddr    [16]byte
	LocalScopeID uint32
	LocalPort    uint32
	OwningPID    uint32
}

// readSocketTable queries the extended TCP and UDP tables for both
// address families. The API always returns the whole table; port and
// state filtering happens here.
func readSocketTable(port uint16, anyState bool) ([]model.Socket, error) {
	var all []model.Socket
	var errs []error

	for _, family := range []uint32{afInet, afInet6} {
		rows, err := readTCPTable(family)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		all = append(all, rows...)
	}
	for _, family := range []uint32{afInet, afInet6} {
		rows, err := readUDPTable(family)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		all = append(all, rows...)
	}

	if len(errs) == 4 {
		return nil, fmt.Errorf("read socket tables: %w", errors.Join(errs...))
	}

	var sockets []model.Socket
	for _, s := range all {
		if s.Port == 0 {
			continue
		}
		if port != 0 && s.Port != port {
			continue
		}
		if !anyState && !listenerState(s.State) {
			continue
		}
		sockets = append(sockets, s)
	}
	return sockets, nil
}

func readTCPTable(family uint32) ([]model.Socket, error) {
	buf, err := queryTable(procGetExtendedTcp, family, tcpTableOwnerPIDAll)
	if err != nil {
		return nil, fmt.Errorf("GetExtendedTcpTable: %w", err)
	}

	base := unsafe.Pointer(&buf[0])
	num := *(*uint32)(base)
	rowPtr := unsafe.Add(base, unsafe.Sizeof(num))

	var sockets []model.Socket
	if family == afInet {
		rowSize := unsafe.Sizeof(mibTCPRowOwnerPID{})
		for i := uint32(0); i < num; i++ {
			row := (*mibTCPRowOwnerPID)(unsafe.Add(rowPtr, uintptr(i)*rowSize))
			sockets = append(sockets, model.Socket{
				Protocol: "TCP",
				Address:  v4String(row.LocalAddr),
				Port:     ntohs(row.LocalPort),
				State:    tcpState(row.State),
				PID:      int(row.OwningPID),
			})
		}
	} else {
		rowSize := unsafe.Sizeof(mibTCP6RowOwnerPID{})
		for i := uint32(0); i < num; i++ {
			row := (*mibTCP6RowOwnerPID)(unsafe.Add(rowPtr, uintptr(i)*rowSize))
			sockets = append(sockets, model.Socket{
				Protocol: "TCP6",
				Address:  net.IP(row.LocalAddr[:]).String(),
				Port:     ntohs(row.LocalPort),
				State:    tcpState(row.State),
				PID:      int(row.OwningPID),
			})
		}
	}
	return sockets, nil
}

func readUDPTable(family uint32) ([]model.Socket, error) {
	buf, err := queryTable(procGetExtendedUdp, family, udpTableOwnerPID)
	if err != nil {
		return nil, fmt.Errorf("GetExtendedUdpTable: %w", err)
	}

	base := unsafe.Pointer(&buf[0])
	num := *(*uint32)(base)
	rowPtr := unsafe.Add(base, unsafe.Sizeof(num))

	var sockets []model.Socket
	if family == afInet {
		rowSize := unsafe.Sizeof(mibUDPRowOwnerPID{})
		for i := uint32(0); i < num; i++ {
			row := (*mibUDPRowOwnerPID)(unsafe.Add(rowPtr, uintptr(i)*rowSize))
			sockets = append(sockets, model.Socket{
				Protocol: "UDP",
				Address:  v4String(row.LocalAddr),
				Port:     ntohs(row.LocalPort),
				State:    "UNCONN",
				PID:      int(row.OwningPID),
			})
		}
	} else {
		rowSize := unsafe.Sizeof(mibUDP6RowOwnerPID{})
		for i := uint32(0); i < num; i++ {
			row := (*mibUDP6RowOwnerPID)(unsafe.Add(rowPtr, uintptr(i)*rowSize))
			sockets = append(sockets, model.Socket{
				Protocol: "UDP6",
				Address:  net.IP(row.LocalAddr[:]).String(),
				Port:     ntohs(row.LocalPort),
				State:    "UNCONN",
				PID:      int(row.OwningPID),
			})
		}
	}
	return sockets, nil
}

// queryTable does the usual two-step size query then fetch.
func queryTable(proc *windows.LazyProc, family uint32, class uintptr) ([]byte, error) {
	var size uint32

	r0, _, _ := proc.Call(
		0,
		uintptr(unsafe.Pointer(&size)),
		0,
		uintptr(family),
		class,
		0,
	)
	if r0 != errorInsufficientBuffer && r0 != 0 {
		return nil, fmt.Errorf("size query failed: %d", r0)
	}
	if size == 0 {
		return nil, fmt.Errorf("size query returned 0")
	}

	buf := make([]byte, size)
	r0, _, e1 := proc.Call(
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&size)),
		0,
		uintptr(family),
		class,
		0,
	)
	if r0 != 0 {
		return nil, fmt.Errorf("table fetch failed: %v (code=%d)", e1, r0)
	}
	return buf, nil
}

func v4String(addr uint32) string {
	return net.IPv4(byte(addr), byte(addr>>8), byte(addr>>16), byte(addr>>24)).String()
}

// ntohs extracts the port from the table's network-order DWORD.
func ntohs(p uint32) uint16 {
	v := uint16(p)
	return (v >> 8) | (v << 8)
}

// tcpState maps MIB_TCP_STATE values to the names used on the other
// platforms.
func tcpState(s uint32) string {
	switch s {
	case 1:
		return "CLOSED"
	case 2:
		return "LISTEN"
	case 3:
		return "SYN_SENT"
	case 4:
		return "SYN_RECV"
	case 5:
		return "ESTABLISHED"
	case 6:
		return "FIN_WAIT1"
	case 7:
		return "FIN_WAIT2"
	case 8:
		return "CLOSE_WAIT"
	case 9:
		return "CLOSING"
	case 10:
		return "LAST_ACK"
	case 11:
		return "TIME_WAIT"
	case 12:
		return "DELETE_TCB"
	default:
		return "UNKNOWN"
	}
}
