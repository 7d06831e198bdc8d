//go:build linux

package proc

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"killport/pkg/model"
)

var tcpStateMap = map[string]string{
	"01": "ESTABLISHED",
	"02": "SYN_SENT",
	"03": "SYN_RECV",
	"04": "FIN_WAIT1",
	"05": "FIN_WAIT2",
	"06": "TIME_WAIT",
	"07": "CLOSE",
	"08": "CLOSE_WAIT",
	"09": "LAST_ACK",
	"0A": "LISTEN",
	"0B": "CLOSING",
}

// readSocketTable parses /proc/net/{tcp,tcp6,udp,udp6}. Families that
// cannot be opened are skipped; only when none of them can be read does
// the whole call fail.
func readSocketTable(port uint16, anyState bool) ([]model.Socket, error) {
	tables := []struct {
		path  string
		proto string
		ipv6  bool
	}{
		{"/proc/net/tcp", "TCP", false},
		{"/proc/net/tcp6", "TCP6", true},
		{"/proc/net/udp", "UDP", false},
		{"/proc/net/udp6", "UDP6", true},
	}

	var sockets []model.Socket
	var firstErr error
	opened := 0
	for _, tb := range tables {
		f, err := os.Open(tb.path)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		opened++
		sockets = append(sockets, parseSocketTable(f, tb.proto, tb.ipv6, port, anyState)...)
		f.Close()
	}
	if opened == 0 {
		return nil, fmt.Errorf("read socket tables: %w", firstErr)
	}
	return sockets, nil
}

// parseSocketTable reads one /proc/net table. port 0 keeps every port;
// anyState keeps every socket state instead of listeners only.
func parseSocketTable(r io.Reader, proto string, ipv6 bool, port uint16, anyState bool) []model.Socket {
	var sockets []model.Socket
	udp := strings.HasPrefix(proto, "UDP")

	scanner := bufio.NewScanner(r)
	scanner.Scan() // skip header

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 10 {
			continue
		}

		local := fields[1]
		stateHex := fields[3]
		inode := fields[9]

		addr, p := parseAddr(local, ipv6)
		if p == 0 {
			continue
		}
		if port != 0 && p != port {
			continue
		}

		state := socketState(stateHex, udp)
		if !anyState && !listenerState(state) {
			continue
		}

		sockets = append(sockets, model.Socket{
			Protocol: proto,
			Address:  addr,
			Port:     p,
			State:    state,
			Inode:    inode,
		})
	}
	return sockets
}

// socketState maps the hex state field to a name. A bound UDP socket sits
// in state 07, which is TCP_CLOSE in kernel terms but means "ready to
// receive" for a datagram socket.
func socketState(stateHex string, udp bool) string {
	if udp && stateHex == "07" {
		return "UNCONN"
	}
	if s, ok := tcpStateMap[stateHex]; ok {
		return s
	}
	return "UNKNOWN"
}

func parseAddr(raw string, ipv6 bool) (string, uint16) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 {
		return "", 0
	}
	portVal, _ := strconv.ParseUint(parts[1], 16, 16)
	port := uint16(portVal)

	b, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", port
	}

	if ipv6 {
		if len(b) != 16 {
			return "::", port
		}
		// /proc/net/tcp6 stores IPv6 as 4 little-endian 32-bit groups
		// Reverse bytes within each 4-byte group
		ip := make(net.IP, 16)
		for i := 0; i < 4; i++ {
			ip[i*4+0] = b[i*4+3]
			ip[i*4+1] = b[i*4+2]
			ip[i*4+2] = b[i*4+1]
			ip[i*4+3] = b[i*4+0]
		}
		return ip.String(), port
	}

	if len(b) < 4 {
		return "", port
	}
	ip := strconv.Itoa(int(b[3])) + "." +
		strconv.Itoa(int(b[2])) + "." +
		strconv.Itoa(int(b[1])) + "." +
		strconv.Itoa(int(b[0]))

	return ip, port
}
