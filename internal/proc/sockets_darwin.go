//go:build darwin

package proc

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"killport/pkg/model"
)

// readSocketTable shells out to lsof. A concrete port is pushed into the
// lsof filter; port 0 lists everything. Without anyState, TCP rows are
// restricted to LISTEN (UDP has no connection state to restrict).
func readSocketTable(port uint16, anyState bool) ([]model.Socket, error) {
	args := []string{"-nP"}
	if port == 0 {
		args = append(args, "-iTCP", "-iUDP")
	} else {
		args = append(args, fmt.Sprintf("-iTCP:%d", port), fmt.Sprintf("-iUDP:%d", port))
	}
	if !anyState {
		args = append(args, "-sTCP:LISTEN")
	}

	out, err := exec.Command("lsof", args...).Output()
	if err != nil {
		// lsof exits 1 when nothing matched, which is not a failure
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 && len(out) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("lsof: %w", err)
	}

	return parseLsofOutput(string(out), port, anyState), nil
}

// parseLsofOutput turns lsof's table into socket records. Expected row:
//
//	COMMAND PID USER FD TYPE DEVICE SIZE/OFF NODE NAME (STATE)
func parseLsofOutput(out string, port uint16, anyState bool) []model.Socket {
	var sockets []model.Socket

	lines := strings.Split(out, "\n")
	startIdx := 0
	if len(lines) > 0 && strings.HasPrefix(lines[0], "COMMAND") {
		startIdx = 1
	}

	for _, line := range lines[startIdx:] {
		fields := strings.Fields(line)
		if len(fields) < 9 {
			continue
		}

		pid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}

		proto := fields[7]
		if proto != "TCP" && proto != "UDP" {
			continue
		}
		if fields[4] == "IPv6" {
			proto += "6"
		}

		state := ""
		if len(fields) > 9 {
			state = strings.Trim(fields[9], "()")
		}
		if state == "" {
			if strings.HasPrefix(proto, "UDP") {
				state = "UNCONN"
			} else {
				state = "UNKNOWN"
			}
		}
		if !anyState && !listenerState(state) {
			continue
		}

		// Established rows carry "local->remote"; only the local end matters.
		name := fields[8]
		if i := strings.Index(name, "->"); i != -1 {
			name = name[:i]
		}

		addr, p := parseSocketAddr(name)
		if p == 0 {
			continue
		}
		if port != 0 && p != port {
			continue
		}

		sockets = append(sockets, model.Socket{
			Protocol: proto,
			Address:  addr,
			Port:     p,
			State:    state,
			PID:      pid,
		})
	}

	return sockets
}

// parseSocketAddr parses addresses like "*:8080", "127.0.0.1:8080",
// "[::1]:8080" and the dot-separated netstat forms "*.8080",
// "127.0.0.1.8080".
func parseSocketAddr(addr string) (string, uint16) {
	// IPv6 format [::]:port or [::1]:port
	if strings.HasPrefix(addr, "[") {
		bracketEnd := strings.LastIndex(addr, "]")
		if bracketEnd == -1 {
			return "", 0
		}
		ip := addr[1:bracketEnd]
		rest := addr[bracketEnd+1:]
		// rest should be ":port" or ".port"
		if len(rest) > 1 && (rest[0] == ':' || rest[0] == '.') {
			if port, err := strconv.ParseUint(rest[1:], 10, 16); err == nil {
				if ip == "" {
					ip = "::"
				}
				return ip, uint16(port)
			}
		}
		return "", 0
	}

	// Wildcard formats "*:8080" or "*.8080"
	if strings.HasPrefix(addr, "*") {
		if len(addr) > 1 && (addr[1] == ':' || addr[1] == '.') {
			if port, err := strconv.ParseUint(addr[2:], 10, 16); err == nil {
				return "0.0.0.0", uint16(port)
			}
		}
		return "", 0
	}

	// IPv4 "127.0.0.1:8080"
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		if port, err := strconv.ParseUint(addr[idx+1:], 10, 16); err == nil {
			return addr[:idx], uint16(port)
		}
	}

	// macOS netstat uses dot-separated: "127.0.0.1.8080"
	if idx := strings.LastIndex(addr, "."); idx != -1 {
		if port, err := strconv.ParseUint(addr[idx+1:], 10, 16); err == nil {
			return addr[:idx], uint16(port)
		}
	}

	return "", 0
}
