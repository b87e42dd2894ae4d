//go:build linux

package linuxinput

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/travisseymour/exptbimanual/internal/core/response"

	evdev "github.com/holoplot/go-evdev"
	"golang.org/x/sys/unix"
)

// KeyName returns the kernel name of an EV_KEY code, e.g. "KEY_SPACE".
func KeyName(code uint16) string {
	name := evdev.CodeName(evdev.EV_KEY, evdev.EvCode(code))
	if name != "" {
		return name
	}
	return "KEY_" + strconv.Itoa(int(code))
}

// ParseToken validates a response token as the capture threads would
// produce it: "1".."3" for mouse buttons, otherwise a key name with or
// without the KEY_ prefix. Mouse tokens share their spelling with the digit
// keys. It returns the normalized token.
func ParseToken(value string) (string, error) {
	token := response.NormalizeToken(value)
	if token == "" {
		return "", fmt.Errorf("response token is empty")
	}
	switch token {
	case "1", "2", "3":
		return token, nil
	}
	if _, ok := evdev.KEYFromString["KEY_"+token]; ok {
		return token, nil
	}
	if _, ok := evdev.KEYFromString[token]; ok {
		return token, nil
	}
	return "", fmt.Errorf("unknown response %q: use key names like A, SPACE, KEY_LEFT or mouse buttons 1-3", value)
}

// ParseTokens validates a comma separated token list.
func ParseTokens(raw string) ([]string, error) {
	var tokens []string
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		token, err := ParseToken(part)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

// MonotonicSeconds reads CLOCK_MONOTONIC, the clock the kernel stamps input
// events with.
func MonotonicSeconds() float64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return float64(ts.Sec) + float64(ts.Nsec)/1e9
}

// CodeFromName resolves a kernel key name such as "KEY_LEFTCTRL" or
// "BTN_RIGHT".
func CodeFromName(name string) (uint16, bool) {
	code, ok := evdev.KEYFromString[strings.ToUpper(strings.TrimSpace(name))]
	return uint16(code), ok
}
