// Package template resolves Ludusavi-style path patterns such as
// "<xdgData>/save-game/game>.sav" against a concrete environment.
package template

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Info carries every value a pattern placeholder may resolve against.
// Any field left at its zero value is treated as "not available" by the
// variables that depend on it, and resolution fails rather than
// producing an empty-string path segment.
type Info struct {
	WinPrefix   string
	WinUser     string
	BaseDir     string
	Root        string
	StoreUserID string
	HomeDir     string
	XDGConfig   string
	XDGData     string
	InstallDir  string
}

// ErrorKind enumerates the ways resolution can fail.
type ErrorKind int

const (
	// ErrUnknownVariable is returned for a <name> this engine doesn't know.
	ErrUnknownVariable ErrorKind = iota
	// ErrNoClosingDelim is returned for an unterminated "<".
	ErrNoClosingDelim
	// ErrFailedToLocateDir is returned when a host-directory fallback
	// lookup itself fails (e.g. no home directory in the environment).
	ErrFailedToLocateDir
	// ErrVariableNotAvailable is returned when a placeholder depends on
	// an Info field that was left unset for this invocation.
	ErrVariableNotAvailable
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUnknownVariable:
		return "unknown variable"
	case ErrNoClosingDelim:
		return "no closing delimiter"
	case ErrFailedToLocateDir:
		return "failed to locate directory"
	case ErrVariableNotAvailable:
		return "variable not available"
	default:
		return "unknown template error"
	}
}

// Error is returned by Resolve. It carries the offending variable name
// (when one was identified) alongside the Kind so callers can present a
// precise diagnostic rather than a generic failure string.
type Error struct {
	Kind     ErrorKind
	Variable string
}

func (e *Error) Error() string {
	if e.Variable == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %q", e.Kind.String(), e.Variable)
}

func newErr(kind ErrorKind, variable string) *Error {
	return &Error{Kind: kind, Variable: variable}
}

// Resolve substitutes every <var> placeholder in pattern using info,
// scanning left to right for balanced angle-bracket pairs.
func Resolve(pattern string, info Info) (string, error) {
	var out strings.Builder
	rest := pattern
	for {
		start := strings.IndexByte(rest, '<')
		if start < 0 {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:start])
		end := strings.IndexByte(rest[start:], '>')
		if end < 0 {
			return "", newErr(ErrNoClosingDelim, "")
		}
		name := rest[start+1 : start+end]
		value, err := resolveVar(name, info)
		if err != nil {
			return "", err
		}
		out.WriteString(value)
		rest = rest[start+end+1:]
	}
	return out.String(), nil
}

func resolveVar(name string, info Info) (string, error) {
	switch name {
	case "xdgData":
		if info.XDGData != "" {
			return info.XDGData, nil
		}
		if xdg.DataHome == "" {
			return "", newErr(ErrFailedToLocateDir, name)
		}
		return xdg.DataHome, nil
	case "xdgConfig":
		if info.XDGConfig != "" {
			return info.XDGConfig, nil
		}
		if xdg.ConfigHome == "" {
			return "", newErr(ErrFailedToLocateDir, name)
		}
		return xdg.ConfigHome, nil
	case "home":
		if info.HomeDir != "" {
			return info.HomeDir, nil
		}
		if xdg.Home == "" {
			return "", newErr(ErrFailedToLocateDir, name)
		}
		return xdg.Home, nil
	case "winAppData":
		prefix, err := winUserDir(info)
		if err != nil {
			return "", err
		}
		return filepath.Join(prefix, "AppData", "Roaming"), nil
	case "winLocalAppData":
		prefix, err := winUserDir(info)
		if err != nil {
			return "", err
		}
		return filepath.Join(prefix, "AppData", "Local"), nil
	case "winDocuments":
		prefix, err := winUserDir(info)
		if err != nil {
			return "", err
		}
		return filepath.Join(prefix, "Documents"), nil
	case "base":
		if info.BaseDir != "" {
			return info.BaseDir, nil
		}
		root, err := resolveVar("root", info)
		if err != nil {
			return "", err
		}
		game, err := resolveVar("game", info)
		if err != nil {
			return "", err
		}
		return filepath.Join(root, game), nil
	case "root":
		if info.Root == "" {
			return "", newErr(ErrVariableNotAvailable, name)
		}
		return info.Root, nil
	case "storeUserId":
		if info.StoreUserID == "" {
			return "", newErr(ErrVariableNotAvailable, name)
		}
		return info.StoreUserID, nil
	case "game":
		if info.InstallDir == "" {
			return "", newErr(ErrVariableNotAvailable, name)
		}
		return info.InstallDir, nil
	default:
		return "", newErr(ErrUnknownVariable, name)
	}
}

func winUserDir(info Info) (string, error) {
	if info.WinPrefix == "" {
		return "", newErr(ErrVariableNotAvailable, "winPrefix")
	}
	if info.WinUser == "" {
		return "", newErr(ErrVariableNotAvailable, "winUser")
	}
	return filepath.Join(info.WinPrefix, "users", info.WinUser), nil
}
