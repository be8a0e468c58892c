package launch

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/0x00002a/cinc/pkg/sync"
)

// ConflictChoice is the user's answer to a detected sync conflict.
type ConflictChoice int

const (
	ChoiceDownload ConflictChoice = iota
	ChoiceContinue
	ChoiceExit
)

// Dialog is the opaque UI collaborator the orchestrator calls into. Any
// renderer satisfying this interface — terminal, graphical, test stub —
// is a valid implementation.
type Dialog interface {
	ConfirmConflict(issue sync.SyncIssueInfo) (ConflictChoice, error)
	ConfirmUploadOnly() (bool, error)
	ShowError(err error)
	ShowIncompatibleVersion(serverVersion string, isRead bool)
}

// TerminalDialog writes prompts to Out and reads answers from In, for
// invocations with no graphical dialog host attached.
type TerminalDialog struct {
	In  io.Reader
	Out io.Writer
}

// NewTerminalDialog builds a Dialog reading from in and writing to out.
func NewTerminalDialog(in io.Reader, out io.Writer) *TerminalDialog {
	return &TerminalDialog{In: in, Out: out}
}

func (d *TerminalDialog) ConfirmConflict(issue sync.SyncIssueInfo) (ConflictChoice, error) {
	fmt.Fprintf(d.Out, "local saves (modified %s) are newer than the remote copy on %q (written %s by %s)\n",
		issue.LocalTime.Format("2006-01-02 15:04:05"), issue.BackendName,
		issue.RemoteTime.Format("2006-01-02 15:04:05"), issue.RemoteLastWriter)
	fmt.Fprint(d.Out, "[d]ownload anyway, [c]ontinue without downloading, or [e]xit? ")
	line, err := readLine(d.In)
	if err != nil {
		return ChoiceExit, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "d", "download":
		return ChoiceDownload, nil
	case "c", "continue":
		return ChoiceContinue, nil
	default:
		return ChoiceExit, nil
	}
}

func (d *TerminalDialog) ConfirmUploadOnly() (bool, error) {
	fmt.Fprint(d.Out, "upload local saves without downloading first? [y/N] ")
	line, err := readLine(d.In)
	if err != nil {
		return false, err
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes", nil
}

func (d *TerminalDialog) ShowError(err error) {
	fmt.Fprintf(d.Out, "error: %v\n", err)
}

func (d *TerminalDialog) ShowIncompatibleVersion(serverVersion string, isRead bool) {
	op := "write"
	if isRead {
		op = "read"
	}
	fmt.Fprintf(d.Out, "incompatible sync metadata version %s: cannot %s, upgrade this tool\n", serverVersion, op)
}

func readLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", nil
}
