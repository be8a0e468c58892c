// Package launch drives the "download -> spawn -> wait -> upload"
// state machine for a single game invocation, coordinating the sync
// manager, a backend, and the dialog collaborator.
package launch

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog/log"

	"github.com/0x00002a/cinc/pkg/backend"
	"github.com/0x00002a/cinc/pkg/sync"
	"github.com/0x00002a/cinc/pkg/syncmeta"
)

// State names one step of the launch state machine.
type State int

const (
	StateIdle State = iota
	StateResolved
	StateDownloadDone
	StateRunning
	StateUploadDone
	StateDone
	StateUserAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolved:
		return "resolved"
	case StateDownloadDone:
		return "download-done"
	case StateRunning:
		return "running"
	case StateUploadDone:
		return "upload-done"
	case StateDone:
		return "done"
	case StateUserAborted:
		return "user-aborted"
	default:
		return "unknown"
	}
}

// ErrAborted is returned when the user chose to exit at a conflict or
// upload-only confirmation dialog.
var ErrAborted = errors.New("launch: aborted by user")

// Spawner runs the wrapped game to completion and reports its exit
// code. The child is a black box: a non-zero exit does not suppress
// the upload phase, since games routinely exit non-zero on clean
// close. This is the fork+exec+wait collaborator the core treats as
// external glue.
type Spawner interface {
	Spawn(argv []string) (exitCode int, err error)
}

// ExecSpawner is the real child-process launcher: it forks argv[0]
// with argv[1:], inheriting stdio and the parent's environment.
type ExecSpawner struct{}

// Spawn runs argv to completion and returns its exit code. err is
// non-nil only when the child could not be started at all; a
// non-zero exit from a child that did start is reported via
// exitCode, not err.
func (ExecSpawner) Spawn(argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, errors.New("launch: no command to run")
	}
	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec // argv is the user's own launch command
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, fmt.Errorf("spawn child: %w", err)
	}
	return 0, nil
}

// Options carries the per-invocation flags that affect orchestration.
type Options struct {
	// UploadOnly skips the download phase entirely after an explicit
	// confirmation dialog.
	UploadOnly bool
	// DebugNoUpload suppresses the upload phase.
	DebugNoUpload bool
	// DryRun suppresses every backend write, including the upload
	// phase. When both DryRun and UploadOnly are set, DryRun wins: the
	// upload-only confirmation is still shown (so the user isn't
	// surprised by a silent no-op), but no backend write occurs.
	DryRun bool
}

// Orchestrator drives one launch's full state machine against a single
// backend and sync manager.
type Orchestrator struct {
	Backend  backend.Port
	Manager  *sync.Manager
	Dialog   Dialog
	Spawner  Spawner
	Hostname string
}

// Run executes the download -> spawn -> wait -> upload sequence for
// argv, the game's own command line. It returns the terminal state
// reached, the child's exit code (0 if the run stopped before the
// child was spawned, the Spawner's reported code if it failed to
// start), and an error if the run did not complete normally.
func (o *Orchestrator) Run(argv []string, opts Options) (State, int, error) {
	if o.Spawner == nil {
		o.Spawner = ExecSpawner{}
	}

	// Resolved: read remote metadata exactly once, whether or not the
	// download phase will be skipped.
	meta, err := o.Backend.ReadSyncMetadata()
	if err != nil {
		o.Dialog.ShowError(err)
		return StateIdle, 0, err
	}

	if opts.UploadOnly {
		confirmed, err := o.Dialog.ConfirmUploadOnly()
		if err != nil {
			return StateResolved, 0, err
		}
		if !confirmed {
			return StateUserAborted, 0, ErrAborted
		}
	} else if err := o.downloadPhase(meta); err != nil {
		if errors.Is(err, ErrAborted) {
			return StateUserAborted, 0, err
		}
		return StateResolved, 0, err
	}

	code, spawnErr := o.Spawner.Spawn(argv)
	if spawnErr != nil {
		log.Error().Err(spawnErr).Msg("child process failed to start")
		o.Dialog.ShowError(spawnErr)
	}

	if opts.DryRun {
		log.Info().Msg("dry-run: skipping upload")
		return StateDone, code, nil
	}
	if opts.DebugNoUpload {
		return StateDone, code, nil
	}

	if err := o.uploadPhase(meta); err != nil {
		return StateRunning, code, err
	}
	return StateDone, code, nil
}

// downloadPhase checks version compatibility and conflicts, surfaces
// the conflict dialog if needed, and unpacks the remote archive.
func (o *Orchestrator) downloadPhase(meta *backend.SyncMetadata) error {
	if err := syncmeta.CheckRead(meta); err != nil {
		o.showVersionOrGeneric(err, true)
		return err
	}

	forceOverwrite := false
	skipDownload := false
	if meta != nil {
		issue, err := o.Manager.Conflict(meta)
		if err != nil {
			o.Dialog.ShowError(err)
			return err
		}
		if issue != nil {
			choice, err := o.Dialog.ConfirmConflict(*issue)
			if err != nil {
				return err
			}
			switch choice {
			case ChoiceDownload:
				forceOverwrite = true
			case ChoiceContinue:
				skipDownload = true
			case ChoiceExit:
				return ErrAborted
			}
		}
	}

	if skipDownload {
		return nil
	}
	if err := o.Manager.Download(o.Backend, meta, forceOverwrite); err != nil {
		o.Dialog.ShowError(err)
		return err
	}
	return nil
}

// uploadPhase validates write-compatibility against the metadata read
// at Resolved time, then packs and uploads the current local state.
func (o *Orchestrator) uploadPhase(meta *backend.SyncMetadata) error {
	if err := syncmeta.CheckWrite(meta); err != nil {
		o.showVersionOrGeneric(err, false)
		return err
	}
	if err := o.Manager.Upload(o.Backend, syncmeta.CurrentWriterVersion, o.Hostname); err != nil {
		o.Dialog.ShowError(err)
		return err
	}
	return nil
}

func (o *Orchestrator) showVersionOrGeneric(err error, isRead bool) {
	var incompat *syncmeta.IncompatibleVersionError
	if errors.As(err, &incompat) {
		o.Dialog.ShowIncompatibleVersion(incompat.Remote, isRead)
		return
	}
	o.Dialog.ShowError(err)
}
