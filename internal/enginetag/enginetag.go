// Package enginetag records which storage engine implementation created a
// data directory, so re-opening it with a different engine fails loudly
// instead of each engine misinterpreting the other's on-disk format.
package enginetag

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ignitekv/ignite/pkg/errors"
)

// FileName is the tag file's fixed name within a data directory.
const FileName = ".engine"

// Check compares requested against the engine name recorded in dir's tag
// file. If the tag file doesn't exist yet (a brand new data directory), it
// is created with requested. Returns errors.ErrEngineMismatch (check with
// errors.IsEngineMismatch) when an existing tag disagrees.
func Check(dir, requested string) error {
	path := filepath.Join(dir, FileName)

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return errors.NewEngineError(err, errors.ErrorCodeIO, "failed to read engine tag file").
				WithDataDir(dir)
		}
		if werr := os.WriteFile(path, []byte(requested+"\n"), 0644); werr != nil {
			return errors.NewEngineError(werr, errors.ErrorCodeIO, "failed to write engine tag file").
				WithDataDir(dir).WithRequestedEngine(requested)
		}
		return nil
	}

	actual := strings.TrimSpace(string(raw))
	if actual != requested {
		return errors.NewEngineMismatchError(dir, requested, actual)
	}
	return nil
}
