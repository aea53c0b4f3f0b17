package trial

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/swing.kinematics/internal/fsutil"
	"github.com/banshee-data/swing.kinematics/internal/monitoring"
)

// Trial is one captured swing file and its identity in the output table.
type Trial struct {
	Path     string
	Metadata Metadata
	// SessionSwing is "<session>_<n>" where n counts the session's swings
	// from 1 in swing-number order.
	SessionSwing string
}

// DiscoverOptions selects the trial files under a root directory.
type DiscoverOptions struct {
	// Extension of trial files, including the dot.
	Extension string
	// ExcludeSuffix skips files whose name ends with ExcludeSuffix+Extension,
	// such as processed model exports stored beside the raw captures.
	ExcludeSuffix string
}

// Discover treats every directory directly below root as one session and
// collects its trial files recursively. Sessions are returned in directory
// order and swings in swing-number order. Two directories whose session ids
// have the same numeric value are an error.
func Discover(fsys fsutil.FileSystem, root string, opts DiscoverOptions) ([]Trial, error) {
	entries, err := fsys.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions in %s: %w", root, err)
	}

	var trials []Trial
	owner := make(map[string]string) // numeric session id -> directory
	for _, e := range entries {
		if !e.IsDir {
			continue
		}
		dir := filepath.Join(root, e.Name)
		session, err := discoverSession(fsys, dir, opts)
		if err != nil {
			return nil, err
		}
		for _, t := range session {
			id, _, _ := strings.Cut(t.SessionSwing, "_")
			if prev, ok := owner[id]; ok && prev != dir {
				return nil, fmt.Errorf("sessions %s and %s share session id %s", prev, dir, id)
			}
			owner[id] = dir
		}
		trials = append(trials, session...)
	}
	return trials, nil
}

func discoverSession(fsys fsutil.FileSystem, dir string, opts DiscoverOptions) ([]Trial, error) {
	files, err := fsutil.Walk(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to walk session %s: %w", dir, err)
	}

	var trials []Trial
	for _, path := range files {
		if !strings.HasSuffix(path, opts.Extension) {
			continue
		}
		if opts.ExcludeSuffix != "" && strings.HasSuffix(path, opts.ExcludeSuffix+opts.Extension) {
			monitoring.Debugf("skipping %s", path)
			continue
		}
		md, err := ParseFileName(path)
		if err != nil {
			return nil, err
		}
		trials = append(trials, Trial{Path: path, Metadata: md})
	}

	sort.SliceStable(trials, func(i, j int) bool {
		return trials[i].Metadata.Swing < trials[j].Metadata.Swing
	})
	for i := range trials {
		session, err := strconv.Atoi(trials[i].Metadata.SessionID)
		if err != nil {
			return nil, fmt.Errorf("trial file %q: session id %q is not numeric", filepath.Base(trials[i].Path), trials[i].Metadata.SessionID)
		}
		trials[i].SessionSwing = fmt.Sprintf("%d_%d", session, i+1)
	}
	if len(trials) > 0 {
		monitoring.Debugf("session %s: %d swings", filepath.Base(dir), len(trials))
	}
	return trials, nil
}
