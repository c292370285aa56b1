package kb

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Snapshot is the set of Freebase ids in a fixed knowledge base snapshot. Candidates outside it
// are filtered out.
type Snapshot map[string]struct{}

// Contains reports whether the Freebase id is in the snapshot.
func (s Snapshot) Contains(fbID string) bool {
	_, ok := s[fbID]
	return ok
}

// LoadSnapshot reads lines of "fb_id<TAB>dbpedia_uri"; only the first column is used.
func LoadSnapshot(r io.Reader) (Snapshot, error) {
	s := make(Snapshot)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		s[strings.SplitN(line, "\t", 2)[0]] = struct{}{}
	}
	return s, scanner.Err()
}

// LoadSnapshotFile reads a snapshot from a file.
func LoadSnapshotFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadSnapshot(f)
}
