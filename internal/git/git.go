package git

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// ChangedFile is one file touched by a diff, with the changed line
// numbers of the new version.
type ChangedFile struct {
	Path         string
	ChangedLines []int
}

// HeadCommit returns the commit hash of HEAD for the repository at root,
// or an empty string when root is not inside a git work tree. Snapshots
// record it as provenance only.
func HeadCommit(root string) string {
	out, err := exec.Command("git", "-C", root, "rev-parse", "HEAD").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// GetChangedFiles diffs the work tree against baseRef and returns the
// touched files with their changed line numbers.
func GetChangedFiles(root, baseRef string) ([]ChangedFile, error) {
	out, err := exec.Command("git", "-C", root, "diff", "-U0", baseRef).Output()
	if err != nil {
		return nil, fmt.Errorf("git diff %s: %w", baseRef, err)
	}
	return parseDiff(out)
}

// hunkHeader matches "@@ -old +newStart,newLen @@". Only the new side
// matters here.
var hunkHeader = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

func parseDiff(output []byte) ([]ChangedFile, error) {
	var changes []ChangedFile
	var current *ChangedFile

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "diff --git") {
			if current != nil {
				changes = append(changes, *current)
			}
			current = nil
			// "diff --git a/old/path b/new/path": keep the new side.
			if fields := strings.Fields(line); len(fields) >= 4 {
				current = &ChangedFile{Path: strings.TrimPrefix(fields[3], "b/")}
			}
			continue
		}
		if current == nil || !strings.HasPrefix(line, "@@") {
			continue
		}

		m := hunkHeader.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		start, _ := strconv.Atoi(m[1])
		count := 1
		if m[2] != "" {
			count, _ = strconv.Atoi(m[2])
		}
		for i := 0; i < count; i++ {
			current.ChangedLines = append(current.ChangedLines, start+i)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if current != nil {
		changes = append(changes, *current)
	}
	return changes, nil
}
