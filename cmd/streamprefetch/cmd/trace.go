package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/streamprefetch/prefetcher"
)

// traceEntry is one replayed access: a block address and the operation
// that produced it.
type traceEntry struct {
	addr       prefetcher.BlockNumber
	accessType prefetcher.AccessType
}

// readTrace parses a plain-text address trace: one access per line,
// "<address>[ <R|W|P>]", address in decimal or 0x-prefixed hex, blank
// lines and '#'-prefixed comments skipped. This format exists only to
// give the CLI something to replay; it makes no attempt to read a real
// simulator's binary trace format.
func readTrace(path string) ([]traceEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []traceEntry

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		addr, err := strconv.ParseInt(fields[0], 0, 64)
		if err != nil {
			return nil, fmt.Errorf("trace line %d: %w", lineNo, err)
		}

		accessType := prefetcher.AccessLoad
		if len(fields) > 1 {
			switch strings.ToUpper(fields[1]) {
			case "W":
				accessType = prefetcher.AccessStore
			case "P":
				accessType = prefetcher.AccessPrefetch
			}
		}

		entries = append(entries, traceEntry{
			addr:       prefetcher.BlockNumber(addr),
			accessType: accessType,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
