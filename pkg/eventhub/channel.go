package eventhub

import (
	"fmt"
	"strconv"
	"strings"
)

const partitionsSegment = "Partitions"

// ChannelPath is a parsed channel path. Partition is -1 unless the path pins
// messages to one partition with hub/Partitions/<id>.
type ChannelPath struct {
	Hub       string
	Partition int32
}

// Pinned reports whether the path targets a single partition.
func (p ChannelPath) Pinned() bool {
	return p.Partition >= 0
}

func (p ChannelPath) String() string {
	if p.Pinned() {
		return PartitionPath(p.Hub, p.Partition)
	}
	return p.Hub
}

// PartitionPath returns hub/Partitions/<id>.
func PartitionPath(hub string, partition int32) string {
	return fmt.Sprintf("%s/%s/%d", hub, partitionsSegment, partition)
}

// ParseChannelPath recognises "hub" and "hub/Partitions/<id>".
// Anything else containing a '/' is reported as ErrInvalidPath.
func ParseChannelPath(path string) (ChannelPath, error) {
	if path == "" {
		return ChannelPath{}, &ConfigurationError{Field: "channel path", Err: ErrEmptyField}
	}
	parts := strings.Split(path, "/")
	switch len(parts) {
	case 1:
		return ChannelPath{Hub: parts[0], Partition: -1}, nil
	case 3:
		if parts[0] == "" || !strings.EqualFold(parts[1], partitionsSegment) {
			break
		}
		if !isDigits(parts[2]) {
			break
		}
		id, err := strconv.ParseInt(parts[2], 10, 32)
		if err != nil {
			break
		}
		return ChannelPath{Hub: parts[0], Partition: int32(id)}, nil
	}
	return ChannelPath{}, &ConfigurationError{
		Field: "channel path",
		Err:   fmt.Errorf("%w: %q", ErrInvalidPath, path),
	}
}

// isDigits reports whether s is non-empty and made of ASCII digits only, so
// signs and spaces that strconv would accept are rejected.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
