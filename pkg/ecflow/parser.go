package ecflow

import (
	"fmt"
	"strings"

	"github.com/nwpc-oper/workflow-log-collector/pkg/parser"
)

const childPrefix = "chd:"

// LineParser converts ecFlow log lines into records.
type LineParser struct{}

// NewLineParser creates a line parser.
func NewLineParser() *LineParser {
	return &LineParser{}
}

// Parse converts a single line into a record.
// Returns an error if the line carries no valid timestamp or no content.
func (p *LineParser) Parse(line string) (Record, error) {
	return p.ParseLine(parser.LogLine{Content: line})
}

// ParseLine converts a numbered line into a record.
func (p *LineParser) ParseLine(line parser.LogLine) (Record, error) {
	raw := strings.TrimSpace(line.Content)

	ts, err := parser.TimestampOf(raw)
	if err != nil {
		return nil, err
	}

	// TimestampOf succeeded, so the closing bracket exists.
	body := strings.TrimSpace(raw[strings.IndexByte(raw, ']')+1:])
	if body == "" {
		return nil, fmt.Errorf("line %d: no content after timestamp", line.LineNum)
	}

	header := RecordHeader{
		Timestamp: ts,
		LineNum:   line.LineNum,
		Raw:       raw,
	}

	if strings.HasPrefix(body, childPrefix) {
		fields := strings.Fields(body[len(childPrefix):])
		if len(fields) == 0 {
			return nil, fmt.Errorf("line %d: child command without name", line.LineNum)
		}
		header.NodePath = firstNodePath(fields[1:])
		return &ChildRecord{RecordHeader: header, Command: fields[0]}, nil
	}

	if i := strings.Index(body, ":"); i > 0 {
		status := NodeStatus(body[:i])
		if status.Valid() {
			fields := strings.Fields(body[i+1:])
			if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
				return nil, fmt.Errorf("line %d: %s without node path", line.LineNum, status)
			}
			header.NodePath = fields[0]
			return &StatusRecord{RecordHeader: header, Status: status}, nil
		}
	}

	header.NodePath = firstNodePath(strings.Fields(body))
	return &OtherRecord{RecordHeader: header, Message: body}, nil
}

// firstNodePath returns the first token that looks like a node path,
// stripping any ":attribute" suffix (meters, events, labels).
func firstNodePath(fields []string) string {
	for _, f := range fields {
		if !strings.HasPrefix(f, "/") {
			continue
		}
		if i := strings.IndexByte(f, ':'); i > 0 {
			return f[:i]
		}
		return f
	}
	return ""
}
