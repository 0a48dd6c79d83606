package ecflow

import (
	"errors"
	"testing"
	"time"

	"github.com/nwpc-oper/workflow-log-collector/pkg/parser"
)

func TestLineParser_Parse(t *testing.T) {
	p := NewLineParser()

	tests := []struct {
		name     string
		line     string
		kind     RecordKind
		nodePath string
		check    func(t *testing.T, r Record)
	}{
		{
			name:     "submitted",
			line:     "LOG:[04:36:51 1.6.2020]  submitted: /path/to/node job_size:1234",
			kind:     KindStatus,
			nodePath: "/path/to/node",
			check: func(t *testing.T, r Record) {
				if s := r.(*StatusRecord).Status; s != StatusSubmitted {
					t.Errorf("Status = %q", s)
				}
			},
		},
		{
			name:     "complete",
			line:     "LOG:[04:40:00 1.6.2020]  complete: /path/to/node",
			kind:     KindStatus,
			nodePath: "/path/to/node",
		},
		{
			name:     "child command",
			line:     "MSG:[04:36:52 1.6.2020] chd:init /path/to/node",
			kind:     KindChild,
			nodePath: "/path/to/node",
			check: func(t *testing.T, r Record) {
				if c := r.(*ChildRecord).Command; c != "init" {
					t.Errorf("Command = %q", c)
				}
			},
		},
		{
			name:     "meter update",
			line:     "LOG:[04:37:00 1.6.2020]  meter: /path/to/node:progress 10",
			kind:     KindOther,
			nodePath: "/path/to/node",
		},
		{
			name:     "user command",
			line:     "MSG:[04:38:00 1.6.2020] --requeue force /path/to/node  :nwp",
			kind:     KindOther,
			nodePath: "/path/to/node",
		},
		{
			name: "server message",
			line: "MSG:[04:39:00 1.6.2020] --sync_full=0 :admin",
			kind: KindOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := p.Parse(tt.line)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if r.Kind() != tt.kind {
				t.Errorf("Kind() = %q, want %q", r.Kind(), tt.kind)
			}
			if r.Header().NodePath != tt.nodePath {
				t.Errorf("NodePath = %q, want %q", r.Header().NodePath, tt.nodePath)
			}
			if tt.check != nil {
				tt.check(t, r)
			}
		})
	}
}

func TestLineParser_ParseErrors(t *testing.T) {
	p := NewLineParser()

	lines := map[string]string{
		"no timestamp":     "submitted: /a",
		"empty body":       "LOG:[04:36:51 1.6.2020]",
		"status no path":   "LOG:[04:36:51 1.6.2020]  submitted:",
		"child no command": "MSG:[04:36:51 1.6.2020] chd:",
	}

	for name, line := range lines {
		t.Run(name, func(t *testing.T) {
			if r, err := p.Parse(line); err == nil {
				t.Errorf("Parse() = %+v, want error", r)
			}
		})
	}

	_, err := p.Parse("garbage")
	if !errors.Is(err, parser.ErrMalformedTimestamp) {
		t.Errorf("error = %v, want ErrMalformedTimestamp", err)
	}
}

func TestRecordHeader_DateTime(t *testing.T) {
	p := NewLineParser()
	r, err := p.ParseLine(parser.LogLine{Content: "  LOG:[00:10:00 2.6.2020]  submitted: /job/fcst  ", LineNum: 42})
	if err != nil {
		t.Fatalf("ParseLine() error = %v", err)
	}

	h := r.Header()
	if h.LineNum != 42 {
		t.Errorf("LineNum = %d, want 42", h.LineNum)
	}
	date, tod := h.DateTime()
	if !date.Equal(time.Date(2020, 6, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", date)
	}
	if tod != 10*time.Minute {
		t.Errorf("time of day = %v, want 10m", tod)
	}
	if h.Raw != "LOG:[00:10:00 2.6.2020]  submitted: /job/fcst" {
		t.Errorf("Raw = %q", h.Raw)
	}
}
