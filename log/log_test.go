// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package log

import (
	"strings"
	"testing"
)

type capture struct{ lines []string }

func (c *capture) Output(calldepth int, s string) error {
	c.lines = append(c.lines, s)
	return nil
}

func TestLevels(t *testing.T) {
	out := &capture{}
	l := New(out, InfoLevel)
	l.Debugf("hidden %d", 1)
	l.Printf("shown %d", 2)
	l.Errorf("also shown")
	if len(out.lines) != 2 {
		t.Fatalf("got %d lines, want 2: %v", len(out.lines), out.lines)
	}
	if out.lines[0] != "shown 2" {
		t.Errorf("got %q", out.lines[0])
	}
	if l.At(DebugLevel) {
		t.Error("At(DebugLevel) true at InfoLevel")
	}
	if !l.At(ErrorLevel) {
		t.Error("At(ErrorLevel) false at InfoLevel")
	}
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	l.Printf("should not panic")
	l.Debugf("nor this")
	if l.At(ErrorLevel) {
		t.Error("nil logger is at a level")
	}
	if New(&capture{}, OffLevel) != nil {
		t.Error("New with OffLevel is not nil")
	}
}

func TestTee(t *testing.T) {
	out := &capture{}
	l := New(out, DebugLevel).Tee("resolver: ")
	l.Debugf("hit %s", "x")
	if len(out.lines) != 1 || !strings.HasPrefix(out.lines[0], "resolver: ") {
		t.Fatalf("got %v", out.lines)
	}
}
