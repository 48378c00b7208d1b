// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package log implements the leveled logging used by the DSDL front
// end. As with Go's standard log package, it defines a standard
// logger available as a package global and via package functions. The
// front end logs build and resolution traces at debug level; it never
// logs definition errors, which are reported through the error values
// instead.
package log

import (
	"fmt"
	"log"
	"os"
)

// Level defines the level of logging. Higher levels are more
// verbose.
type Level int

const (
	// OffLevel turns logging off.
	OffLevel Level = iota
	// ErrorLevel outputs only error messages.
	ErrorLevel
	// InfoLevel is the standard reporting level.
	InfoLevel
	// DebugLevel outputs detailed tracing of parsing, resolution and
	// type building.
	DebugLevel
)

// An Outputter receives published log messages. Go's *log.Logger
// implements Outputter.
type Outputter interface {
	Output(calldepth int, s string) error
}

// A Logger receives log messages at multiple levels, and publishes
// those messages to its outputter if the level is active. Nil
// Loggers ignore all log messages.
type Logger struct {
	// Outputter receives all log messages at or below the Logger's
	// current level.
	Outputter
	// Level defines the publishing level of this Logger.
	Level Level

	prefix string
}

// New creates a new Logger that publishes messages at or below the
// provided level to the provided outputter.
func New(out Outputter, level Level) *Logger {
	if level == OffLevel {
		return nil
	}
	return &Logger{Outputter: out, Level: level}
}

// Tee constructs a new logger that prefixes messages with the given
// prefix while sharing the receiver's outputter and level.
func (l *Logger) Tee(prefix string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{Outputter: l.Outputter, Level: l.Level, prefix: l.prefix + prefix}
}

// At tells whether the logger is at or below the provided level.
func (l *Logger) At(level Level) bool {
	return l != nil && l.Level >= level
}

// Printf formats a message in the manner of fmt.Printf and publishes
// it to the logger at InfoLevel.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.printf(InfoLevel, format, args...)
}

// Errorf formats a message in the manner of fmt.Printf and publishes
// it to the logger at ErrorLevel.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.printf(ErrorLevel, format, args...)
}

// Debugf formats a message in the manner of fmt.Printf and publishes
// it to the logger at DebugLevel.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.printf(DebugLevel, format, args...)
}

func (l *Logger) printf(level Level, format string, args ...interface{}) {
	if !l.At(level) {
		return
	}
	l.Output(4, l.prefix+fmt.Sprintf(format, args...))
}

// Std is the standard logger. It is off by default; set Std.Level to
// enable tracing.
var Std = &Logger{
	Outputter: log.New(os.Stderr, "", log.LstdFlags),
	Level:     OffLevel,
}

// At tells whether the standard logger is at or below the provided
// level.
func At(level Level) bool { return Std.At(level) }

// Printf formats a message in the manner of fmt.Printf and publishes
// it to the standard logger at InfoLevel.
func Printf(format string, args ...interface{}) {
	Std.printf(InfoLevel, format, args...)
}

// Errorf formats a message in the manner of fmt.Printf and publishes
// it to the standard logger at ErrorLevel.
func Errorf(format string, args ...interface{}) {
	Std.printf(ErrorLevel, format, args...)
}

// Debugf formats a message in the manner of fmt.Printf and publishes
// it to the standard logger at DebugLevel.
func Debugf(format string, args ...interface{}) {
	Std.printf(DebugLevel, format, args...)
}
