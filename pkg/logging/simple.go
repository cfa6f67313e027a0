package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/go-logr/logr"
)

var (
	infoColor  = color.New(color.FgGreen).SprintFunc()
	debugColor = color.New(color.FgCyan).SprintFunc()
	traceColor = color.New(color.FgYellow).SprintFunc()
	errorColor = color.New(color.FgRed).SprintFunc()
)

// SimpleLogSink implements logr.LogSink with human readable, optionally colored output. Sinks
// derived with WithValues, WithName or V share the writer and its lock.
type SimpleLogSink struct {
	writer       io.Writer
	minVerbosity int
	name         string
	keyValues    []interface{}
	mutex        *sync.Mutex
	callDepth    int
	useColor     bool
}

// NewSimpleLogSink creates a new SimpleLogSink.
// If writer is nil, it defaults to os.Stderr so that log output does not mix with command output.
// minVerbosity sets the highest verbosity level that is written.
func NewSimpleLogSink(writer io.Writer, minVerbosity int, useColor bool) *SimpleLogSink {
	if writer == nil {
		writer = os.Stderr
	}
	return &SimpleLogSink{
		writer:       writer,
		minVerbosity: minVerbosity,
		keyValues:    []interface{}{},
		mutex:        &sync.Mutex{},
		useColor:     useColor,
	}
}

func (s *SimpleLogSink) Init(info logr.RuntimeInfo) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.callDepth = info.CallDepth
}

func (s *SimpleLogSink) Enabled(level int) bool {
	return level <= s.minVerbosity
}

func (s *SimpleLogSink) Info(level int, msg string, keysAndValues ...interface{}) {
	if !s.Enabled(level) {
		return
	}
	s.log(false, level, msg, keysAndValues...)
}

func (s *SimpleLogSink) Error(err error, msg string, keysAndValues ...interface{}) {
	kv := append(append([]interface{}{}, keysAndValues...), "error", err)
	s.log(true, 0, msg, kv...)
}

func (s *SimpleLogSink) clone() *SimpleLogSink {
	return &SimpleLogSink{
		writer:       s.writer,
		minVerbosity: s.minVerbosity,
		name:         s.name,
		keyValues:    append([]interface{}{}, s.keyValues...),
		mutex:        s.mutex,
		callDepth:    s.callDepth,
		useColor:     s.useColor,
	}
}

// WithValues returns a sink that adds keysAndValues to every message.
func (s *SimpleLogSink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	c := s.clone()
	c.keyValues = append(c.keyValues, keysAndValues...)
	return c
}

// WithName returns a sink whose messages carry name, joined with dots to earlier names.
func (s *SimpleLogSink) WithName(name string) logr.LogSink {
	c := s.clone()
	if s.name != "" {
		c.name = fmt.Sprintf("%s.%s", s.name, name)
	} else {
		c.name = name
	}
	return c
}

// V returns a copy of the sink. The level is passed to Info by logr.
func (s *SimpleLogSink) V(level int) logr.LogSink {
	return s.clone()
}

func (s *SimpleLogSink) label(isError bool, level int) string {
	var text string
	var paint func(a ...interface{}) string
	switch {
	case isError:
		text, paint = "[ERROR]", errorColor
	case level == LEVEL_INFO:
		text, paint = "[INFO]", infoColor
	case level == LEVEL_DEBUG:
		text, paint = "[DEBUG]", debugColor
	case level == LEVEL_TRACE:
		text, paint = "[TRACE]", traceColor
	default:
		return fmt.Sprintf("[LEVEL %d]", level)
	}
	if s.useColor {
		return paint(text)
	}
	return text
}

func (s *SimpleLogSink) log(isError bool, level int, msg string, keysAndValues ...interface{}) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	line := msg
	if s.name != "" {
		line = fmt.Sprintf("[%s] %s", s.name, msg)
	}
	fmt.Fprintln(s.writer, s.label(isError, level)+" "+line)

	kv := append(append([]interface{}{}, s.keyValues...), keysAndValues...)
	for i := 0; i < len(kv)-1; i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprintf("key%d", i/2)
		}
		fmt.Fprintf(s.writer, "  %s: %v\n", key, kv[i+1])
	}
}

// NewSimpleLogger creates a new logr.Logger using SimpleLogSink.
func NewSimpleLogger(writer io.Writer, minVerbosity int, useColor bool) logr.Logger {
	return logr.New(NewSimpleLogSink(writer, minVerbosity, useColor))
}
