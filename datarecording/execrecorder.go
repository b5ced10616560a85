package datarecording

import (
	"os"
	"strings"
	"time"
)

const execTable = "exec_info"

type execInfo struct {
	Property string
	Value    string
}

// ExecRecorder records how and when the program ran.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []execInfo
}

// NewExecRecorder creates the exec_info table in recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	recorder.CreateTable(execTable, execInfo{})

	return &ExecRecorder{recorder: recorder}
}

// Start notes the start time, the command line and the working directory.
func (e *ExecRecorder) Start() {
	e.add("Start Time", time.Now().Format(time.RFC3339Nano))
	e.add("Command", strings.Join(os.Args, " "))

	if cwd, err := os.Getwd(); err == nil {
		e.add("Working Directory", cwd)
	}
}

// Property adds a free-form property, such as a configuration value.
func (e *ExecRecorder) Property(name, value string) {
	e.add(name, value)
}

// End notes the end time and writes everything to the recorder.
func (e *ExecRecorder) End() {
	e.add("End Time", time.Now().Format(time.RFC3339Nano))

	for _, entry := range e.entries {
		e.recorder.InsertData(execTable, entry)
	}

	e.entries = nil
	e.recorder.Flush()
}

func (e *ExecRecorder) add(property, value string) {
	e.entries = append(e.entries, execInfo{Property: property, Value: value})
}
