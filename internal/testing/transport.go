package testing

import (
	"sync"

	"github.com/bgrewell/cdr-kit/pkg/scsi"
)

// Command is one command seen by a RecordingTransport.
type Command struct {
	CDB []byte
	Out []byte
}

// Op returns the operation code of the command.
func (c Command) Op() byte {
	return c.CDB[0]
}

// Responder answers a command by filling in. A returned error fails the command.
type Responder func(cdb, out, in []byte) error

// RecordingTransport is a scsi.Transport that records every command and answers them with
// registered responders. Commands without a responder succeed and return zeroed data.
type RecordingTransport struct {
	mu         sync.Mutex
	commands   []Command
	responders map[byte]Responder
	closed     int
}

func NewRecordingTransport() *RecordingTransport {
	return &RecordingTransport{responders: map[byte]Responder{}}
}

// Respond registers the responder for an operation code.
func (r *RecordingTransport) Respond(op byte, fn Responder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responders[op] = fn
}

// RespondData answers op with a fixed payload copied into the input buffer.
func (r *RecordingTransport) RespondData(op byte, data []byte) {
	r.Respond(op, func(cdb, out, in []byte) error {
		clear(in)
		copy(in, data)
		return nil
	})
}

// Fail makes every command with operation code op fail with err.
func (r *RecordingTransport) Fail(op byte, err error) {
	r.Respond(op, func(cdb, out, in []byte) error { return err })
}

func (r *RecordingTransport) SendCmd(cdb, out, in []byte) error {
	r.mu.Lock()
	r.commands = append(r.commands, Command{
		CDB: append([]byte(nil), cdb...),
		Out: append([]byte(nil), out...),
	})
	fn := r.responders[cdb[0]]
	r.mu.Unlock()

	if fn == nil {
		clear(in)
		return nil
	}
	return fn(cdb, out, in)
}

func (r *RecordingTransport) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	return nil
}

// Commands returns the recorded commands in order.
func (r *RecordingTransport) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...)
}

// Ops returns the operation codes of the recorded commands in order.
func (r *RecordingTransport) Ops() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]byte, len(r.commands))
	for i, c := range r.commands {
		ops[i] = c.Op()
	}
	return ops
}

// Find returns the recorded commands with operation code op.
func (r *RecordingTransport) Find(op byte) []Command {
	var found []Command
	for _, c := range r.Commands() {
		if c.Op() == op {
			found = append(found, c)
		}
	}
	return found
}

// Reset forgets the recorded commands but keeps the responders.
func (r *RecordingTransport) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = nil
}

// Closed reports how often Close was called.
func (r *RecordingTransport) Closed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

var _ scsi.Transport = (*RecordingTransport)(nil)
