package driver

import (
	"context"
	"fmt"
	"io"

	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/logging"
	"github.com/bgrewell/cdr-kit/pkg/options"
	"github.com/bgrewell/cdr-kit/pkg/subchannel"
	"github.com/bgrewell/cdr-kit/pkg/toc"
	"github.com/bgrewell/cdr-kit/pkg/track"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
)

// State is the position of a Recorder in the disc-at-once sequence.
type State int

const (
	STATE_IDLE State = iota
	STATE_CHECKED
	STATE_INITIALIZED
	STATE_WRITING
	STATE_FINISHED
	STATE_ABORTED
)

var stateNames = map[State]string{
	STATE_IDLE:        "idle",
	STATE_CHECKED:     "checked",
	STATE_INITIALIZED: "initialized",
	STATE_WRITING:     "writing",
	STATE_FINISHED:    "finished",
	STATE_ABORTED:     "aborted",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Blocks written per WriteData call by Record.
const writeChunk = 32

type driveInfoer interface {
	DriveInfo() (*DriveInfo, error)
}

type speedSetter interface {
	SetSpeed(speed int) error
}

// Recorder drives a Writer through Check, Init, Start, Write and Finish. Calls out of order fail
// with ErrInvalidState and leave the state unchanged. Abort is allowed once the recording was
// initialized.
type Recorder struct {
	w     Writer
	opts  *options.Options
	log   *logging.Logger
	state State
	toc   *toc.Toc
	lba   int64
}

// NewRecorder creates a recorder for w.
func NewRecorder(w Writer, opts ...options.Option) *Recorder {
	o := options.Apply(opts...)
	return &Recorder{
		w:    w,
		opts: o,
		log:  logging.NewLogger(o.Logger),
	}
}

// State returns the current state.
func (r *Recorder) State() State {
	return r.state
}

// Lba returns the address of the next block to write.
func (r *Recorder) Lba() int64 {
	return r.lba
}

func (r *Recorder) expect(op string, states ...State) error {
	for _, s := range states {
		if r.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s in state %s", ErrInvalidState, op, r.state)
}

// Check verifies that t can be recorded.
func (r *Recorder) Check(t *toc.Toc) error {
	if err := r.expect("check", STATE_IDLE, STATE_CHECKED); err != nil {
		return err
	}
	if t.TrackCount() == 0 {
		return fmt.Errorf("%w: empty TOC", ErrNoToc)
	}
	if sev, findings := t.Check(); sev >= track.SEVERITY_ERROR {
		for _, f := range findings {
			if f.Severity >= track.SEVERITY_ERROR {
				return fmt.Errorf("%w: %s", ErrTocCheck, f)
			}
		}
	}
	if err := r.w.CheckToc(t); err != nil {
		return err
	}
	r.toc = t
	r.state = STATE_CHECKED
	return nil
}

// Init prepares the device for recording the checked TOC.
func (r *Recorder) Init() error {
	if err := r.expect("init", STATE_CHECKED); err != nil {
		return err
	}
	if err := r.w.InitDao(r.toc); err != nil {
		return err
	}
	r.state = STATE_INITIALIZED
	return nil
}

// Start validates speed and simulation against the drive and starts the recording. The first
// block written afterwards is the start of the pre-gap of track 1 at lba -150.
func (r *Recorder) Start() error {
	if err := r.expect("start", STATE_INITIALIZED); err != nil {
		return err
	}
	if di, ok := r.w.(driveInfoer); ok && (r.opts.Speed > 0 || r.opts.Simulate) {
		info, err := di.DriveInfo()
		if err != nil {
			return fmt.Errorf("cannot read drive capabilities: %w", err)
		}
		if r.opts.Speed > 0 && info.MaxWriteSpeed > 0 && r.opts.Speed > info.MaxWriteSpeed {
			return fmt.Errorf("%w: %dx, maximum is %dx", ErrSpeedNotSupported, r.opts.Speed, info.MaxWriteSpeed)
		}
		if r.opts.Simulate && !info.TestWrite {
			return ErrSimulateNotSupported
		}
	}
	if ss, ok := r.w.(speedSetter); ok {
		if err := ss.SetSpeed(r.opts.Speed); err != nil {
			return fmt.Errorf("cannot set writing speed: %w", err)
		}
	}
	if err := r.w.StartDao(); err != nil {
		return err
	}
	r.lba = -consts.CD_LBA_OFFSET
	r.state = STATE_WRITING
	return nil
}

// Write writes buf as blocks of mode. A partial last block is padded with zeros.
func (r *Recorder) Write(mode trackdata.Mode, buf []byte) error {
	if err := r.expect("write", STATE_WRITING); err != nil {
		return err
	}
	bl := mode.BlockLen()
	blocks := (len(buf) + bl - 1) / bl
	if blocks == 0 {
		return nil
	}
	if rest := len(buf) % bl; rest != 0 {
		padded := make([]byte, blocks*bl)
		copy(padded, buf)
		buf = padded
	}
	if err := r.w.WriteData(mode, r.lba, buf, blocks); err != nil {
		return fmt.Errorf("write of %d blocks at lba %d failed: %w", blocks, r.lba, err)
	}
	r.lba += int64(blocks)
	return nil
}

// Finish completes the recording.
func (r *Recorder) Finish() error {
	if err := r.expect("finish", STATE_WRITING); err != nil {
		return err
	}
	if err := r.w.FinishDao(); err != nil {
		return err
	}
	r.state = STATE_FINISHED
	return nil
}

// Abort cancels the recording and leaves the device in a defined state.
func (r *Recorder) Abort() error {
	if r.state == STATE_ABORTED {
		return nil
	}
	if err := r.expect("abort", STATE_INITIALIZED, STATE_WRITING); err != nil {
		return err
	}
	r.state = STATE_ABORTED
	return r.w.AbortDao()
}

// Record runs the complete sequence for t. The recording is aborted when a step fails or ctx is
// cancelled.
func (r *Recorder) Record(ctx context.Context, t *toc.Toc) (err error) {
	if err := r.Check(t); err != nil {
		return err
	}
	if err := r.Init(); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if aerr := r.Abort(); aerr != nil {
				r.log.Error(aerr, "cannot abort recording")
			}
		}
	}()
	if err := r.Start(); err != nil {
		return err
	}

	total := int64(t.Length()) + consts.CD_LBA_OFFSET
	var done int64
	progress := func(trackNr int) {
		if r.opts.ProgressCallback != nil {
			r.opts.ProgressCallback(trackNr, t.TrackCount(), done, total)
		}
	}

	mode := t.LeadInMode()
	lead := make([]byte, writeChunk*mode.BlockLen())
	for remaining := int64(consts.CD_LBA_OFFSET); remaining > 0; {
		n := int64(writeChunk)
		if remaining < n {
			n = remaining
		}
		if err := r.Write(mode, lead[:n*int64(mode.BlockLen())]); err != nil {
			return err
		}
		remaining -= n
		done += n
	}
	progress(1)

	for nr := 1; nr <= t.TrackCount(); nr++ {
		if err := r.writeTrack(ctx, nr, t.Track(nr), &done, progress); err != nil {
			return err
		}
	}
	return r.Finish()
}

func (r *Recorder) writeTrack(ctx context.Context, nr int, tr *track.Track, done *int64, progress func(int)) error {
	rd := track.NewReader(tr)
	if err := rd.Open(); err != nil {
		return err
	}
	defer rd.Close()

	mode := tr.Mode()
	buf := make([]byte, writeChunk*rd.BlockLen())
	r.log.Debug("writing track", "track", nr, "mode", mode, "lba", r.lba, "length", tr.Length())
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, rerr := io.ReadFull(rd, buf)
		if n > 0 {
			if err := r.Write(mode, buf[:n]); err != nil {
				return err
			}
			*done += int64((n + rd.BlockLen() - 1) / rd.BlockLen())
			progress(nr)
		}
		if rerr == nil {
			continue
		}
		if (rerr == io.EOF || rerr == io.ErrUnexpectedEOF) && rd.Position() == rd.Size() {
			return nil
		}
		if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
			rerr = fmt.Errorf("%w: %d of %d bytes", ErrShortTrackData, rd.Position(), rd.Size())
		}
		return fmt.Errorf("cannot read data of track %d: %w", nr, rerr)
	}
}

// TrackCtl returns the control nibble a track is recorded with.
func TrackCtl(t *track.Track) byte {
	var ctl byte
	f := t.Flags()
	if f.CopyPermitted {
		ctl |= subchannel.CTL_COPY
	}
	if t.IsAudio() {
		if f.PreEmphasis {
			ctl |= subchannel.CTL_PRE_EMPHASIS
		}
		if f.FourChannel {
			ctl |= subchannel.CTL_FOUR_CHANNEL
		}
	} else {
		ctl |= subchannel.CTL_DATA
	}
	return ctl
}

// SessionFormat returns the disc type code of the session as used in the lead-in.
func SessionFormat(t *toc.Toc) byte {
	switch t.Type() {
	case toc.CD_I:
		return 0x10
	case toc.CD_ROM_XA:
		return 0x20
	}
	if t.TrackCount() > 0 && t.Track(1).Mode().IsXA() {
		return 0x20
	}
	return 0x00
}
