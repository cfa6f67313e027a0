package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bgrewell/cdr-kit/pkg/cdtext"
	"github.com/bgrewell/cdr-kit/pkg/consts"
	"github.com/bgrewell/cdr-kit/pkg/logging"
	"github.com/bgrewell/cdr-kit/pkg/options"
	"github.com/bgrewell/cdr-kit/pkg/toc"
	"github.com/bgrewell/cdr-kit/pkg/trackdata"
)

const (
	// Blocks read per request while extracting.
	readChunk = 26
	// Attempts for a sample read failing with ErrRetry.
	maxReadRetries = 3
)

// AnalyzeDisk collects the track records of a session: start, mode, pre-gaps, index marks and
// ISRC codes. The returned list ends with the lead-out. Every track references dataFile when it
// is not empty.
func AnalyzeDisk(dev Device, session int, dataFile string, opts *options.Options) ([]TrackInfo, error) {
	log := logging.NewLogger(opts.Logger)

	var entries []CdToc
	var err error
	if opts.DriverOptions&OPT_DRV_GET_TOC_GENERIC != 0 {
		entries, err = GetTocGeneric(dev)
	} else {
		entries, err = GetToc(dev, session)
	}
	if err != nil {
		return nil, err
	}

	infos := make([]TrackInfo, len(entries))
	for i, e := range entries {
		infos[i] = TrackInfo{TrackNr: e.Track, Ctl: e.Ctl(), Start: e.Start, Mode: trackdata.MODE_AUDIO}
		if e.Track == consts.CD_LEADOUT_TRACK {
			continue
		}
		if dataFile != "" {
			infos[i].Filename = dataFile
		}
		if e.IsData() {
			mode, err := GetTrackMode(dev, e.Start)
			if err != nil {
				return nil, fmt.Errorf("cannot determine mode of track %d: %w", e.Track, err)
			}
			if mode == trackdata.MODE0 {
				log.Info("cannot determine sector mode, assuming MODE1", "track", e.Track)
				mode = trackdata.MODE1
			}
			infos[i].Mode = rawMode(mode, opts.RawDataReading)
		}
		log.Debug("found track", "track", e.Track, "lba", e.Start, "mode", infos[i].Mode)
	}

	if session == 1 && infos[0].Start > 0 {
		infos[0].Pregap = infos[0].Start
	}

	tracks := len(infos) - 1
	total := infos[tracks].Start - infos[0].Start
	for i := 0; i < tracks; i++ {
		ti := &infos[i]
		next := &infos[i+1]
		if opts.ProgressCallback != nil {
			opts.ProgressCallback(ti.TrackNr, tracks, ti.Start-infos[0].Start, total)
		}

		if opts.FastTocReading {
			if ti.Mode.IsAudio() {
				readIsrc(dev, ti, log)
			}
			continue
		}

		res, err := AnalyzeTrack(dev, opts.Analysis, ti.Mode, ti.TrackNr, ti.Start, next.Start, log)
		if err != nil {
			return nil, fmt.Errorf("cannot analyze track %d: %w", ti.TrackNr, err)
		}
		ti.Indices = res.Indices
		ti.Isrc = res.Isrc
		if res.CtlValid && ti.Mode.IsAudio() {
			ti.Ctl = res.Ctl
		}
		switch {
		case next.TrackNr == consts.CD_LEADOUT_TRACK && !ti.Mode.IsAudio():
			ti.Fill = res.Pregap
		case next.TrackNr != consts.CD_LEADOUT_TRACK:
			next.Pregap = res.Pregap
		}
		if ti.Isrc == "" && ti.Mode.IsAudio() {
			readIsrc(dev, ti, log)
		}
	}
	return infos, nil
}

func readIsrc(dev Device, ti *TrackInfo, log *logging.Logger) {
	isrc, err := dev.ReadIsrc(ti.TrackNr)
	if err != nil {
		log.Debug("cannot read ISRC", "track", ti.TrackNr, "error", err)
		return
	}
	ti.Isrc = isrc
}

func rawMode(mode trackdata.Mode, raw bool) trackdata.Mode {
	if !raw {
		return mode
	}
	if mode == trackdata.MODE1 {
		return trackdata.MODE1_RAW
	}
	return trackdata.MODE2_RAW
}

// ReadDiskToc reconstructs the TOC of a session without reading the track content. Catalog
// number and CD-TEXT are added when the disc carries them.
func ReadDiskToc(dev Device, session int, dataFile string, opts *options.Options) (*toc.Toc, error) {
	infos, err := AnalyzeDisk(dev, session, dataFile, opts)
	if err != nil {
		return nil, err
	}
	return finishToc(dev, infos, opts)
}

// ReadDisk reconstructs the TOC of a session and copies the content of all tracks to dataFile.
func ReadDisk(ctx context.Context, dev Device, session int, dataFile string, opts *options.Options) (*toc.Toc, error) {
	infos, err := AnalyzeDisk(dev, session, dataFile, opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Create(dataFile)
	if err != nil {
		return nil, fmt.Errorf("cannot create data file: %w", err)
	}
	if err := ExtractTracks(ctx, dev, infos, f, opts); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("cannot close data file: %w", err)
	}
	return finishToc(dev, infos, opts)
}

func finishToc(dev Device, infos []TrackInfo, opts *options.Options) (*toc.Toc, error) {
	log := logging.NewLogger(opts.Logger)
	pad := opts.PadFirstPregap || opts.DriverOptions&OPT_DRV_NO_PREGAP_READ != 0

	t, err := BuildToc(infos, pad)
	if err != nil {
		return nil, err
	}
	t.SetLogger(opts.Logger)

	catalog, err := dev.ReadCatalog(infos[0].Start, infos[len(infos)-1].Start)
	switch {
	case err != nil:
		log.Info("cannot read media catalog number", "error", err)
	case catalog != "":
		if err := t.SetCatalog(catalog); err != nil {
			log.Info("ignoring invalid media catalog number", "catalog", catalog, "error", err)
		}
	}

	packs, err := dev.ReadCdTextPacks()
	if err != nil {
		log.Debug("no CD-TEXT data", "error", err)
	} else if len(packs) > 0 {
		ApplyCdText(t, packs, infos[0].TrackNr, log)
	}
	return t, nil
}

// ApplyCdText decodes CD-TEXT packs read from the lead-in and adds the items to t. firstTrack is
// the disc track number of the first track of t.
func ApplyCdText(t *toc.Toc, packs []cdtext.Pack, firstTrack int, log *logging.Logger) {
	d := cdtext.Decode(packs)
	for _, err := range d.Errors {
		log.Info("CD-TEXT", "error", err)
	}
	for block := 0; block < consts.CDTEXT_MAX_BLOCKS; block++ {
		if lang := d.Disc.Language(block); lang >= 0 {
			t.SetCdTextLanguage(block, lang)
		}
	}
	for _, item := range d.Disc.Items() {
		_ = t.AddCdTextItem(0, item)
	}
	for nr, c := range d.Tracks {
		tocNr := nr - firstTrack + 1
		if tocNr < 1 || tocNr > t.TrackCount() {
			log.Info("CD-TEXT for unknown track", "track", nr)
			continue
		}
		for _, item := range c.Items() {
			_ = t.AddCdTextItem(tocNr, item)
		}
	}
}

// ExtractTracks copies the readable content of the tracks to w in the layout BuildToc expects:
// audio tracks as samples including their pre-gap, data tracks as user data without pre-gap and
// fill. BytesWritten of data tracks is updated.
func ExtractTracks(ctx context.Context, dev Device, infos []TrackInfo, w io.Writer, opts *options.Options) error {
	log := logging.NewLogger(opts.Logger)
	pad := opts.PadFirstPregap || opts.DriverOptions&OPT_DRV_NO_PREGAP_READ != 0
	swap := opts.DriverOptions&OPT_DRV_SWAP_READ_SAMPLES != 0
	sr, hasSampleReader := dev.(SampleReader)

	tracks := len(infos) - 1
	total := infos[tracks].Start - infos[0].Start + infos[0].Pregap
	var done int64

	for i := 0; i < tracks; i++ {
		ti := &infos[i]
		next := infos[i+1]
		from := ti.Start
		if ti.Mode.IsAudio() && !(i == 0 && pad) {
			from -= ti.Pregap
		}
		to := next.Start - next.Pregap - ti.Fill
		log.Debug("extracting track", "track", ti.TrackNr, "from", from, "to", to)

		buf := make([]byte, readChunk*consts.CD_AUDIO_BLOCK_LEN)
		for lba := from; lba < to; {
			if err := ctx.Err(); err != nil {
				return err
			}
			n := int64(readChunk)
			if to-lba < n {
				n = to - lba
			}

			var got int
			var err error
			bl := ti.Mode.BlockLen()
			if ti.Mode.IsAudio() {
				if hasSampleReader {
					got, err = readSamplesRetry(sr, lba, buf[:n*consts.CD_AUDIO_BLOCK_LEN], log)
				} else {
					got, err = dev.ReadTrackData(ti.Mode, lba, int(n), buf)
				}
			} else {
				got, err = dev.ReadTrackData(ti.Mode, lba, int(n), buf)
			}
			if err != nil {
				if !ti.Mode.IsAudio() && errors.Is(err, ErrEndOfTrack) {
					log.Info("data track ends early", "track", ti.TrackNr, "lba", lba)
					break
				}
				return fmt.Errorf("cannot read track %d at lba %d: %w", ti.TrackNr, lba, err)
			}
			if got == 0 {
				return &ReadError{Lba: lba, Err: ErrEndOfTrack}
			}

			out := buf[:got*bl]
			if ti.Mode.IsAudio() && swap {
				swapSamples(out)
			}
			if _, err := w.Write(out); err != nil {
				return fmt.Errorf("cannot write track %d: %w", ti.TrackNr, err)
			}
			if !ti.Mode.IsAudio() {
				ti.BytesWritten += int64(len(out))
			}
			lba += int64(got)
			done += int64(got)
			if opts.ProgressCallback != nil {
				opts.ProgressCallback(ti.TrackNr, tracks, done, total)
			}
		}
	}
	return nil
}

// readSamplesRetry reads whole blocks of samples starting at lba and returns the number of blocks.
// Short reads are continued until buf is full or the reader delivers nothing; a result ending
// inside a block fails with ErrPartialBlock.
func readSamplesRetry(sr SampleReader, lba int64, buf []byte, log *logging.Logger) (int, error) {
	first := uint64(lba) * consts.CD_SAMPLES_PER_BLOCK
	want := len(buf) / consts.CD_BYTES_PER_SAMPLE
	read := 0
	for read < want {
		n, err := readSamplesOnce(sr, first+uint64(read), buf[read*consts.CD_BYTES_PER_SAMPLE:], lba, log)
		if err != nil {
			if read > 0 && read%consts.CD_SAMPLES_PER_BLOCK == 0 {
				// the next call reports the error at its own address
				break
			}
			return 0, err
		}
		if n == 0 {
			break
		}
		read += n
	}
	if read%consts.CD_SAMPLES_PER_BLOCK != 0 {
		return 0, &ReadError{Lba: lba + int64(read/consts.CD_SAMPLES_PER_BLOCK), Err: ErrPartialBlock}
	}
	return read / consts.CD_SAMPLES_PER_BLOCK, nil
}

func readSamplesOnce(sr SampleReader, sample uint64, buf []byte, lba int64, log *logging.Logger) (int, error) {
	var err error
	for attempt := 0; attempt < maxReadRetries; attempt++ {
		var n int
		n, err = sr.ReadSamples(sample, buf)
		if err == nil {
			return n, nil
		}
		if !errors.Is(err, ErrRetry) {
			return 0, err
		}
		log.Debug("retrying sample read", "lba", lba, "attempt", attempt+1)
	}
	return 0, &ReadError{Lba: lba, Err: err}
}

func swapSamples(b []byte) {
	for i := 0; i+1 < len(b); i += 2 {
		b[i], b[i+1] = b[i+1], b[i]
	}
}
