package consts

const (
	// Blocks (frames) per second of playing time.
	CD_BLOCKS_PER_SECOND = 75

	// Stereo 16-bit samples per second.
	CD_SAMPLE_RATE = 44100

	// Samples per block (44100 / 75).
	CD_SAMPLES_PER_BLOCK = 588

	// Bytes per stereo 16-bit sample.
	CD_BYTES_PER_SAMPLE = 4

	// Raw sector length, also the length of one audio block.
	CD_AUDIO_BLOCK_LEN = 2352

	// User data length of the different sector modes.
	CD_MODE0_BLOCK_LEN       = 2336
	CD_MODE1_BLOCK_LEN       = 2048
	CD_MODE2_BLOCK_LEN       = 2336
	CD_MODE2_FORM1_BLOCK_LEN = 2048
	CD_MODE2_FORM2_BLOCK_LEN = 2324

	// Sector sync pattern, header and XA sub-header lengths.
	CD_SYNC_LEN      = 12
	CD_HEADER_LEN    = 4
	CD_SUBHEADER_LEN = 8

	// Length of a formatted Q sub-channel and of raw P-W sub-channel data per block.
	CD_PQ_SUBCHANNEL_LEN = 16
	CD_Q_SUBCHANNEL_LEN  = 12
	CD_PW_SUBCHANNEL_LEN = 96

	// Shortest allowed track: 4 seconds.
	CD_MIN_TRACK_BLOCKS = 4 * CD_BLOCKS_PER_SECOND

	// Index marks a track may carry in addition to index 1.
	CD_MAX_INDEX_MARKS = 98

	// Highest track number on a disc.
	CD_MAX_TRACKS = 99

	// Offset of LBA 0 from absolute time 00:00:00 (2 seconds).
	CD_LBA_OFFSET = 150

	// ISRC and media catalog number lengths.
	CD_ISRC_LEN    = 12
	CD_CATALOG_LEN = 13

	// CD-TEXT pack geometry.
	CDTEXT_PACK_LEN         = 18
	CDTEXT_PACK_PAYLOAD_LEN = 12
	CDTEXT_MAX_BLOCKS       = 8
	CDTEXT_PACKS_PER_RW     = 4

	// Lead-out track number used in TOC entries.
	CD_LEADOUT_TRACK = 0xAA
)
