package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abema/go-mp4"
	"github.com/go-audio/wav"
	"github.com/tcolgate/mp3"

	"github.com/imedwei/audio-url-extractor/internal/errs"
)

// Decoder decodes the playback duration of a local audio file.
type Decoder interface {
	Duration(path string) (time.Duration, error)
}

// FormatDecoder selects a container decoder by file extension.
type FormatDecoder struct {
	decoders map[string]Decoder
}

// NewDecoder returns a FormatDecoder for every extension in Extensions.
func NewDecoder() *FormatDecoder {
	return &FormatDecoder{
		decoders: map[string]Decoder{
			".wav": WAVDecoder{},
			".mp3": MP3Decoder{},
			".m4a": MP4Decoder{},
		},
	}
}

// Duration implements Decoder. All failures are of kind errs.KindDecode.
func (d *FormatDecoder) Duration(path string) (time.Duration, error) {
	ext := strings.ToLower(filepath.Ext(path))

	dec, ok := d.decoders[ext]
	if !ok {
		return 0, errs.Newf(errs.KindDecode, "unsupported audio format %q", ext)
	}

	duration, err := dec.Duration(path)
	if err != nil {
		return 0, errs.Wrap(errs.KindDecode, fmt.Sprintf("failed to decode %s", ext), err)
	}
	if duration < 0 {
		return 0, errs.Newf(errs.KindDecode, "negative duration %v", duration)
	}

	return duration, nil
}

// WAVDecoder reads the duration of a RIFF/WAVE file from its fmt and data
// chunk headers.
type WAVDecoder struct{}

// Duration implements Decoder.
func (WAVDecoder) Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := checkWAVChunks(f); err != nil {
		return 0, err
	}

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return 0, errors.New("not a valid WAV file")
	}
	if err := d.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("failed to locate PCM data: %w", err)
	}

	bytesPerSecond := int64(d.AvgBytesPerSec)
	if bytesPerSecond == 0 {
		bytesPerSecond = int64(d.SampleRate) * int64(d.NumChans) * int64(d.BitDepth) / 8
	}
	if bytesPerSecond == 0 {
		return 0, errors.New("WAV header has no byte rate")
	}

	seconds := float64(d.PCMLen()) / float64(bytesPerSecond)
	return time.Duration(seconds * float64(time.Second)), nil
}

// validFmtSizes are the fmt chunk sizes of the PCM, WAVEFORMATEX and
// WAVEFORMATEXTENSIBLE headers.
var validFmtSizes = map[int64]bool{16: true, 18: true, 40: true}

// checkWAVChunks walks the RIFF chunk headers up to the data chunk and
// rejects any declared size that exceeds the rest of the file. The wav
// decoder allocates a chunk's declared size before reading it.
func checkWAVChunks(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	size := info.Size()

	var header [12]byte
	if _, err := f.ReadAt(header[:], 0); err != nil {
		return errors.New("not a valid WAV file")
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return errors.New("not a valid WAV file")
	}

	for off := int64(len(header)); off+8 <= size; {
		var chunk [8]byte
		if _, err := f.ReadAt(chunk[:], off); err != nil {
			return fmt.Errorf("failed to read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		chunkSize := int64(binary.LittleEndian.Uint32(chunk[4:8]))
		off += 8

		if chunkSize > size-off {
			return fmt.Errorf("%q chunk size %d exceeds the remaining %d bytes", id, chunkSize, size-off)
		}
		if id == "fmt " && !validFmtSizes[chunkSize] {
			return fmt.Errorf("invalid fmt chunk size %d", chunkSize)
		}
		if id == "data" {
			return nil
		}

		// Chunks are word aligned
		off += chunkSize + chunkSize%2
	}

	return errors.New("WAV file has no data chunk")
}

// MP3Decoder sums the durations of every MPEG audio frame in the file.
type MP3Decoder struct{}

// Duration implements Decoder.
func (MP3Decoder) Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d := mp3.NewDecoder(bufio.NewReader(f))

	var (
		frame   mp3.Frame
		skipped int
		frames  int
		total   time.Duration
	)
	for {
		if err := d.Decode(&frame, &skipped); err != nil {
			// A truncated trailing frame is common in the wild.
			if errors.Is(err, io.EOF) || (errors.Is(err, io.ErrUnexpectedEOF) && frames > 0) {
				break
			}
			return 0, err
		}
		frames++
		total += frame.Duration()
	}

	if frames == 0 {
		return 0, errors.New("no MPEG audio frames found")
	}

	return total, nil
}

// MP4Decoder reads the movie header of an MP4/M4A container.
type MP4Decoder struct{}

// Duration implements Decoder.
func (MP4Decoder) Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := mp4.Probe(f)
	if err != nil {
		return 0, err
	}
	if info.Timescale == 0 {
		return 0, errors.New("MP4 movie header has no timescale")
	}

	seconds := float64(info.Duration) / float64(info.Timescale)
	return time.Duration(seconds * float64(time.Second)), nil
}
