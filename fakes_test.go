package nativeselection

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"time"
)

// createTestPNG creates a simple test PNG image and returns it as PNG-encoded bytes
func createTestPNG(width, height int, c color.Color) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fakeClipboard is an in-memory clipboard with a revision counter. Every
// write bumps the counter, like the real ones.
type fakeClipboard struct {
	kind  SnapshotKind
	text  string
	image []byte
	seq   int64

	readTextErr error
	writeErr    error
	countErr    error

	writes []string

	// onCount runs one step per ChangeCount call, for copies that land in
	// more than one write. A nil step does nothing.
	onCount []func()
}

func (f *fakeClipboard) ReadText() (string, error) {
	if f.readTextErr != nil {
		return "", f.readTextErr
	}
	if f.kind != SnapshotText {
		return "", ErrNotFound
	}
	return f.text, nil
}

func (f *fakeClipboard) ReadImage() ([]byte, error) {
	if f.kind != SnapshotImage {
		return nil, ErrNotFound
	}
	return f.image, nil
}

func (f *fakeClipboard) WriteText(text string) error {
	f.writes = append(f.writes, "text")
	if f.writeErr != nil {
		return f.writeErr
	}
	f.setText(text)
	return nil
}

func (f *fakeClipboard) WriteImage(img []byte) error {
	f.writes = append(f.writes, "image")
	if f.writeErr != nil {
		return f.writeErr
	}
	f.kind, f.text, f.image = SnapshotImage, "", img
	f.seq++
	return nil
}

func (f *fakeClipboard) Clear() error {
	f.writes = append(f.writes, "clear")
	if f.writeErr != nil {
		return f.writeErr
	}
	f.kind, f.text, f.image = SnapshotEmpty, "", nil
	f.seq++
	return nil
}

func (f *fakeClipboard) ChangeCount() (int64, error) {
	if len(f.onCount) > 0 {
		step := f.onCount[0]
		f.onCount = f.onCount[1:]
		if step != nil {
			step()
		}
	}
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.seq, nil
}

// setText is what the focused application does when it handles a copy.
func (f *fakeClipboard) setText(text string) {
	f.kind, f.text, f.image = SnapshotText, text, nil
	f.seq++
}

// sleepCounter replaces time.Sleep in a RetryPolicy.
type sleepCounter struct {
	slept []time.Duration
}

func (s *sleepCounter) sleep(d time.Duration) {
	s.slept = append(s.slept, d)
}

func instantPolicy(attempts int, s *sleepCounter) RetryPolicy {
	return RetryPolicy{Attempts: attempts, Delay: 20 * time.Millisecond, sleep: s.sleep}
}
