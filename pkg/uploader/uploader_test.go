package uploader

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"

	"rentbook-go/internal/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngPayload(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestSelectValidPNGReachesReady(t *testing.T) {
	var got Selection
	var progress []int
	h := New(Config{
		OnSelect:   func(s Selection) { got = s },
		OnProgress: func(p int) { progress = append(progress, p) },
	})

	data := pngPayload(t, 4, 4)
	require.NoError(t, h.Select("receipt.png", upload.MimePNG, int64(len(data)), bytes.NewReader(data)))
	h.Wait()

	assert.Equal(t, StateReady, h.State())
	assert.Equal(t, "receipt.png", got.Name)
	assert.Equal(t, upload.MimePNG, got.Type)
	assert.Equal(t, int64(len(data)), got.Size)
	assert.Equal(t, data, got.Data)
	assert.True(t, got.Previewable)
	assert.True(t, strings.HasPrefix(got.Preview, "data:image/png;base64,"))
	require.NotEmpty(t, progress)
	assert.Equal(t, 100, progress[len(progress)-1])
	for i := 1; i < len(progress); i++ {
		assert.Greater(t, progress[i], progress[i-1])
	}
}

func TestSelectRejectsUnsupportedType(t *testing.T) {
	errored := false
	h := New(Config{OnError: func() { errored = true }})

	err := h.Select("notes.gif", "image/gif", 100, bytes.NewReader(nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, upload.ErrUnsupportedType))
	assert.Equal(t, "Invalid file type. Allowed types: JPEG, PNG, HEIC, HEIF, PDF", err.Error())
	assert.Equal(t, StateError, h.State())
	assert.True(t, errored)
	assert.Nil(t, h.Current())
}

func TestSelectRejectsOversizeWithExactMessage(t *testing.T) {
	h := New(Config{})

	err := h.Select("big.jpg", upload.MimeJPEG, 11*1024*1024, bytes.NewReader(nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, upload.ErrTooLarge))
	assert.Equal(t, "File size exceeds 10MB limit. Your file is 11.00MB", err.Error())
	assert.Equal(t, StateError, h.State())
}

func TestSelectAtLimitPasses(t *testing.T) {
	data := pngPayload(t, 2, 2)
	h := New(Config{MaxSize: int64(len(data))})

	require.NoError(t, h.Select("edge.png", upload.MimePNG, int64(len(data)), bytes.NewReader(data)))
	h.Wait()
	assert.Equal(t, StateReady, h.State())
}

func TestCameraRejectsPDF(t *testing.T) {
	h := New(Config{})

	err := h.SelectFromCamera("scan.pdf", upload.MimePDF, 100, bytes.NewReader(nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, upload.ErrUnsupportedType))

	data := pngPayload(t, 2, 2)
	require.NoError(t, h.SelectFromCamera("shot.png", upload.MimePNG, int64(len(data)), bytes.NewReader(data)))
	h.Wait()
	assert.Equal(t, StateReady, h.State())
}

func TestPDFSelectionNotPreviewable(t *testing.T) {
	h := New(Config{})
	data := []byte("%PDF-1.4 fake")

	require.NoError(t, h.Select("invoice.pdf", upload.MimePDF, int64(len(data)), bytes.NewReader(data)))
	h.Wait()

	sel := h.Current()
	require.NotNil(t, sel)
	assert.False(t, sel.Previewable)
	assert.True(t, strings.HasPrefix(sel.Preview, "data:application/pdf;base64,"))
}

func TestLargeImagePreviewIsDownscaled(t *testing.T) {
	h := New(Config{MaxPreviewEdge: 8})
	data := pngPayload(t, 64, 64)

	require.NoError(t, h.Select("big.png", upload.MimePNG, int64(len(data)), bytes.NewReader(data)))
	h.Wait()

	sel := h.Current()
	require.NotNil(t, sel)
	// 原始数据保持原样，只有预览被缩小。
	assert.Equal(t, data, sel.Data)

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sel.Preview, "data:image/png;base64,"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), 8)
	assert.LessOrEqual(t, img.Bounds().Dy(), 8)
}

// gatedReader 在放行前阻塞首次 Read，用于构造新旧选择交错的场景。
type gatedReader struct {
	gate <-chan struct{}
	once sync.Once
	r    io.Reader
}

func (g *gatedReader) Read(p []byte) (int, error) {
	g.once.Do(func() { <-g.gate })
	return g.r.Read(p)
}

func TestStaleReadDiscardedAfterNewSelection(t *testing.T) {
	var mu sync.Mutex
	var selected []string
	h := New(Config{OnSelect: func(s Selection) {
		mu.Lock()
		defer mu.Unlock()
		selected = append(selected, s.Name)
	}})

	old := pngPayload(t, 2, 2)
	gate := make(chan struct{})
	require.NoError(t, h.Select("old.png", upload.MimePNG, int64(len(old)),
		&gatedReader{gate: gate, r: bytes.NewReader(old)}))

	fresh := pngPayload(t, 4, 4)
	require.NoError(t, h.Select("fresh.png", upload.MimePNG, int64(len(fresh)), bytes.NewReader(fresh)))
	close(gate)
	h.Wait()

	assert.Equal(t, StateReady, h.State())
	require.NotNil(t, h.Current())
	assert.Equal(t, "fresh.png", h.Current().Name)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"fresh.png"}, selected)
}

func TestRemoveResetsToIdleAndDiscardsInflight(t *testing.T) {
	h := New(Config{OnSelect: func(Selection) { t.Error("discarded selection must not fire OnSelect") }})

	data := pngPayload(t, 2, 2)
	gate := make(chan struct{})
	require.NoError(t, h.Select("gone.png", upload.MimePNG, int64(len(data)),
		&gatedReader{gate: gate, r: bytes.NewReader(data)}))

	h.Remove()
	close(gate)
	h.Wait()

	assert.Equal(t, StateIdle, h.State())
	assert.Nil(t, h.Current())
	assert.NoError(t, h.Err())
}

func TestDragStateOrthogonalToSelection(t *testing.T) {
	h := New(Config{})

	h.DragEnter()
	assert.True(t, h.IsDragging())
	h.DragLeave()
	assert.False(t, h.IsDragging())

	data := pngPayload(t, 2, 2)
	h.DragEnter()
	require.NoError(t, h.Drop("dropped.png", upload.MimePNG, int64(len(data)), bytes.NewReader(data)))
	assert.False(t, h.IsDragging())
	h.Wait()
	assert.Equal(t, StateReady, h.State())
}

func TestReadFailureEntersErrorState(t *testing.T) {
	errored := false
	h := New(Config{OnError: func() { errored = true }})

	broken := io.MultiReader(bytes.NewReader([]byte{1, 2}), &failingReader{})
	require.NoError(t, h.Select("torn.png", upload.MimePNG, 1024, broken))
	h.Wait()

	assert.Equal(t, StateError, h.State())
	assert.True(t, errored)
	require.Error(t, h.Err())
	assert.Contains(t, h.Err().Error(), "error reading file")
}

type failingReader struct{}

func (*failingReader) Read([]byte) (int, error) { return 0, errors.New("device gone") }
