// Package uploader 实现客户端的收据选择与预览管道。
// 它是表单的上游：本地校验只是提升体验，服务端会独立重新校验，
// 这里通过与服务端共享 internal/upload 的规则保证两边判定一致。
package uploader

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"sync"

	"rentbook-go/internal/upload"

	"github.com/disintegration/imaging"
)

// State 是选择管道的主状态机状态。
// 拖拽悬停（Dragging）与主状态正交，单独用布尔位跟踪。
type State int

const (
	StateIdle State = iota
	StateValidating
	StateReading
	StateReady
	StateError
)

// Selection 是读取完成后交给父表单的载荷。
// Size 是原始字节数，Preview 是 data URI。
type Selection struct {
	Data        []byte
	Preview     string
	Previewable bool
	Name        string
	Size        int64
	Type        string
}

// Config 配置选择管道的行为与回调。
type Config struct {
	// AllowedTypes 为空时使用共享的默认允许列表。
	AllowedTypes []string
	// MaxSize 为 0 时使用默认的 10MB 上限。
	MaxSize int64
	// MaxPreviewEdge 是预览图长边的像素上限，0 表示 800。
	MaxPreviewEdge int

	// OnSelect 在读取完成进入 Ready 时携带载荷调用。
	OnSelect func(Selection)
	// OnError 在校验或读取失败时调用，不携带载荷；
	// 具体错误通过 Err() 获取并内联展示。
	OnError func()
	// OnProgress 报告 0..100 的单调递增读取进度，只在完成时到达 100。
	OnProgress func(int)
}

// Handler 跟踪单个收据的选择、校验与读取。
// 同一时刻只处理一个文件，新的选择原子地替换旧的。
type Handler struct {
	cfg Config

	mu        sync.Mutex
	state     State
	dragging  bool
	gen       uint64 // 选择代号，旧代号的读取结果一律丢弃
	err       error
	selection *Selection
	progress  int
	wg        sync.WaitGroup
}

// New 创建一个新的 Handler。
func New(cfg Config) *Handler {
	if len(cfg.AllowedTypes) == 0 {
		cfg.AllowedTypes = upload.AllowedMimeTypes
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = upload.DefaultMaxSize
	}
	if cfg.MaxPreviewEdge <= 0 {
		cfg.MaxPreviewEdge = 800
	}
	return &Handler{cfg: cfg, state: StateIdle}
}

// Select 处理来自文件选择器或拖放的文件。
// 校验同步完成；读取在后台进行，完成后进入 Ready 并触发 OnSelect。
func (h *Handler) Select(name, mime string, size int64, r io.Reader) error {
	return h.handle(name, mime, size, r, h.cfg.AllowedTypes)
}

// SelectFromCamera 处理手持设备相机拍照入口。
// 只接受允许列表中 image/ 开头的子集，其余流程与 Select 完全相同。
func (h *Handler) SelectFromCamera(name, mime string, size int64, r io.Reader) error {
	return h.handle(name, mime, size, r, upload.ImageMimeTypes(h.cfg.AllowedTypes))
}

func (h *Handler) handle(name, mime string, size int64, r io.Reader, allowed []string) error {
	h.mu.Lock()
	h.state = StateValidating
	h.err = nil

	// 先校验再读取：超限或类型不符的文件一个字节都不会被读进内存。
	if err := upload.Validate(upload.Candidate{Name: name, Size: size, MIME: mime}, allowed, h.cfg.MaxSize); err != nil {
		h.state = StateError
		h.err = err
		h.mu.Unlock()
		if h.cfg.OnError != nil {
			h.cfg.OnError()
		}
		return err
	}

	h.gen++
	myGen := h.gen
	h.state = StateReading
	h.progress = 0
	h.wg.Add(1)
	h.mu.Unlock()

	go h.read(myGen, name, mime, size, r)
	return nil
}

// read 在后台读取文件内容并生成预览。
// 完成时如果已有更新的选择开始，本次结果整体丢弃。
func (h *Handler) read(myGen uint64, name, mime string, size int64, r io.Reader) {
	defer h.wg.Done()

	data, readErr := h.readWithProgress(myGen, size, r)

	h.mu.Lock()
	if h.gen != myGen {
		// 过期的读取：期间用户已重新选择或移除，丢弃结果。
		h.mu.Unlock()
		return
	}

	if readErr != nil {
		h.state = StateError
		h.err = fmt.Errorf("error reading file: %w", readErr)
		h.mu.Unlock()
		if h.cfg.OnError != nil {
			h.cfg.OnError()
		}
		return
	}

	kind, _ := upload.KindFromMIME(mime)
	sel := Selection{
		Data:        data,
		Preview:     h.previewDataURI(mime, kind, data),
		Previewable: kind.Previewable(),
		Name:        name,
		Size:        int64(len(data)),
		Type:        mime,
	}
	h.selection = &sel
	h.state = StateReady
	h.progress = 100
	h.mu.Unlock()

	if h.cfg.OnProgress != nil {
		h.cfg.OnProgress(100)
	}
	if h.cfg.OnSelect != nil {
		h.cfg.OnSelect(sel)
	}
}

// readWithProgress 分块读取并报告真实的字节进度，99 封顶，
// 100 只在读取全部完成后由调用方上报。
func (h *Handler) readWithProgress(myGen uint64, size int64, r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 32*1024)
	last := 0

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if size > 0 && h.cfg.OnProgress != nil {
				pct := int(buf.Len() * 99 / int(size))
				if pct > 99 {
					pct = 99
				}
				if pct > last && h.currentGen() == myGen {
					last = pct
					h.cfg.OnProgress(pct)
				}
			}
		}
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (h *Handler) currentGen() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.gen
}

// previewDataURI 把内容编码为 data URI。JPEG/PNG 超过预览边长时先缩小，
// 其余类型（PDF 占位、浏览器无法解码的 HEIC）原样编码。
func (h *Handler) previewDataURI(mime string, kind upload.Kind, data []byte) string {
	if kind == upload.KindJPEG || kind == upload.KindPNG {
		if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
			bounds := img.Bounds()
			if bounds.Dx() > h.cfg.MaxPreviewEdge || bounds.Dy() > h.cfg.MaxPreviewEdge {
				if scaled := h.encodeScaled(img, kind); scaled != nil {
					data = scaled
				}
			}
		}
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func (h *Handler) encodeScaled(img image.Image, kind upload.Kind) []byte {
	scaled := imaging.Fit(img, h.cfg.MaxPreviewEdge, h.cfg.MaxPreviewEdge, imaging.Lanczos)
	var buf bytes.Buffer
	var err error
	if kind == upload.KindPNG {
		err = png.Encode(&buf, scaled)
	} else {
		err = jpeg.Encode(&buf, scaled, nil)
	}
	if err != nil {
		return nil
	}
	return buf.Bytes()
}

// DragEnter 进入拖拽悬停态。
func (h *Handler) DragEnter() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dragging = true
}

// DragLeave 离开拖拽悬停态。
func (h *Handler) DragLeave() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dragging = false
}

// Drop 退出悬停态并把落下的文件送入标准选择管道。
func (h *Handler) Drop(name, mime string, size int64, r io.Reader) error {
	h.mu.Lock()
	h.dragging = false
	h.mu.Unlock()
	return h.Select(name, mime, size, r)
}

// Remove 清空当前选择并回到 Idle。代号递增使仍在读取中的旧选择失效，
// 对应前端重置 input 的 value 以便同一文件可被再次选择。
func (h *Handler) Remove() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gen++
	h.state = StateIdle
	h.err = nil
	h.selection = nil
	h.progress = 0
}

// Wait 阻塞到所有已启动的后台读取结束，供表单提交前和测试使用。
func (h *Handler) Wait() {
	h.wg.Wait()
}

// State 返回当前主状态。
func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// IsDragging 返回是否处于拖拽悬停态。
func (h *Handler) IsDragging() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dragging
}

// Err 返回最近一次校验或读取错误。
func (h *Handler) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Current 返回当前 Ready 的选择，未就绪时为 nil。
func (h *Handler) Current() *Selection {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.selection
}
