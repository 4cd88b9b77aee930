package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"testing"

	"rentbook-go/internal/model"
	"rentbook-go/internal/repository"
	"rentbook-go/internal/upload"
	"rentbook-go/pkg/storage"

	"rentbook-go/pkg/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	log.Init("error", "json", "")
	os.Exit(m.Run())
}

// ---- 测试替身 ----

type stubFileRepo struct {
	nextID    uint
	files     map[uint]*model.StoredFile
	createErr error
}

func newStubFileRepo() *stubFileRepo {
	return &stubFileRepo{files: map[uint]*model.StoredFile{}}
}

func (r *stubFileRepo) Create(record *model.StoredFile) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	record.ID = r.nextID
	cp := *record
	r.files[record.ID] = &cp
	return nil
}

func (r *stubFileRepo) GetByID(_ context.Context, id uint) (*model.StoredFile, error) {
	record, ok := r.files[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *record
	return &cp, nil
}

func (r *stubFileRepo) Delete(_ context.Context, id uint) error {
	delete(r.files, id)
	return nil
}

func (r *stubFileRepo) FindAll(expenseID *uint) ([]model.StoredFile, error) {
	var out []model.StoredFile
	for _, f := range r.files {
		if expenseID == nil || (f.ExpenseID != nil && *f.ExpenseID == *expenseID) {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *stubFileRepo) FindByExpenseID(expenseID uint) ([]model.StoredFile, error) {
	return r.FindAll(&expenseID)
}

type stubExpenseRepo struct {
	cleared []uint
}

func (r *stubExpenseRepo) Create(*model.Expense) error                  { return nil }
func (r *stubExpenseRepo) FindByID(uint) (*model.Expense, error)        { return nil, gorm.ErrRecordNotFound }
func (r *stubExpenseRepo) FindAll(repository.ExpenseFilter) ([]model.Expense, error) {
	return nil, nil
}
func (r *stubExpenseRepo) FindByPropertyID(uint) ([]model.Expense, error) { return nil, nil }
func (r *stubExpenseRepo) Update(*model.Expense) error                    { return nil }
func (r *stubExpenseRepo) Delete(uint) error                              { return nil }
func (r *stubExpenseRepo) CategorySums(uint) ([]model.CategorySum, error) { return nil, nil }
func (r *stubExpenseRepo) ClearReceiptRef(fileID uint) error {
	r.cleared = append(r.cleared, fileID)
	return nil
}

type fakeConverter struct {
	out []byte
	err error
}

func (c *fakeConverter) ToJPEG([]byte) ([]byte, error) { return c.out, c.err }

// ---- 构造测试数据 ----

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2)), nil))
	return buf.Bytes()
}

// heicBytes 构造最小的 ftyp/heic 文件头，足够被内容嗅探识别为 image/heic。
func heicBytes() []byte {
	b := make([]byte, 24)
	copy(b[0:4], []byte{0, 0, 0, 24})
	copy(b[4:12], "ftypheic")
	copy(b[16:20], "heic")
	return b
}

// makeFileHeader 把字节内容打包成 multipart.FileHeader，模拟 handler 层解析结果。
func makeFileHeader(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	reader := multipart.NewReader(&buf, w.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["file"][0]
}

type fileServiceFixture struct {
	svc         FileService
	fileRepo    *stubFileRepo
	expenseRepo *stubExpenseRepo
	store       *storage.DiskStore
	dir         string
	converter   *fakeConverter
}

func newFileServiceFixture(t *testing.T, maxSize int64, heicEnabled bool) *fileServiceFixture {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewDiskStore(dir)
	require.NoError(t, err)

	fileRepo := newStubFileRepo()
	expenseRepo := &stubExpenseRepo{}
	converter := &fakeConverter{out: jpegBytes(t)}
	return &fileServiceFixture{
		svc:         NewFileService(fileRepo, expenseRepo, store, converter, maxSize, heicEnabled),
		fileRepo:    fileRepo,
		expenseRepo: expenseRepo,
		store:       store,
		dir:         dir,
		converter:   converter,
	}
}

func (f *fileServiceFixture) diskEntries(t *testing.T) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	return entries
}

// ---- 测试 ----

func TestUploadNoFile(t *testing.T) {
	f := newFileServiceFixture(t, 0, false)
	_, err := f.svc.Upload(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestUploadValidPNGWithExpenseLink(t *testing.T) {
	f := newFileServiceFixture(t, 0, false)
	expenseID := uint(7)

	header := makeFileHeader(t, "Receipt 2026.png", "image/png", pngBytes(t))
	record, err := f.svc.Upload(context.Background(), header, &expenseID)
	require.NoError(t, err)

	assert.Equal(t, "image/png", record.MimeType)
	assert.Equal(t, "Receipt 2026.png", record.OriginalFilename)
	assert.Equal(t, "png", record.FileType)
	assert.NotEqual(t, record.OriginalFilename, record.StoredFilename)
	require.NotNil(t, record.ExpenseID)
	assert.Equal(t, uint(7), *record.ExpenseID)
	assert.NotZero(t, record.ID)

	// 二进制和元数据行都存在。
	exists, err := f.store.Exists(context.Background(), record.StoredFilename)
	require.NoError(t, err)
	assert.True(t, exists)
	_, err = f.fileRepo.GetByID(context.Background(), record.ID)
	assert.NoError(t, err)
}

func TestUploadSniffedMimeOverridesDeclared(t *testing.T) {
	f := newFileServiceFixture(t, 0, false)

	// 客户端谎报 Content-Type，服务端按内容判定为 PNG。
	header := makeFileHeader(t, "sneaky.pdf", "application/pdf", pngBytes(t))
	record, err := f.svc.Upload(context.Background(), header, nil)
	require.NoError(t, err)
	assert.Equal(t, "image/png", record.MimeType)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	f := newFileServiceFixture(t, 0, false)

	header := makeFileHeader(t, "anim.gif", "image/gif", []byte("GIF89a\x01\x00\x01\x00"))
	_, err := f.svc.Upload(context.Background(), header, nil)
	assert.ErrorIs(t, err, upload.ErrUnsupportedType)
	assert.Empty(t, f.diskEntries(t))
	assert.Empty(t, f.fileRepo.files)
}

func TestUploadRejectsOversize(t *testing.T) {
	data := pngBytes(t)
	f := newFileServiceFixture(t, int64(len(data)-1), false)

	header := makeFileHeader(t, "big.png", "image/png", data)
	_, err := f.svc.Upload(context.Background(), header, nil)
	assert.ErrorIs(t, err, upload.ErrTooLarge)
	assert.Empty(t, f.diskEntries(t))
}

func TestUploadSizeAtLimitPasses(t *testing.T) {
	data := pngBytes(t)
	f := newFileServiceFixture(t, int64(len(data)), false)

	header := makeFileHeader(t, "fits.png", "image/png", data)
	_, err := f.svc.Upload(context.Background(), header, nil)
	assert.NoError(t, err)
}

func TestUploadHEICRejectedWhenConversionDisabled(t *testing.T) {
	f := newFileServiceFixture(t, 0, false)

	header := makeFileHeader(t, "photo.heic", "image/heic", heicBytes())
	_, err := f.svc.Upload(context.Background(), header, nil)
	assert.ErrorIs(t, err, ErrConversionDisabled)
	assert.Empty(t, f.diskEntries(t))
	assert.Empty(t, f.fileRepo.files)
}

func TestUploadHEICConvertedWhenEnabled(t *testing.T) {
	f := newFileServiceFixture(t, 0, true)

	header := makeFileHeader(t, "photo.heic", "image/heic", heicBytes())
	record, err := f.svc.Upload(context.Background(), header, nil)
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", record.MimeType)
	assert.Equal(t, "photo.jpg", record.OriginalFilename)
	assert.Equal(t, "jpg", record.FileType)
	assert.Equal(t, int64(len(f.converter.out)), record.FileSize)

	// 磁盘上只有转换后的 .jpg，没有 .heic 残留。
	for _, e := range f.diskEntries(t) {
		assert.NotContains(t, e.Name(), ".heic")
	}
}

func TestUploadHEICConversionFailure(t *testing.T) {
	f := newFileServiceFixture(t, 0, true)
	f.converter.err = errors.New("corrupt tiles")

	header := makeFileHeader(t, "photo.heic", "image/heic", heicBytes())
	_, err := f.svc.Upload(context.Background(), header, nil)
	assert.ErrorIs(t, err, ErrConversionFailed)
	assert.Empty(t, f.diskEntries(t))
}

func TestUploadCleansBinaryWhenInsertFails(t *testing.T) {
	f := newFileServiceFixture(t, 0, false)
	f.fileRepo.createErr = errors.New("db gone")

	header := makeFileHeader(t, "r.png", "image/png", pngBytes(t))
	_, err := f.svc.Upload(context.Background(), header, nil)
	require.Error(t, err)
	// 落库失败后，已写入的二进制必须被回收。
	assert.Empty(t, f.diskEntries(t))
}

func TestGetRoundTrip(t *testing.T) {
	f := newFileServiceFixture(t, 0, false)
	data := pngBytes(t)

	header := makeFileHeader(t, "trip.png", "image/png", data)
	record, err := f.svc.Upload(context.Background(), header, nil)
	require.NoError(t, err)

	got, rc, err := f.svc.Get(context.Background(), record.ID)
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data, content)
	assert.Equal(t, "trip.png", got.OriginalFilename)
	assert.Equal(t, int64(len(data)), got.FileSize)
}

func TestGetNotFound(t *testing.T) {
	f := newFileServiceFixture(t, 0, false)
	_, _, err := f.svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestGetMissingBinary(t *testing.T) {
	f := newFileServiceFixture(t, 0, false)

	header := makeFileHeader(t, "gone.png", "image/png", pngBytes(t))
	record, err := f.svc.Upload(context.Background(), header, nil)
	require.NoError(t, err)

	// 外部删掉磁盘文件后，按 id 读取必须报未找到而不是返回空内容。
	require.NoError(t, f.store.Delete(context.Background(), record.StoredFilename))
	_, _, err = f.svc.Get(context.Background(), record.ID)
	assert.ErrorIs(t, err, ErrFileMissingOnDisk)
}

func TestDeleteNotFound(t *testing.T) {
	f := newFileServiceFixture(t, 0, false)
	err := f.svc.Delete(context.Background(), 99)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestDeleteRemovesBinaryRowAndReference(t *testing.T) {
	f := newFileServiceFixture(t, 0, false)

	header := makeFileHeader(t, "d.png", "image/png", pngBytes(t))
	record, err := f.svc.Upload(context.Background(), header, nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), record.ID))

	assert.Empty(t, f.diskEntries(t))
	_, _, err = f.svc.Get(context.Background(), record.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Contains(t, f.expenseRepo.cleared, record.ID)
}

func TestDeleteToleratesMissingBinary(t *testing.T) {
	f := newFileServiceFixture(t, 0, false)

	header := makeFileHeader(t, "d.png", "image/png", pngBytes(t))
	record, err := f.svc.Upload(context.Background(), header, nil)
	require.NoError(t, err)

	// 磁盘文件先被外部删除，删除操作仍应成功并清掉元数据行。
	require.NoError(t, f.store.Delete(context.Background(), record.StoredFilename))
	require.NoError(t, f.svc.Delete(context.Background(), record.ID))
	_, _, err = f.svc.Get(context.Background(), record.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestDeleteByExpenseCollectsLinkedAndReferenced(t *testing.T) {
	f := newFileServiceFixture(t, 0, false)
	expenseID := uint(3)

	linked, err := f.svc.Upload(context.Background(), makeFileHeader(t, "a.png", "image/png", pngBytes(t)), &expenseID)
	require.NoError(t, err)
	referenced, err := f.svc.Upload(context.Background(), makeFileHeader(t, "b.png", "image/png", pngBytes(t)), nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteByExpense(context.Background(), expenseID, &referenced.ID))

	assert.Empty(t, f.fileRepo.files)
	_, _, err = f.svc.Get(context.Background(), linked.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
}
