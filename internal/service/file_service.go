package service

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
	"github.com/noah-isme/unisync-api/pkg/storage"
	"github.com/noah-isme/unisync-api/pkg/validation"
)

// Object kinds embedded in signed download tokens.
const (
	FileKindAttachment = "attachment"
	FileKindAvatar     = "avatar"
	FileKindLetter     = "letter"
)

type objectStorage interface {
	Save(filename string, data []byte) (string, error)
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Read(filename string) ([]byte, error)
	Exists(filename string) bool
	Delete(filename string) error
}

// FileConfig limits uploads.
type FileConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// Upload is a file received from a multipart form.
type Upload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// StoredFile is an object opened for download.
type StoredFile struct {
	Name        string
	ContentType string
	File        *os.File
}

// FileService stores objects and issues signed public URLs for them.
type FileService struct {
	storage objectStorage
	signer  *storage.SignedURLSigner
	config  FileConfig
	logger  *zap.Logger
}

// NewFileService constructs the service.
func NewFileService(store objectStorage, signer *storage.SignedURLSigner, config FileConfig, logger *zap.Logger) *FileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxFileSizeBytes <= 0 {
		config.MaxFileSizeBytes = 10 << 20
	}
	return &FileService{storage: store, signer: signer, config: config, logger: logger}
}

// SaveUpload validates size and sniffed content type, then stores the upload under folder.
func (s *FileService) SaveUpload(folder string, upload Upload) (string, error) {
	if upload.Reader == nil {
		return "", validation.Invalid("file", "file is required")
	}
	if upload.Size > s.config.MaxFileSizeBytes {
		return "", validation.Invalid("file", fmt.Sprintf("file exceeds the %d byte limit", s.config.MaxFileSizeBytes))
	}
	buffered := bufio.NewReaderSize(upload.Reader, 512)
	head, err := buffered.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable upload")
	}
	contentType := http.DetectContentType(head)
	if !s.mimeAllowed(contentType) {
		return "", validation.Invalid("file", fmt.Sprintf("file type %s is not allowed", contentType))
	}

	limited := io.LimitReader(buffered, s.config.MaxFileSizeBytes+1)
	relPath := storage.UniqueName(folder, upload.Filename)
	counter := &countingReader{r: limited}
	if _, err := s.storage.SaveStream(relPath, counter); err != nil {
		_ = s.storage.Delete(relPath)
		return "", appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to store file")
	}
	if counter.n > s.config.MaxFileSizeBytes {
		_ = s.storage.Delete(relPath)
		return "", validation.Invalid("file", fmt.Sprintf("file exceeds the %d byte limit", s.config.MaxFileSizeBytes))
	}
	return relPath, nil
}

// SaveBytes stores data at relPath.
func (s *FileService) SaveBytes(relPath string, data []byte) error {
	if _, err := s.storage.Save(relPath, data); err != nil {
		return appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to store file")
	}
	return nil
}

// Read loads a stored object.
func (s *FileService) Read(relPath string) ([]byte, error) {
	data, err := s.storage.Read(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to read file")
	}
	return data, nil
}

// Exists reports whether relPath is stored.
func (s *FileService) Exists(relPath string) bool {
	return s != nil && relPath != "" && s.storage.Exists(relPath)
}

// Delete removes an object, logging failures.
func (s *FileService) Delete(relPath string) {
	if s == nil || relPath == "" {
		return
	}
	if err := s.storage.Delete(relPath); err != nil {
		s.logger.Warn("failed to delete stored file", zap.String("path", relPath), zap.Error(err))
	}
}

// URL returns a signed public URL for relPath.
func (s *FileService) URL(kind, relPath string) (string, error) {
	if s.signer == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "signed urls are not configured")
	}
	url, err := s.signer.PublicURL(kind, relPath)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign file url")
	}
	return url, nil
}

// OpenToken validates a signed token and opens the referenced object.
func (s *FileService) OpenToken(token string) (*StoredFile, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}
	kind, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "download link is invalid or expired")
	}
	if kind == FileKindLetter {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "letters are downloaded through the leave request")
	}
	if !s.storage.Exists(relPath) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to open file")
	}
	head := make([]byte, 512)
	n, _ := file.Read(head)
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrExternalService.Code, appErrors.ErrExternalService.Status, "failed to read file")
	}
	return &StoredFile{Name: DisplayName(relPath), ContentType: http.DetectContentType(head[:n]), File: file}, nil
}

func (s *FileService) mimeAllowed(contentType string) bool {
	if len(s.config.AllowedMIMEs) == 0 {
		return true
	}
	base := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	for _, allowed := range s.config.AllowedMIMEs {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed == base || (strings.HasSuffix(allowed, "/*") && strings.HasPrefix(base, strings.TrimSuffix(allowed, "*"))) {
			return true
		}
	}
	return false
}

// DisplayName strips the date and uuid prefix added by storage.UniqueName.
func DisplayName(relPath string) string {
	name := path.Base(relPath)
	parts := strings.SplitN(name, "-", 7)
	if len(parts) == 7 && len(parts[0]) == 8 {
		return parts[6]
	}
	return name
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
