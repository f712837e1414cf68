package api

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // registers the JPEG decoder for image.DecodeConfig
	_ "image/png"  // registers the PNG decoder for image.DecodeConfig
	"io"
	"net/http"

	_ "golang.org/x/image/bmp"  // registers the BMP decoder for image.DecodeConfig
	_ "golang.org/x/image/tiff" // registers the TIFF decoder for image.DecodeConfig
	_ "golang.org/x/image/webp" // registers the WEBP decoder for image.DecodeConfig

	"github.com/mkrupp/underwritepro/internal/domain"
	"github.com/mkrupp/underwritepro/internal/infra/logging"
	"github.com/mkrupp/underwritepro/internal/svc/gateway"
)

const (
	documentsPath      = "/api/documents"
	documentUploadPath = "/api/documents/upload"
)

// DocumentConfig holds configuration of document uploads.
type DocumentConfig struct {
	// MaxSize is the maximum accepted file size in bytes. Default is 20MB.
	MaxSize int64 `env:"MAX_SIZE" default:"20971520"`
}

// DocumentUpload describes a file to attach to a loan application.
type DocumentUpload struct {
	LoanID       domain.ID `json:"loan_application_id" validate:"required"`
	DocumentType string    `json:"document_type"       validate:"required,oneof=tax_return financial_statement bank_statement rent_roll appraisal purchase_contract other"`
	Filename     string    `json:"filename"            validate:"required"`
	Content      io.Reader `json:"-"`
}

// DocumentAPI covers the document endpoints.
type DocumentAPI struct {
	doer Doer
	cfg  DocumentConfig
	log  logging.Logger
}

// NewDocumentAPI creates a DocumentAPI.
func NewDocumentAPI(doer Doer, cfg DocumentConfig) *DocumentAPI {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 20 << 20
	}

	return &DocumentAPI{
		doer: doer,
		cfg:  cfg,
		log:  logging.GetLogger("svc.api.document_api"),
	}
}

// MaxSize returns the maximum accepted file size in bytes.
func (a *DocumentAPI) MaxSize() int64 {
	return a.cfg.MaxSize
}

// Preflight checks a file before upload: size, extension, magic header and, for
// images, that the header decodes. It returns what it learned about the file.
func (a *DocumentAPI) Preflight(filename string, data []byte) (domain.DocumentInfo, error) {
	info := domain.DocumentInfo{Filename: filename, Size: int64(len(data))}

	if info.Size == 0 {
		return info, fmt.Errorf("%w: empty file", domain.ErrInvalidDocument)
	}

	if info.Size > a.cfg.MaxSize {
		return info, fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrInvalidDocument, info.Size, a.cfg.MaxSize)
	}

	mimeType, ok := typeByFilename(filename)
	if !ok {
		return info, fmt.Errorf("%w: %q", domain.ErrDocumentTypeNotSupported, filename)
	}

	if !matchesHeader(mimeType, data) {
		return info, fmt.Errorf("%w: content does not match %s", domain.ErrInvalidDocument, mimeType)
	}

	info.ContentType = mimeType

	if imageTypes[mimeType] {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return info, fmt.Errorf("%w: decode config: %w", domain.ErrInvalidDocument, err)
		}

		info.Width = cfg.Width
		info.Height = cfg.Height
	}

	return info, nil
}

// Upload runs the preflight and sends the file with POST /api/documents/upload.
func (a *DocumentAPI) Upload(ctx context.Context, upload DocumentUpload) (*domain.Document, error) {
	if err := Validate(upload); err != nil {
		return nil, err
	}

	if upload.Content == nil {
		return nil, fmt.Errorf("%w: no content", domain.ErrInvalidDocument)
	}

	data, err := io.ReadAll(io.LimitReader(upload.Content, a.cfg.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	info, err := a.Preflight(upload.Filename, data)
	if err != nil {
		a.log.WarnContext(ctx, "document rejected", "filename", upload.Filename, logging.Err(err))

		return nil, err
	}

	var document domain.Document

	err = a.doer.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   documentUploadPath,
		File:   &gateway.File{Param: "file", Filename: upload.Filename, Reader: bytes.NewReader(data)},
		Form: map[string]string{
			"document_type":       upload.DocumentType,
			"loan_application_id": upload.LoanID.String(),
		},
	}, &document)
	if err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}

	if document.ContentType == "" {
		document.ContentType = info.ContentType
	}

	return &document, nil
}

// ListByLoan calls GET /api/documents?loan_id=.
func (a *DocumentAPI) ListByLoan(ctx context.Context, loanID domain.ID) ([]domain.Document, error) {
	var documents []domain.Document

	if err := get(ctx, a.doer, documentsPath, map[string]string{"loan_id": loanID.String()}, &documents); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	return documents, nil
}
