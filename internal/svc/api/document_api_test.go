package api_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/mkrupp/underwritepro/internal/domain"
	"github.com/mkrupp/underwritepro/internal/svc/api"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	return img
}

func encode(t *testing.T, enc func(io.Writer, image.Image) error) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, enc(&buf, testImage()))

	return buf.Bytes()
}

func TestPreflight(t *testing.T) {
	t.Parallel()

	documents := api.NewDocumentAPI(&recordingDoer{}, api.DocumentConfig{MaxSize: 1 << 20})

	pngData := encode(t, png.Encode)
	tiffData := encode(t, func(w io.Writer, img image.Image) error { return tiff.Encode(w, img, nil) })
	bmpData := encode(t, bmp.Encode)

	tests := []struct {
		name     string
		filename string
		data     []byte
		mimeType string
		width    int
		err      error
	}{
		{name: "pdf", filename: "statement.PDF", data: []byte("%PDF-1.7\n..."), mimeType: api.MIMETypePDF},
		{name: "png", filename: "scan.png", data: pngData, mimeType: api.MIMETypePNG, width: 4},
		{name: "tiff", filename: "scan.tif", data: tiffData, mimeType: api.MIMETypeTIFF, width: 4},
		{name: "bmp", filename: "scan.bmp", data: bmpData, mimeType: api.MIMETypeBMP, width: 4},
		{name: "empty", filename: "a.pdf", data: nil, err: domain.ErrInvalidDocument},
		{name: "unsupported extension", filename: "a.docx", data: []byte("PK"), err: domain.ErrDocumentTypeNotSupported},
		{name: "header mismatch", filename: "scan.png", data: []byte("%PDF-1.7"), err: domain.ErrInvalidDocument},
		{name: "corrupt image", filename: "scan.png", data: pngData[:12], err: domain.ErrInvalidDocument},
		{name: "webp marker missing", filename: "scan.webp", data: []byte("RIFF\x00\x00\x00\x00WAVEfmt "), err: domain.ErrInvalidDocument},
		{name: "too large", filename: "a.pdf", data: append([]byte("%PDF-"), make([]byte, 1<<20)...), err: domain.ErrInvalidDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			info, err := documents.Preflight(tt.filename, tt.data)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.mimeType, info.ContentType)
			assert.Equal(t, tt.width, info.Width)
			assert.Equal(t, int64(len(tt.data)), info.Size)
		})
	}
}

func TestUpload(t *testing.T) {
	t.Parallel()

	doer := &recordingDoer{responses: map[string]string{
		"POST /api/documents/upload": `{"id":5,"filename":"statement.pdf","document_type":"bank_statement"}`,
		"GET /api/documents":         `[{"id":5,"filename":"statement.pdf"}]`,
	}}
	documents := api.NewDocumentAPI(doer, api.DocumentConfig{})
	ctx := context.Background()

	document, err := documents.Upload(ctx, api.DocumentUpload{
		LoanID:       "3",
		DocumentType: domain.DocumentTypeBankStatement,
		Filename:     "statement.pdf",
		Content:      bytes.NewReader([]byte("%PDF-1.4 body")),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ID("5"), document.ID)
	assert.Equal(t, api.MIMETypePDF, document.ContentType)

	req := doer.last()
	require.NotNil(t, req.File)
	assert.Equal(t, "file", req.File.Param)
	assert.Equal(t, map[string]string{"document_type": "bank_statement", "loan_application_id": "3"}, req.Form)

	listed, err := documents.ListByLoan(ctx, "3")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
	assert.Equal(t, map[string]string{"loan_id": "3"}, doer.last().Query)
}

func TestUploadRejectsBeforeNetwork(t *testing.T) {
	t.Parallel()

	doer := &recordingDoer{}
	documents := api.NewDocumentAPI(doer, api.DocumentConfig{})

	_, err := documents.Upload(context.Background(), api.DocumentUpload{
		LoanID:       "3",
		DocumentType: "selfie",
		Filename:     "statement.pdf",
		Content:      bytes.NewReader([]byte("%PDF-1.4")),
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = documents.Upload(context.Background(), api.DocumentUpload{
		LoanID:       "3",
		DocumentType: domain.DocumentTypeAppraisal,
		Filename:     "appraisal.jpg",
		Content:      bytes.NewReader([]byte("%PDF-1.4")),
	})
	require.ErrorIs(t, err, domain.ErrInvalidDocument)

	assert.Empty(t, doer.requests)
}
