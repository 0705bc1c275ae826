package documents

import (
	"bytes"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"
	"go.uber.org/zap"

	"github.com/spigell/recruit-bot/internal/logger"
)

// Kind is a supported document format.
type Kind string

const (
	KindPDF     Kind = "pdf"
	KindDOCX    Kind = "docx"
	KindDOC     Kind = "doc"
	KindRTF     Kind = "rtf"
	KindODT     Kind = "odt"
	KindText    Kind = "text"
	KindUnknown Kind = "unknown"
)

var kindMimeTypes = map[Kind]string{
	KindPDF:  "application/pdf",
	KindDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	KindDOC:  "application/msword",
	KindRTF:  "application/rtf",
	KindODT:  "application/vnd.oasis.opendocument.text",
	KindText: "text/plain",
}

var mimeKinds = map[string]Kind{
	"application/pdf": KindPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": KindDOCX,
	"application/msword":                      KindDOC,
	"application/rtf":                         KindRTF,
	"text/rtf":                                KindRTF,
	"application/vnd.oasis.opendocument.text": KindODT,
	"text/plain":                              KindText,
}

const odtMimeMarker = "mimetypeapplication/vnd.oasis.opendocument.text"

// DetectKind resolves the document format from the declared content type,
// falling back to the leading bytes when the type is missing or generic.
func DetectKind(contentType string, data []byte) Kind {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if kind, ok := mimeKinds[strings.ToLower(mediaType)]; ok {
			return kind
		}
	}

	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return KindPDF
	case bytes.HasPrefix(data, []byte("{\\rtf")):
		return KindRTF
	case bytes.HasPrefix(data, []byte{0xD0, 0xCF, 0x11, 0xE0}):
		return KindDOC
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		if bytes.Contains(data[:min(len(data), 128)], []byte(odtMimeMarker)) {
			return KindODT
		}
		return KindDOCX
	case len(data) > 0 && utf8.Valid(data):
		return KindText
	}
	return KindUnknown
}

type convertFunc func(r io.Reader, mimeType string) (string, error)

func docconvConvert(r io.Reader, mimeType string) (string, error) {
	res, err := docconv.Convert(r, mimeType, false)
	if err != nil {
		return "", err
	}
	return res.Body, nil
}

// Extractor turns document bytes into plain text.
type Extractor struct {
	convert convertFunc
	logger  *zap.Logger
}

func NewExtractor(log *zap.Logger) *Extractor {
	return &Extractor{
		convert: docconvConvert,
		logger:  logger.WithFields(log).Named("extractor"),
	}
}

// Extract returns the document text. It never fails: unsupported formats,
// conversion errors and converter panics all yield an empty string.
func (e *Extractor) Extract(data []byte, kind Kind) (text string) {
	if len(data) == 0 {
		return ""
	}

	if kind == KindText {
		return strings.TrimSpace(strings.ToValidUTF8(string(data), ""))
	}

	mimeType, ok := kindMimeTypes[kind]
	if !ok {
		e.logger.Warn("unsupported document format", zap.String("kind", string(kind)))
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("document conversion panicked", zap.String("kind", string(kind)), zap.Any("panic", r))
			text = ""
		}
	}()

	body, err := e.convert(bytes.NewReader(data), mimeType)
	if err != nil {
		e.logger.Warn("document conversion failed", zap.String("kind", string(kind)), zap.Error(err))
		return ""
	}

	return strings.TrimSpace(strings.ToValidUTF8(body, ""))
}

// ExtractBlob detects the blob's format and extracts its text.
func (e *Extractor) ExtractBlob(blob *Blob) string {
	if blob == nil {
		return ""
	}
	return e.Extract(blob.Data, DetectKind(blob.ContentType, blob.Data))
}

func (k Kind) String() string { return string(k) }
