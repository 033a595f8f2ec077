package im

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Benature/larkgo/lark"
)

// ErrUnsupportedContent means Send could not map the content value to a
// message kind.
var ErrUnsupportedContent = errors.New("im: unsupported content type")

// ErrUploadFailed means an upload was rejected and produced no key.
var ErrUploadFailed = errors.New("im: upload produced no key")

// ImageLike is content that can render itself as a PNG, sent as an image
// message.
type ImageLike interface {
	EncodePNG(w io.Writer) error
}

// TableLike is content that can render itself as an XLSX workbook, sent as a
// file message.
type TableLike interface {
	WriteXLSX(w io.Writer) error
}

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// fileTypeByExt maps an extension to the platform's file_type field;
// everything else uploads as a generic stream.
var fileTypeByExt = map[string]string{
	".opus": "opus",
	".mp4":  "mp4",
	".pdf":  "pdf",
	".doc":  "doc",
	".docx": "doc",
	".xls":  "xls",
	".xlsx": "xls",
	".ppt":  "ppt",
	".pptx": "ppt",
}

// Send dispatches on the content's kind: a string naming an existing file is
// sent as an image or file depending on its extension, any other string as a
// text message; ImageLike renders to PNG and is sent as an image; TableLike
// renders to XLSX and []byte uploads as-is, both sent as files. Anything else
// is ErrUnsupportedContent.
func (m *Messenger) Send(ctx context.Context, content any) (*lark.Envelope, error) {
	switch c := content.(type) {
	case string:
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			if imageExts[strings.ToLower(filepath.Ext(c))] {
				return m.SendImage(ctx, c, "")
			}
			return m.SendFile(ctx, c, "", "")
		}
		return m.SendMessage(ctx, c, SendOptions{})
	case ImageLike:
		var buf bytes.Buffer
		if err := c.EncodePNG(&buf); err != nil {
			return nil, fmt.Errorf("encode image content: %w", err)
		}
		return m.sendImageReader(ctx, &buf, "")
	case TableLike:
		var buf bytes.Buffer
		if err := c.WriteXLSX(&buf); err != nil {
			return nil, fmt.Errorf("encode table content: %w", err)
		}
		return m.sendFileReader(ctx, &buf, "table.xlsx", "xls", "")
	case []byte:
		return m.sendFileReader(ctx, bytes.NewReader(c), "content.bin", "stream", "")
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedContent, content)
	}
}

// UploadImage uploads image bytes and returns the image key. An upload the
// server rejects returns an empty key and no error; the rejection is logged.
func (m *Messenger) UploadImage(ctx context.Context, r io.Reader, fileName string) (string, error) {
	env, err := m.client.PostMultipart(ctx, m.client.URL(imagesPath),
		map[string]string{"image_type": "message"}, "image", fileName, r)
	if err != nil {
		return "", err
	}
	if !env.Ok() {
		m.logger.Warn("image upload rejected", "code", env.Code, "msg", env.Msg)
		return "", nil
	}

	var uploaded struct {
		ImageKey string `json:"image_key"`
	}
	if err := env.DecodeData(&uploaded); err != nil {
		return "", fmt.Errorf("decode image upload response: %w", err)
	}
	return uploaded.ImageKey, nil
}

// UploadImageFile uploads the image at path.
func (m *Messenger) UploadImageFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return m.UploadImage(ctx, f, filepath.Base(path))
}

// UploadFile uploads file bytes under fileName. fileType is the platform
// file_type field; empty means it is derived from the name's extension.
// Same empty-key convention as UploadImage.
func (m *Messenger) UploadFile(ctx context.Context, r io.Reader, fileName, fileType string) (string, error) {
	if fileType == "" {
		fileType = fileTypeByExt[strings.ToLower(filepath.Ext(fileName))]
		if fileType == "" {
			fileType = "stream"
		}
	}

	env, err := m.client.PostMultipart(ctx, m.client.URL(filesPath),
		map[string]string{"file_type": fileType, "file_name": fileName},
		"file", fileName, r)
	if err != nil {
		return "", err
	}
	if !env.Ok() {
		m.logger.Warn("file upload rejected", "code", env.Code, "msg", env.Msg)
		return "", nil
	}

	var uploaded struct {
		FileKey string `json:"file_key"`
	}
	if err := env.DecodeData(&uploaded); err != nil {
		return "", fmt.Errorf("decode file upload response: %w", err)
	}
	return uploaded.FileKey, nil
}

// UploadFileFromPath uploads the file at path, deriving file_type from the
// extension.
func (m *Messenger) UploadFileFromPath(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return m.UploadFile(ctx, f, filepath.Base(path), "")
}

// SendImage uploads the image at path and sends it. receiveID empty means the
// messenger default.
func (m *Messenger) SendImage(ctx context.Context, path, receiveID string) (*lark.Envelope, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return m.sendImageReaderNamed(ctx, f, filepath.Base(path), receiveID)
}

func (m *Messenger) sendImageReader(ctx context.Context, r io.Reader, receiveID string) (*lark.Envelope, error) {
	return m.sendImageReaderNamed(ctx, r, "image.png", receiveID)
}

func (m *Messenger) sendImageReaderNamed(ctx context.Context, r io.Reader, fileName, receiveID string) (*lark.Envelope, error) {
	key, err := m.UploadImage(ctx, r, fileName)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, ErrUploadFailed
	}
	return m.SendMessage(ctx, key, SendOptions{ReceiveID: receiveID, MsgType: MsgTypeImage})
}

// SendFile uploads the file at path and sends it. fileName overrides the
// name shown to the recipient.
func (m *Messenger) SendFile(ctx context.Context, path, receiveID, fileName string) (*lark.Envelope, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	if fileName == "" {
		fileName = filepath.Base(path)
	}
	return m.sendFileReader(ctx, f, fileName, "", receiveID)
}

func (m *Messenger) sendFileReader(ctx context.Context, r io.Reader, fileName, fileType, receiveID string) (*lark.Envelope, error) {
	key, err := m.UploadFile(ctx, r, fileName, fileType)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, ErrUploadFailed
	}
	return m.SendMessage(ctx, key, SendOptions{ReceiveID: receiveID, MsgType: MsgTypeFile})
}
