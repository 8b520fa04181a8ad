package client

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
)

// Request describes one backend call. Body is encoded as JSON unless it is a
// *Multipart. Encoding happens per attempt, so a Request can be sent again.
type Request struct {
	Method string
	Path   string
	Body   any
	Header http.Header
}

// Multipart is a form body with one file part. The file is held in memory so
// the request can be replayed after a token refresh.
type Multipart struct {
	Fields    map[string]string
	FileField string
	FileName  string
	File      []byte
}

func (m *Multipart) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range m.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if m.FileField != "" {
		part, err := w.CreateFormFile(m.FileField, m.FileName)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(m.File); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// encodeBody returns the body reader and the content type to announce; an
// empty content type means none should be set.
func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *Multipart:
		return b.encode()
	case json.RawMessage:
		return bytes.NewReader(b), "application/json", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}
