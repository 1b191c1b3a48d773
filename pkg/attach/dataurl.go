package attach

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jobease/jobfill/pkg/dom"
)

const defaultMIME = "application/octet-stream"

// ErrBadDataURL is returned for payloads that are not data: URLs.
var ErrBadDataURL = errors.New("malformed data url")

// DecodeDataURL turns data:<mime>;base64,<payload> back into a file named
// name. Non-base64 payloads are percent-decoded.
func DecodeDataURL(dataURL, name string) (dom.File, error) {
	meta, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(strings.ToLower(meta), "data:") {
		return dom.File{}, ErrBadDataURL
	}

	params := strings.Split(meta[len("data:"):], ";")
	mime := strings.TrimSpace(params[0])
	if mime == "" {
		mime = defaultMIME
	}
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	var data []byte
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
		if err != nil {
			return dom.File{}, fmt.Errorf("%w: %v", ErrBadDataURL, err)
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return dom.File{}, fmt.Errorf("%w: %v", ErrBadDataURL, err)
		}
		data = []byte(unescaped)
	}
	return dom.File{Name: name, MIME: mime, Data: data}, nil
}

// EncodeDataURL is the inverse of DecodeDataURL, used when importing
// attachments from disk.
func EncodeDataURL(mime string, data []byte) string {
	if mime == "" {
		mime = defaultMIME
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
