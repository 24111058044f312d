package orchestrator

import (
	"encoding/base64"
	"encoding/json"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/firasghr/GoSessionEngine/errs"
)

// buildOutboundBody resolves the Open Question of spec.md §7: a structured
// body (anything but a Go string) with no caller Content-Type override is
// JSON-encoded and tagged application/json; a string body is sent as-is,
// defaulting to text/plain when the caller set no Content-Type.
func buildOutboundBody(body interface{}, headers map[string]string) ([]byte, error) {
	if body == nil {
		return nil, nil
	}

	if s, ok := body.(string); ok {
		if !hasContentType(headers) {
			headers["Content-Type"] = "text/plain; charset=utf-8"
		}
		return []byte(s), nil
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, errs.Wrap(errs.BadRequest, "orchestrator: encode request body as JSON", err)
	}
	if !hasContentType(headers) {
		headers["Content-Type"] = "application/json"
	}
	return encoded, nil
}

func hasContentType(headers map[string]string) bool {
	for k := range headers {
		if strings.EqualFold(k, "Content-Type") {
			return true
		}
	}
	return false
}

// decodeInboundBody implements spec.md §4.1's response body interpretation:
// application/json bodies are parsed as structured data; otherwise a valid
// UTF-8 body is returned as a string, and an invalid one is base64-encoded
// and tagged "_binary": true.
func decodeInboundBody(header http.Header, raw []byte) (interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	contentType := header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/json" {
		var decoded interface{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, errs.Wrap(errs.Decode, "orchestrator: decode JSON response body", err)
		}
		return decoded, nil
	}

	if utf8.Valid(raw) {
		return string(raw), nil
	}

	return map[string]interface{}{
		"_binary": true,
		"data":    base64.StdEncoding.EncodeToString(raw),
	}, nil
}
