package dink

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"
)

// maxPayloadBytes bounds how much of a webhook body is read
const maxPayloadBytes = 1 << 20

// ErrNoPayload is returned when a multipart body has no payload_json part
var ErrNoPayload = errors.New("webhook body has no payload_json part")

// ReadPayload returns the JSON payload of a webhook body. Dink posts
// multipart/form-data with the JSON in a payload_json part (next to any
// screenshot); a plain JSON body is returned as is.
func ReadPayload(contentType string, body io.Reader) ([]byte, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return io.ReadAll(io.LimitReader(body, maxPayloadBytes))
	}

	reader := multipart.NewReader(body, params["boundary"])
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, ErrNoPayload
		}
		if err != nil {
			return nil, fmt.Errorf("read multipart body: %w", err)
		}
		if part.FormName() != "payload_json" {
			_ = part.Close()
			continue
		}
		data, err := io.ReadAll(io.LimitReader(part, maxPayloadBytes))
		_ = part.Close()
		return data, err
	}
}
