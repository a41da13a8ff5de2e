package simpleasset

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// ComputeChecksum returns the hex-encoded SHA-256 digest used as the content
// dedup key.
func ComputeChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ParseSlotPayload converts a raw client string into the SlotPayload union.
// Exactly two shapes are recognized: absolute http(s) URLs become
// ExistingReference, and base64 data URIs ("data:<mime>;base64,<payload>")
// become InlineContent. Anything else fails with ErrInvalidPayloadFormat; no
// further sniffing is attempted.
func ParseSlotPayload(raw string) (SlotPayload, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidPayloadFormat)
	}

	if strings.HasPrefix(raw, "data:") {
		return parseDataURI(raw)
	}

	if u, err := url.Parse(raw); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return ExistingReference{PublicURL: raw}, nil
	}

	return nil, fmt.Errorf("%w: neither reference URL nor data URI", ErrInvalidPayloadFormat)
}

func parseDataURI(raw string) (SlotPayload, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("%w: malformed data URI", ErrInvalidPayloadFormat)
	}

	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, fmt.Errorf("%w: data URI without base64 encoding", ErrInvalidPayloadFormat)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable base64 payload", ErrInvalidPayloadFormat)
	}

	return InlineContent{Data: data, MimeType: mimeType}, nil
}
