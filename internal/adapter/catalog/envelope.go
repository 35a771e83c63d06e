package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mmcdole/vidcat/internal/domain"
)

// payloadKind tags what an API response decoded to after envelope unwrapping
type payloadKind int

const (
	payloadOther  payloadKind = iota // null, number, bool, array
	payloadObject                    // JSON object
	payloadString                    // string (bare JSON string or unparseable gateway body)
)

// payload is the unwrapped response body
type payload struct {
	kind payloadKind
	raw  json.RawMessage // set for payloadObject
	str  string          // set for payloadString
}

// unwrapEnvelope strips an optional gateway envelope.
//
// Rules, in order:
//  1. An object with a "body" member whose value is a JSON string: the
//     string is parsed as JSON; if that fails the string itself is the payload.
//  2. An object with a "body" member of any other type: that value is the payload.
//  3. Anything else is the payload unchanged.
func unwrapEnvelope(data []byte) (payload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return payload{}, fmt.Errorf("empty response body")
	}

	if trimmed[0] != '{' {
		return classify(trimmed)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return payload{}, fmt.Errorf("invalid JSON object: %w", err)
	}

	body, ok := obj["body"]
	if !ok {
		return payload{kind: payloadObject, raw: trimmed}, nil
	}

	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		inner := bytes.TrimSpace([]byte(s))
		if len(inner) > 0 && json.Valid(inner) {
			return classify(inner)
		}
		return payload{kind: payloadString, str: s}, nil
	}

	return classify(body)
}

// classify tags a syntactically valid JSON value
func classify(value []byte) (payload, error) {
	value = bytes.TrimSpace(value)
	if len(value) == 0 {
		return payload{kind: payloadOther}, nil
	}

	switch value[0] {
	case '{':
		if !json.Valid(value) {
			return payload{}, fmt.Errorf("invalid JSON object")
		}
		return payload{kind: payloadObject, raw: value}, nil
	case '"':
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return payload{}, fmt.Errorf("invalid JSON string: %w", err)
		}
		return payload{kind: payloadString, str: s}, nil
	default:
		if !json.Valid(value) {
			return payload{}, fmt.Errorf("invalid JSON value")
		}
		return payload{kind: payloadOther}, nil
	}
}

// listingDTO mirrors the catalog listing wire shape.
// Pointer slices distinguish an absent field from an empty one.
type listingDTO struct {
	Prefix  *string      `json:"prefix"`
	Folders *[]folderDTO `json:"folders"`
	Files   *[]fileDTO   `json:"files"`
}

type folderDTO struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

type fileDTO struct {
	Type string  `json:"type"`
	Key  string  `json:"key"`
	Name string  `json:"name"`
	Size float64 `json:"size"`
}

// decodeListing maps an unwrapped payload to a CatalogListing.
// At least one of "folders" or "files" must be present.
func decodeListing(p payload, requestedPrefix string) (domain.CatalogListing, error) {
	if p.kind != payloadObject {
		return domain.CatalogListing{}, fmt.Errorf("listing is not an object")
	}

	var dto listingDTO
	if err := json.Unmarshal(p.raw, &dto); err != nil {
		return domain.CatalogListing{}, fmt.Errorf("failed to parse listing: %w", err)
	}

	if dto.Folders == nil && dto.Files == nil {
		return domain.CatalogListing{}, fmt.Errorf("listing has neither folders nor files")
	}

	listing := domain.CatalogListing{
		Prefix:  requestedPrefix,
		Folders: []domain.Folder{},
		Files:   []domain.File{},
	}
	if dto.Prefix != nil {
		listing.Prefix = *dto.Prefix
	}

	if dto.Folders != nil {
		for _, f := range *dto.Folders {
			listing.Folders = append(listing.Folders, domain.Folder{
				Name:   f.Name,
				Prefix: f.Prefix,
			})
		}
	}

	if dto.Files != nil {
		for _, f := range *dto.Files {
			listing.Files = append(listing.Files, domain.File{
				Key:       f.Key,
				Name:      f.Name,
				SizeBytes: int64(f.Size),
			})
		}
	}

	return listing, nil
}

// playURLFields lists the accepted URL members in priority order
var playURLFields = []string{"url", "playUrl", "signedUrl"}

// decodePlayURL extracts a playable URL from an unwrapped payload.
// A bare string is the URL; an object exposes it under one of playURLFields.
func decodePlayURL(p payload) (string, error) {
	switch p.kind {
	case payloadString:
		if u := strings.TrimSpace(p.str); u != "" {
			return u, nil
		}
		return "", domain.ErrMissingURL

	case payloadObject:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(p.raw, &obj); err != nil {
			return "", fmt.Errorf("failed to parse play response: %w", err)
		}
		for _, field := range playURLFields {
			raw, ok := obj[field]
			if !ok {
				continue
			}
			var u string
			if err := json.Unmarshal(raw, &u); err != nil {
				continue // Non-string member, try the next name
			}
			if u = strings.TrimSpace(u); u != "" {
				return u, nil
			}
		}
		return "", domain.ErrMissingURL

	default:
		return "", domain.ErrMissingURL
	}
}
