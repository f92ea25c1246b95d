package interfaces

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Mode selects how a stream is opened. The tokens mirror the conventional
// fopen-style mode strings: "r"/"rb" for reading, "w"/"wb" for writing,
// "a"/"ab" for appending. Text modes treat content as UTF-8 encoded text;
// binary modes pass bytes through untouched.
type Mode string

const (
	ModeRead         Mode = "r"
	ModeReadBinary   Mode = "rb"
	ModeWrite        Mode = "w"
	ModeWriteBinary  Mode = "wb"
	ModeAppend       Mode = "a"
	ModeAppendBinary Mode = "ab"
)

// IsRead reports whether the mode opens a stream for reading.
func (m Mode) IsRead() bool {
	return m == ModeRead || m == ModeReadBinary
}

// IsWrite reports whether the mode opens a stream for writing, including append.
func (m Mode) IsWrite() bool {
	return m == ModeWrite || m == ModeWriteBinary || m.IsAppend()
}

// IsAppend reports whether the mode appends to existing content.
func (m Mode) IsAppend() bool {
	return m == ModeAppend || m == ModeAppendBinary
}

// IsBinary reports whether content bytes are passed through without text semantics.
func (m Mode) IsBinary() bool {
	return strings.ContainsRune(string(m), 'b')
}

// Validate returns ErrUnsupportedMode for mode tokens outside the supported set.
func (m Mode) Validate() error {
	switch m {
	case ModeRead, ModeReadBinary, ModeWrite, ModeWriteBinary, ModeAppend, ModeAppendBinary:
		return nil
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrUnsupportedMode, string(m))
	}
}

// ParsedURI is the parsed, immutable form of a URI string.
type ParsedURI struct {
	Raw       string     // Original URI string
	Scheme    string     // Lower-cased scheme token; empty means local filesystem
	Authority string     // Bucket, host or topic name
	Path      string     // Resource path within the authority
	Opaque    string     // Authority and path joined, without scheme and query
	Query     url.Values // Query parameters
	Auth      string     // Userinfo portion, if present
}

// ParseURI parses a URI string into its components.
//
// A string without a "scheme://" prefix is treated as a local filesystem
// path, absolute or relative. The scheme is normalized to lower case.
// Authorities that do not parse as a standard host (for example SNS topic
// ARNs containing colons) are still accepted; the full remainder is then
// available through Opaque.
func ParseURI(raw string) (ParsedURI, error) {
	if raw == "" {
		return ParsedURI{}, fmt.Errorf("%w: empty URI", ErrInvalidURI)
	}

	idx := strings.Index(raw, "://")
	if idx < 0 {
		// Plain local path, no scheme.
		return ParsedURI{Raw: raw, Path: raw, Opaque: raw, Query: url.Values{}}, nil
	}

	scheme := strings.ToLower(raw[:idx])
	rest := raw[idx+3:]

	rawQuery := ""
	if qi := strings.Index(rest, "?"); qi >= 0 {
		rawQuery = rest[qi+1:]
		rest = rest[:qi]
	}

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return ParsedURI{}, fmt.Errorf("%w: bad query in %q: %v", ErrInvalidURI, raw, err)
	}

	// Userinfo only ever precedes the authority; an @ at or past the
	// first slash is path content, not a credential delimiter.
	auth := ""
	if ai := strings.Index(rest, "@"); ai >= 0 {
		if si := strings.Index(rest, "/"); si < 0 || ai < si {
			auth = rest[:ai]
			rest = rest[ai+1:]
		}
	}

	authority := rest
	path := ""
	if pi := strings.Index(rest, "/"); pi >= 0 {
		authority = rest[:pi]
		path = rest[pi:]
	}

	return ParsedURI{
		Raw:       raw,
		Scheme:    scheme,
		Authority: authority,
		Path:      path,
		Opaque:    rest,
		Query:     query,
		Auth:      auth,
	}, nil
}

// String returns the original URI string.
func (u ParsedURI) String() string {
	return u.Raw
}

// IsLocal reports whether the URI targets the local filesystem.
func (u ParsedURI) IsLocal() bool {
	return u.Scheme == "" || u.Scheme == "file"
}

// FilePath returns the local filesystem path for file URIs. A non-empty
// authority is joined onto the path, so file://data/corpus.txt and
// data/corpus.txt resolve identically.
func (u ParsedURI) FilePath() string {
	if u.Authority == "" {
		return u.Path
	}
	return filepath.Join(u.Authority, strings.TrimPrefix(u.Path, "/"))
}

// Key returns the path with its leading slash removed, the convention for
// object-store keys and similar backend identifiers.
func (u ParsedURI) Key() string {
	return strings.TrimPrefix(u.Path, "/")
}

// GetParam returns a query parameter value, or the empty string.
func (u ParsedURI) GetParam(name string) string {
	return u.Query.Get(name)
}

// GetParamBool returns a boolean query parameter value.
func (u ParsedURI) GetParamBool(name string) bool {
	value := u.Query.Get(name)
	return value == "true" || value == "1" || value == "yes"
}
