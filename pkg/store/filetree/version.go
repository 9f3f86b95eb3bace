package filetree

import (
	"maps"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// Status is the upload state of a FileVersion.
type Status string

const (
	StatusPending  Status = "pending"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusComplete, StatusFailed:
		return true
	}
	return false
}

// Location keys every complete version must carry.
const (
	LocationService   = "service"
	LocationContainer = "container"
	LocationObject    = "object"
)

// RequiredLocationKeys lists the keys checked by Validate, in report order.
var RequiredLocationKeys = []string{LocationService, LocationContainer, LocationObject}

// Metadata keys mapped onto FileVersion fields.
const (
	MetaSize         = "size"
	MetaContentType  = "content_type"
	MetaDateModified = "date_modified"
)

// FileVersion is one upload attempt of a record.
//
// A version is created pending and moves exactly once to complete (Resolve)
// or failed (Cancel). After that it is never mutated.
type FileVersion struct {
	ID           string            `json:"id"`
	Creator      string            `json:"creator"`
	Status       Status            `json:"status"`
	Location     map[string]string `json:"location,omitempty"`
	Signature    string            `json:"signature"`
	Size         int64             `json:"size,omitempty"`
	ContentType  string            `json:"content_type,omitempty"`
	DateModified *time.Time        `json:"date_modified,omitempty"`

	// Extra holds metadata keys without a dedicated field, stored verbatim
	// (after parsing, when a parser is registered for the key).
	//
	// Persistent backends encode versions as JSON, so values read back from
	// them carry JSON types: numbers are float64, times are RFC 3339 strings,
	// nested objects are map[string]any. Only the memory store keeps the
	// original Go types. Use cast (ToInt64E, ToTimeE, ...) when reading.
	Extra map[string]any `json:"extra,omitempty"`

	Created time.Time `json:"created"`
}

// NewPendingVersion opens an upload attempt for creator under signature.
func NewPendingVersion(creator, signature string) *FileVersion {
	return &FileVersion{
		ID:        uuid.NewString(),
		Creator:   creator,
		Status:    StatusPending,
		Signature: signature,
		Created:   time.Now().UTC(),
	}
}

func (v *FileVersion) IsPending() bool  { return v.Status == StatusPending }
func (v *FileVersion) IsComplete() bool { return v.Status == StatusComplete }

// LocationHash identifies the stored bytes of the version: the object key of
// its location, or "" while no location is known.
func (v *FileVersion) LocationHash() string {
	if v.Location == nil {
		return ""
	}
	return v.Location[LocationObject]
}

// Validate checks the invariants enforced before a version is persisted.
func (v *FileVersion) Validate() error {
	if !v.Status.Valid() {
		return NewError(ErrValidation, "", "invalid version status %q", v.Status)
	}
	if v.Status == StatusComplete {
		for _, key := range RequiredLocationKeys {
			if _, ok := v.Location[key]; !ok {
				return NewError(ErrValidation, "", "complete version %s is missing location key %q", v.ID, key)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the version.
func (v *FileVersion) Clone() *FileVersion {
	if v == nil {
		return nil
	}
	c := *v
	c.Location = maps.Clone(v.Location)
	c.Extra = maps.Clone(v.Extra)
	if v.DateModified != nil {
		t := *v.DateModified
		c.DateModified = &t
	}
	return &c
}

func (v *FileVersion) checkPending(signature string) error {
	if v.Status != StatusPending {
		return NewError(ErrVersionNotPending, "", "version %s is %s", v.ID, v.Status)
	}
	if v.Signature != signature {
		return NewError(ErrPendingSignatureMismatch, "", "signature does not match pending version %s", v.ID)
	}
	return nil
}

// Resolve completes a pending upload.
//
// The completed value is built and validated on a copy; the receiver is only
// updated when every check passes, so a failed Resolve leaves the version
// untouched.
//
// Parameters:
//   - signature: must equal the signature the version was opened with
//   - location: blob descriptor, must carry service, container and object
//   - metadata: upload metadata; keys with a parser are parsed first
//   - parsers: per-key metadata parsers (see DefaultParsers)
func (v *FileVersion) Resolve(signature string, location map[string]string, metadata map[string]any, parsers Parsers) error {
	if err := v.checkPending(signature); err != nil {
		return err
	}

	next := v.Clone()
	next.Location = maps.Clone(location)
	if err := next.applyMetadata(metadata, parsers); err != nil {
		return err
	}
	next.Status = StatusComplete

	if err := next.Validate(); err != nil {
		return err
	}

	*v = *next
	return nil
}

// Cancel marks a pending upload as failed.
func (v *FileVersion) Cancel(signature string) error {
	if err := v.checkPending(signature); err != nil {
		return err
	}
	v.Status = StatusFailed
	return nil
}

func (v *FileVersion) applyMetadata(metadata map[string]any, parsers Parsers) error {
	for key, raw := range metadata {
		val := raw
		if parse, ok := parsers[key]; ok {
			parsed, err := parse(raw)
			if err != nil {
				return NewError(ErrValidation, "", "invalid metadata %q: %v", key, err)
			}
			val = parsed
		}

		switch key {
		case MetaSize:
			n, err := cast.ToInt64E(val)
			if err != nil {
				return NewError(ErrValidation, "", "invalid metadata %q: %v", key, err)
			}
			v.Size = n
		case MetaContentType:
			s, err := cast.ToStringE(val)
			if err != nil {
				return NewError(ErrValidation, "", "invalid metadata %q: %v", key, err)
			}
			v.ContentType = s
		case MetaDateModified:
			t, err := cast.ToTimeE(val)
			if err != nil {
				return NewError(ErrValidation, "", "invalid metadata %q: %v", key, err)
			}
			v.DateModified = &t
		default:
			if v.Extra == nil {
				v.Extra = make(map[string]any)
			}
			v.Extra[key] = val
		}
	}
	return nil
}

// Parser converts a raw metadata value into its structured form.
type Parser func(raw any) (any, error)

// Parsers maps metadata keys to their parser.
type Parsers map[string]Parser

// DefaultParsers returns the parsers applied when a service is not configured
// with its own: date_modified is parsed from free-form text.
func DefaultParsers() Parsers {
	return Parsers{
		MetaDateModified: ParseDateModified,
	}
}

// ParseDateModified parses a textual timestamp in any common layout.
// Values that are already times pass through.
func ParseDateModified(raw any) (any, error) {
	switch val := raw.(type) {
	case time.Time:
		return val.UTC(), nil
	case *time.Time:
		if val == nil {
			return nil, NewError(ErrValidation, "", "nil timestamp")
		}
		return val.UTC(), nil
	}

	s, err := cast.ToStringE(raw)
	if err != nil {
		return nil, err
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil, err
	}
	return t.UTC(), nil
}
