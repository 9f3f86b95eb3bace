package filetree

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeLocation() map[string]string {
	return map[string]string{
		LocationService:   "s3",
		LocationContainer: "bucket",
		LocationObject:    "abc123",
	}
}

func TestResolve(t *testing.T) {
	t.Run("CompletesPendingVersion", func(t *testing.T) {
		v := NewPendingVersion("user-1", "sig")

		err := v.Resolve("sig", completeLocation(), map[string]any{
			"size":          "1024",
			"content_type":  "text/plain",
			"date_modified": "2017-03-14T10:20:30Z",
			"md5":           "d41d8cd9",
		}, DefaultParsers())
		require.NoError(t, err)

		assert.Equal(t, StatusComplete, v.Status)
		assert.Equal(t, int64(1024), v.Size)
		assert.Equal(t, "text/plain", v.ContentType)
		require.NotNil(t, v.DateModified)
		assert.True(t, v.DateModified.Equal(time.Date(2017, 3, 14, 10, 20, 30, 0, time.UTC)))
		assert.Equal(t, "d41d8cd9", v.Extra["md5"])
		assert.Equal(t, "abc123", v.LocationHash())
	})

	t.Run("ParsesFreeFormDates", func(t *testing.T) {
		v := NewPendingVersion("user-1", "sig")

		err := v.Resolve("sig", completeLocation(), map[string]any{
			"date_modified": "Mon, 02 Jan 2006 15:04:05 MST",
		}, DefaultParsers())
		require.NoError(t, err)
		require.NotNil(t, v.DateModified)
		assert.Equal(t, 2006, v.DateModified.Year())
	})

	t.Run("NotPending", func(t *testing.T) {
		v := NewPendingVersion("user-1", "sig")
		require.NoError(t, v.Cancel("sig"))

		err := v.Resolve("sig", completeLocation(), nil, DefaultParsers())
		assert.True(t, IsCode(err, ErrVersionNotPending))
		assert.Equal(t, StatusFailed, v.Status)
	})

	t.Run("SignatureMismatchLeavesStatus", func(t *testing.T) {
		v := NewPendingVersion("user-1", "sig")

		err := v.Resolve("other", completeLocation(), nil, DefaultParsers())
		assert.True(t, IsCode(err, ErrPendingSignatureMismatch))
		assert.Equal(t, StatusPending, v.Status)
		assert.Nil(t, v.Location)
	})

	t.Run("MissingLocationKeyFailsValidation", func(t *testing.T) {
		v := NewPendingVersion("user-1", "sig")
		loc := completeLocation()
		delete(loc, LocationObject)

		err := v.Resolve("sig", loc, nil, DefaultParsers())
		assert.True(t, IsCode(err, ErrValidation))
		assert.Equal(t, StatusPending, v.Status)
		assert.Nil(t, v.Location)
	})

	t.Run("UnparseableDate", func(t *testing.T) {
		v := NewPendingVersion("user-1", "sig")

		err := v.Resolve("sig", completeLocation(), map[string]any{
			"date_modified": "not a date",
		}, DefaultParsers())
		assert.True(t, IsCode(err, ErrValidation))
		assert.Equal(t, StatusPending, v.Status)
	})

	t.Run("CustomParser", func(t *testing.T) {
		v := NewPendingVersion("user-1", "sig")
		parsers := Parsers{
			"tags": func(raw any) (any, error) {
				return []string{raw.(string)}, nil
			},
		}

		require.NoError(t, v.Resolve("sig", completeLocation(), map[string]any{"tags": "a"}, parsers))
		assert.Equal(t, []string{"a"}, v.Extra["tags"])
	})
}

func TestCancel(t *testing.T) {
	v := NewPendingVersion("user-1", "sig")

	err := v.Cancel("nope")
	assert.True(t, IsCode(err, ErrPendingSignatureMismatch))
	assert.Equal(t, StatusPending, v.Status)

	require.NoError(t, v.Cancel("sig"))
	assert.Equal(t, StatusFailed, v.Status)

	err = v.Cancel("sig")
	assert.True(t, IsCode(err, ErrVersionNotPending))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		version FileVersion
		wantErr bool
	}{
		{"pending without location", FileVersion{Status: StatusPending}, false},
		{"failed without location", FileVersion{Status: StatusFailed}, false},
		{"complete with location", FileVersion{Status: StatusComplete, Location: completeLocation()}, false},
		{"complete without object", FileVersion{Status: StatusComplete, Location: map[string]string{
			LocationService: "s3", LocationContainer: "bucket",
		}}, true},
		{"complete without location", FileVersion{Status: StatusComplete}, true},
		{"unknown status", FileVersion{Status: "uploading"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.version.Validate()
			if tt.wantErr {
				assert.True(t, IsCode(err, ErrValidation), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	v := NewPendingVersion("user-1", "sig")
	require.NoError(t, v.Resolve("sig", completeLocation(), map[string]any{
		"date_modified": "2020-01-01",
		"k":             "v",
	}, DefaultParsers()))

	c := v.Clone()
	c.Location[LocationObject] = "changed"
	c.Extra["k"] = "changed"
	*c.DateModified = time.Time{}

	assert.Equal(t, "abc123", v.Location[LocationObject])
	assert.Equal(t, "v", v.Extra["k"])
	assert.Equal(t, 2020, v.DateModified.Year())
}
