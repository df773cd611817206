package contact

import (
	"testing"
	"time"

	"github.com/MKhiriev/go-contact-attrs/internal/attr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize_RoundTrip(t *testing.T) {
	u := New("hNdl0001", "bob@example.com")
	u.SetVisibility(VisibilityVisible, time.Unix(1_650_000_000, 0))
	u.SetTag(3)
	u.SetPubKeyRequested(true)

	binary := []byte{0x00, 0x01, 0xfe, 0xff}
	require.NoError(t, u.SetAttribute(attr.Ed25519PubKey, binary, "ed-1", attr.SourceRemote))
	require.NoError(t, u.SetAttribute(attr.LastName, []byte{}, "", attr.SourceLocal))
	require.NoError(t, u.SetAttribute(attr.Avatar, nil, "av-2", attr.SourceRemote))
	require.NoError(t, u.SetAttribute(attr.KeyRing, []byte("ring"), "kr-1", attr.SourceRemote))
	require.NoError(t, u.InvalidateAttribute(attr.KeyRing))
	_, err := u.MarkChanged(attr.LastName)
	require.NoError(t, err)

	data, err := u.Serialize()
	require.NoError(t, err)

	got, dropped, err := Unserialize(data)
	require.NoError(t, err)
	assert.Empty(t, dropped)

	assert.Equal(t, u.Handle(), got.Handle())
	assert.Equal(t, u.UID(), got.UID())
	assert.Equal(t, u.Email(), got.Email())
	assert.Equal(t, u.Visibility(), got.Visibility())
	assert.True(t, u.ContactTime().Equal(got.ContactTime()))
	assert.Equal(t, 3, got.Tag())
	assert.True(t, got.PubKeyRequested())
	assert.Equal(t, u.Changed(), got.Changed())

	v, err := got.Attribute(attr.Ed25519PubKey)
	require.NoError(t, err)
	assert.Equal(t, binary, v)

	v, err = got.Attribute(attr.LastName)
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.Empty(t, v)

	_, err = got.Attribute(attr.Avatar)
	assert.ErrorIs(t, err, attr.ErrAttrNotFound)
	assert.True(t, got.IsAttributeValid(attr.Avatar))

	_, err = got.Attribute(attr.KeyRing)
	assert.ErrorIs(t, err, attr.ErrAttrStale)

	again, err := got.Serialize()
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestUnserialize_DropsUnknownAttributes(t *testing.T) {
	data := []byte(`{"v":1,"handle":"h1","uid":"h1","visibility":1,
		"attrs":[{"name":"firstname","value":"QW5u","valid":true},
		         {"name":"^!fromTheFuture","value":"AA==","valid":true}]}`)

	u, dropped, err := Unserialize(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"^!fromTheFuture"}, dropped)

	v, err := u.Attribute(attr.FirstName)
	require.NoError(t, err)
	assert.Equal(t, []byte("Ann"), v)
}

func TestUnserialize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"not json", "{", ErrMalformedSnapshot},
		{"future version", `{"v":2,"handle":"h"}`, ErrUnsupportedSnapshot},
		{"missing version", `{"handle":"h"}`, ErrUnsupportedSnapshot},
		{"empty handle", `{"v":1}`, ErrMalformedSnapshot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, _, err := Unserialize([]byte(tt.data))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, u)
		})
	}
}

func TestSerialize_TemporaryRecord(t *testing.T) {
	u := New("h1", "")
	u.SetTemporary(true)
	assert.True(t, u.Temporary())

	_, err := u.Serialize()
	assert.ErrorIs(t, err, ErrTemporaryRecord)
}
