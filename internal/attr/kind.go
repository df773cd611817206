// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package attr

import (
	"fmt"
	"sort"
	"unicode"
)

// Kind identifies one category of contact metadata. The zero value is
// [KindUnknown] and never appears in the attribute table.
type Kind int

const (
	KindUnknown Kind = iota
	Avatar
	FirstName
	LastName
	AuthRing
	LastInteraction
	Ed25519PubKey
	Cu25519PubKey
	KeyRing
	SigRSAPubKey
	SigCu25519PubKey
	Country
	Birthday
	BirthMonth
	BirthYear
	Email
	Language
	PwdReminder
	DisableVersions
	ContactLinkVerification
	RichPreviews
	LastPSA
	RubbishTime
	StorageState
	Geolocation
	CameraUploadsFolder
	MyChatFilesFolder
	PushSettings
)

// Scope is the visibility class of an attribute. Its value is the prefix
// character the remote API uses for attribute names of that class.
type Scope byte

const (
	ScopeUnknown Scope = 0
	// ScopePublic attributes are readable by any user.
	ScopePublic Scope = '+'
	// ScopePrivate attributes are encrypted and readable by the owner only.
	ScopePrivate Scope = '*'
	// ScopeProtected attributes are readable by the owner only but stored
	// unencrypted.
	ScopeProtected Scope = '^'
	// ScopeUnprefixed covers the legacy profile fields (names, country...).
	ScopeUnprefixed Scope = '0'
)

// String returns the scope prefix character, or "unknown".
func (s Scope) String() string {
	if s == ScopeUnknown {
		return "unknown"
	}
	return string(rune(s))
}

type descriptor struct {
	name      string
	longName  string
	scope     Scope
	versioned bool
}

// descriptors is built once and never written to afterwards.
var descriptors = map[Kind]descriptor{
	Avatar:                  {"+a", "AVATAR", ScopePublic, false},
	FirstName:               {"firstname", "FIRSTNAME", ScopeUnprefixed, false},
	LastName:                {"lastname", "LASTNAME", ScopeUnprefixed, false},
	AuthRing:                {"*!authring", "AUTHRING", ScopePrivate, true},
	LastInteraction:         {"*!lstint", "LAST_INT", ScopePrivate, true},
	Ed25519PubKey:           {"+puEd255", "ED25519_PUBK", ScopePublic, true},
	Cu25519PubKey:           {"+puCu255", "CU25519_PUBK", ScopePublic, true},
	KeyRing:                 {"*keyring", "KEYRING", ScopePrivate, true},
	SigRSAPubKey:            {"+sigPubk", "SIG_RSA_PUBK", ScopePublic, true},
	SigCu25519PubKey:        {"+sigCu255", "SIG_CU255_PUBK", ScopePublic, true},
	Country:                 {"country", "COUNTRY", ScopeUnprefixed, false},
	Birthday:                {"birthday", "BIRTHDAY", ScopeUnprefixed, false},
	BirthMonth:              {"birthmonth", "BIRTHMONTH", ScopeUnprefixed, false},
	BirthYear:               {"birthyear", "BIRTHYEAR", ScopeUnprefixed, false},
	Email:                   {"email", "EMAIL", ScopeUnprefixed, false},
	Language:                {"^!lang", "LANGUAGE", ScopeProtected, false},
	PwdReminder:             {"^!prd", "PWD_REMINDER", ScopeProtected, false},
	DisableVersions:         {"^!dv", "DISABLE_VERSIONS", ScopeProtected, false},
	ContactLinkVerification: {"^!clv", "CONTACT_LINK_VERIFICATION", ScopeProtected, false},
	RichPreviews:            {"*!rp", "RICH_PREVIEWS", ScopePrivate, true},
	LastPSA:                 {"^!lastPsa", "LAST_PSA", ScopeProtected, false},
	RubbishTime:             {"^!rubbishtime", "RUBBISH_TIME", ScopeProtected, false},
	StorageState:            {"^!usl", "STORAGE_STATE", ScopeProtected, false},
	Geolocation:             {"*!geo", "GEOLOCATION", ScopePrivate, true},
	CameraUploadsFolder:     {"*!cam", "CAMERA_UPLOADS_FOLDER", ScopePrivate, true},
	MyChatFilesFolder:       {"*!cf", "MY_CHAT_FILES_FOLDER", ScopePrivate, true},
	PushSettings:            {"^!ps", "PUSH_SETTINGS", ScopeProtected, false},
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(descriptors))
	for k, d := range descriptors {
		m[d.name] = k
	}
	return m
}()

var allKinds = func() []Kind {
	ks := make([]Kind, 0, len(descriptors))
	for k := range descriptors {
		ks = append(ks, k)
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })
	return ks
}()

// Valid reports whether k is a member of the attribute table.
func (k Kind) Valid() bool {
	_, ok := descriptors[k]
	return ok
}

// String returns the API name of k, or "Kind(n)" for kinds outside the table.
func (k Kind) String() string {
	if d, ok := descriptors[k]; ok {
		return d.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Kinds returns every known kind in ascending order. The slice is a copy.
func Kinds() []Kind {
	return append([]Kind(nil), allKinds...)
}

// Name returns the API name of k (e.g. "+puEd255").
func Name(k Kind) (string, error) {
	d, ok := descriptors[k]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownAttrKind, int(k))
	}
	return d.name, nil
}

// DisplayName returns the long, human-oriented name of k (e.g. "ED25519_PUBK").
func DisplayName(k Kind) (string, error) {
	d, ok := descriptors[k]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownAttrKind, int(k))
	}
	return d.longName, nil
}

// NameToKind translates an API attribute name into a Kind.
//
// A name that could never be an attribute name (empty, or containing
// whitespace or control characters) yields [ErrInvalidAttrName]. A
// well-formed name the table does not know yields [ErrUnknownAttrName],
// which callers are expected to tolerate.
func NameToKind(name string) (Kind, error) {
	if !wellFormed(name) {
		return KindUnknown, fmt.Errorf("%w: %q", ErrInvalidAttrName, name)
	}

	k, ok := kindsByName[name]
	if !ok {
		return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownAttrName, name)
	}
	return k, nil
}

// NeedsVersioning reports whether updates to k must carry a version token.
func NeedsVersioning(k Kind) (bool, error) {
	d, ok := descriptors[k]
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrUnknownAttrKind, int(k))
	}
	return d.versioned, nil
}

// ScopeOf returns the scope of k.
func ScopeOf(k Kind) (Scope, error) {
	d, ok := descriptors[k]
	if !ok {
		return ScopeUnknown, fmt.Errorf("%w: %d", ErrUnknownAttrKind, int(k))
	}
	return d.scope, nil
}

func wellFormed(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == unicode.ReplacementChar {
			return false
		}
	}
	return true
}
