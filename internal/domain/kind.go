package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// KindCode identifies the variant of a Kind.
type KindCode string

const (
	CodeOverview  KindCode = "overview"
	CodeLamp      KindCode = "lamp"
	CodePort      KindCode = "port"
	CodeLabel     KindCode = "label"
	CodeIPAddress KindCode = "ipaddress"
	CodeFree      KindCode = "free"
)

// freePrefix marks the persisted form of a free-form kind.
const freePrefix = "free_"

const maxFreeLabelLen = 64

// Kind is the checklist category of a shot: one of the fixed codes, or a
// free-form kind carrying an operator supplied label.
type Kind struct {
	code  KindCode
	label string
}

var (
	KindOverview  = Kind{code: CodeOverview}
	KindLamp      = Kind{code: CodeLamp}
	KindPort      = Kind{code: CodePort}
	KindLabel     = Kind{code: CodeLabel}
	KindIPAddress = Kind{code: CodeIPAddress}
)

// MandatoryKinds must all be present for a device to be checked.
var MandatoryKinds = []Kind{KindOverview, KindLamp, KindPort, KindLabel}

// FixedKinds lists every non-free kind in checklist order.
var FixedKinds = []Kind{KindOverview, KindLamp, KindPort, KindLabel, KindIPAddress}

// FreeKind builds a free-form kind. The label is trimmed and must be non-empty.
func FreeKind(label string) (Kind, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Kind{}, fmt.Errorf("%w: free kind label is empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(label) > maxFreeLabelLen {
		return Kind{}, fmt.Errorf("%w: free kind label longer than %d characters", ErrInvalidInput, maxFreeLabelLen)
	}
	return Kind{code: CodeFree, label: label}, nil
}

// ParseKind decodes the persisted form produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	if rest, ok := strings.CutPrefix(s, freePrefix); ok {
		return FreeKind(rest)
	}
	for _, k := range FixedKinds {
		if string(k.code) == s {
			return k, nil
		}
	}
	return Kind{}, fmt.Errorf("%w: unknown shot kind %q", ErrInvalidInput, s)
}

// KindFromInput builds a kind from operator input: a fixed code, or "free"
// together with label.
func KindFromInput(code, label string) (Kind, error) {
	if code == string(CodeFree) {
		return FreeKind(label)
	}
	return ParseKind(code)
}

func (k Kind) Code() KindCode { return k.code }

// Label returns the free-form label; empty for fixed kinds.
func (k Kind) Label() string { return k.label }

func (k Kind) IsFree() bool { return k.code == CodeFree }

func (k Kind) IsZero() bool { return k.code == "" }

// IsMandatory reports whether k is one of the four checklist kinds. Free kinds
// never are, whatever their label says.
func (k Kind) IsMandatory() bool {
	switch k.code {
	case CodeOverview, CodeLamp, CodePort, CodeLabel:
		return true
	default:
		return false
	}
}

// String returns the persisted form.
func (k Kind) String() string {
	if k.code == CodeFree {
		return freePrefix + k.label
	}
	return string(k.code)
}

// DisplayName is the operator facing name used in listings.
func (k Kind) DisplayName() string {
	if k.code == CodeFree {
		return k.label
	}
	return string(k.code)
}

// KindSet is the set of distinct kinds photographed for a device.
type KindSet map[Kind]struct{}

func NewKindSet(kinds ...Kind) KindSet {
	s := make(KindSet, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}

func (s KindSet) Add(k Kind) { s[k] = struct{}{} }

func (s KindSet) Has(k Kind) bool {
	_, ok := s[k]
	return ok
}
