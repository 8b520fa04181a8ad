// Package common defines shared constants and sentinel errors used across
// client layers of toolshare. Callers should use errors.Is to match these
// values.
package common

import "errors"

// ErrCorruptValue is returned when a stored value cannot be decoded or
// decrypted.
var ErrCorruptValue = errors.New("corrupt stored value")
