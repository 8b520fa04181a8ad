package common

import "testing"

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

func TestGenerateRandByteArray_Basic(t *testing.T) {
	const n = 24
	buf := GenerateRandByteArray(n)
	if len(buf) != n {
		t.Fatalf("expected length %d, got %d", n, len(buf))
	}
}

func TestGenerateRandByteArray_EntropyHint(t *testing.T) {
	const n = 32
	a := GenerateRandByteArray(n)
	b := GenerateRandByteArray(n)

	identical := true
	for i := range a {
		if a[i] != b[i] {
			identical = false
			break
		}
	}
	if identical {
		t.Logf("warning: two GenerateRandByteArray(%d) results are identical; extremely unlikely", n)
	}
}

func TestSessionKeys_ContainsAllKeys(t *testing.T) {
	want := map[string]bool{KeyAccessToken: true, KeyRefreshToken: true, KeyUser: true, KeyAvatarImage: true}
	if len(SessionKeys) != len(want) {
		t.Fatalf("expected %d session keys, got %d", len(want), len(SessionKeys))
	}
	for _, k := range SessionKeys {
		if !want[k] {
			t.Fatalf("unexpected session key %q", k)
		}
	}
}
