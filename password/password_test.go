package password

import "testing"

func TestBcryptRoundTrip(t *testing.T) {
	h := Bcrypt{Cost: 4} // minimum cost keeps the test fast
	digest, err := h.Hash("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if digest == "hunter2" {
		t.Fatal("digest must not equal the plaintext")
	}
	if !h.Verify("hunter2", digest) {
		t.Error("correct password rejected")
	}
	if h.Verify("wrong", digest) {
		t.Error("wrong password accepted")
	}
}

func TestBcryptVerifyGarbageDigest(t *testing.T) {
	h := Bcrypt{}
	if h.Verify("anything", "not-a-bcrypt-digest") {
		t.Error("garbage digest accepted")
	}
}
