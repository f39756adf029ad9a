package errors

import "testing"

func TestWrappersKeepSentinel(t *testing.T) {
	if !IsInvalidArgument(NewInvalidArgument("bad email")) {
		t.Fatal("NewInvalidArgument lost sentinel")
	}
	if !IsInternal(WrapInternal(ErrNotFound, "ctx")) {
		t.Fatal("WrapInternal lost sentinel")
	}
	if !IsUnavailable(WrapUnavailable(ErrNotFound, "redis")) {
		t.Fatal("WrapUnavailable lost sentinel")
	}
	if IsTokenExpired(ErrInvalidToken) {
		t.Fatal("expired and invalid token must stay distinct")
	}
}
