package domain

import "testing"

func TestRoomID_Symmetric(t *testing.T) {
	if got := RoomID("b", "a"); got != "a_b" {
		t.Errorf("RoomID(b, a) = %q, want a_b", got)
	}
	if RoomID("u1", "u2") != RoomID("u2", "u1") {
		t.Error("RoomID should not depend on argument order")
	}
	if got := RoomID("x", "x"); got != "x_x" {
		t.Errorf("RoomID(x, x) = %q, want x_x", got)
	}
}
