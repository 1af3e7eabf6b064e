// Package middleware 提供身份解析单元测试
package middleware

import (
	"strconv"
	"testing"
)

// ========== SessionUserID 测试 ==========

func TestSessionUserID_Deterministic(t *testing.T) {
	a := SessionUserID("browser-abc")
	b := SessionUserID("browser-abc")

	if a != b {
		t.Errorf("same session id must map to same user id: %q vs %q", a, b)
	}
}

func TestSessionUserID_DistinctSessions(t *testing.T) {
	if SessionUserID("browser-abc") == SessionUserID("browser-def") {
		t.Error("different session ids should map to different user ids")
	}
}

func TestSessionUserID_DefaultSession(t *testing.T) {
	if SessionUserID("") != SessionUserID("default-session") {
		t.Error("empty session id must use the default session")
	}
}

func TestSessionUserID_WithinRange(t *testing.T) {
	for _, s := range []string{"", "a", "browser-abc", "очень длинный идентификатор"} {
		id := SessionUserID(s)
		n, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			t.Fatalf("id %q is not numeric: %v", id, err)
		}
		if n >= sessionIDRange {
			t.Errorf("id %d out of range", n)
		}
	}
}
