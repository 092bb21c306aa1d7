package session

import "testing"

func TestValidKind(t *testing.T) {
	for _, k := range []Kind{KindVideo, KindAudio, KindChat} {
		if !ValidKind(k) {
			t.Fatalf("expected %q valid", k)
		}
	}
	if ValidKind("sms") {
		t.Fatalf("expected sms invalid")
	}
}
