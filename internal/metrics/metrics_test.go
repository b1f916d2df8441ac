package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/api/posts":                                   "/api/posts",
		"/api/posts/12":                                "/api/posts/{id}",
		"/api/posts/12/like":                           "/api/posts/{id}/like",
		"/api/posts/65f1a2b3c4d5e6f7a8b9c0d1/comments": "/api/posts/{id}/comments",
		"/api/posts/me/list":                           "/api/posts/me/list",
		"/posts/3/4":                                   "/posts/{id}/{id}",
	}
	for in, want := range cases {
		if got := NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestRecordAPICall_TransportFailureLabel(t *testing.T) {
	before := testutil.ToFloat64(APIRequestTotal.WithLabelValues("GET", "/api/posts", "error"))
	RecordAPICall("GET", "/api/posts", 0, 0.01)
	after := testutil.ToFloat64(APIRequestTotal.WithLabelValues("GET", "/api/posts", "error"))
	if after != before+1 {
		t.Errorf("error counter: got %v, want %v", after, before+1)
	}
}
