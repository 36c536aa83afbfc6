package hop

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		contentType   string
		contentLength int64
		want          Class
	}{
		{"application/vnd.android.package-archive", -1, ClassBinary},
		{"application/vnd.android.package-archive", 10, ClassBinary},
		{"application/octet-stream", -1, ClassBinary},
		{"application/zip", 50_000, ClassUnexpected},
		{"application/zip", 5_000_000, ClassBinary},
		{"application/zip", -1, ClassUnexpected},
		{"text/html", -1, ClassLanding},
		{"text/html; charset=utf-8", 9_000_000, ClassLanding},
		{"application/xhtml+xml", 9_000_000, ClassLanding},
		{"image/png", -1, ClassUnexpected},
		{"", -1, ClassUnexpected},
	}
	for _, tc := range tests {
		if got := Classify(tc.contentType, tc.contentLength); got != tc.want {
			t.Errorf("Classify(%q, %d) = %v, want %v", tc.contentType, tc.contentLength, got, tc.want)
		}
	}
}
