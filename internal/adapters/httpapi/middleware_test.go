package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
)

func TestDisplayedUserMiddleware(t *testing.T) {
	t.Parallel()

	var (
		got domain.UserID
		ok  bool
	)
	h := NewDisplayedUserMiddleware(3)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = NewSession().DisplayedUserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		header string
		want   domain.UserID
		status int
	}{
		{header: "", want: 3, status: http.StatusNoContent},
		{header: "17", want: 17, status: http.StatusNoContent},
		{header: "-1", status: http.StatusBadRequest},
		{header: "x", status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		got, ok = 0, false
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set(DisplayedUserHeader, tc.header)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != tc.status {
			t.Fatalf("header %q: status=%d, want %d", tc.header, rr.Code, tc.status)
		}
		if tc.status == http.StatusNoContent && (!ok || got != tc.want) {
			t.Fatalf("header %q: user=%d ok=%v", tc.header, got, ok)
		}
	}
}

func TestDisplayedUserMiddleware_NoDefault(t *testing.T) {
	t.Parallel()

	h := NewDisplayedUserMiddleware(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := DisplayedUserFromContext(r.Context()); ok {
			t.Errorf("unexpected displayed user")
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
