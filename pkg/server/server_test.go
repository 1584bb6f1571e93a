package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SmitUplenchwar2687/rewind/pkg/clock"
)

func TestServerAcceptsEvent(t *testing.T) {
	srv := New("", clock.NewVirtualClock(time.Date(2019, 10, 1, 0, 0, 0, 0, time.UTC)), Options{Hub: NewHub(nil)})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body := []byte(`{"product_id":"1","category_id":"2","category_code":"","brand":"b","price":"1.00","user_id":"3","user_session":null}`)
	resp, err := http.Post(ts.URL+"/view", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	st, err := srv.Stats(t.Context())
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if st.Events["view"][StatusAccepted] != 1 {
		t.Fatalf("view accepted = %d, want 1", st.Events["view"][StatusAccepted])
	}
}
