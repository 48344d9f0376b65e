package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"supmap-guidance/internal/geo"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pin = geo.Coordinate{Lat: 13.0418, Lon: 80.2337}

func TestLabel(t *testing.T) {
	tests := []struct {
		name  string
		place *Place
		err   error
		want  string
	}{
		{"distinct name", &Place{Name: "Pondy Bazaar", Street: "Thyagaraya Road", Locality: "Chennai"}, nil, "Pondy Bazaar"},
		{"name equals street", &Place{Name: "thyagaraya road", Street: "Thyagaraya Road", Locality: "Chennai"}, nil, "Thyagaraya Road"},
		{"street only", &Place{Street: "Thyagaraya Road"}, nil, "Thyagaraya Road"},
		{"locality only", &Place{Locality: "Chennai"}, nil, "Chennai"},
		{"nothing", &Place{}, nil, DroppedPin},
		{"no result", nil, nil, UnknownLocation},
		{"failure", nil, errors.New("timeout"), "Location (13.04, 80.23)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Label(tt.place, tt.err, pin))
		})
	}
}

func TestNominatimClient_Reverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "13.0418", r.URL.Query().Get("lat"))
		assert.Equal(t, "supmap-guidance-test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"name":"T Nagar","address":{"road":"Usman Road","city":"Chennai"}}`))
	}))
	defer srv.Close()

	client := NewNominatimClient(srv.URL, "supmap-guidance-test", time.Second)
	place, err := client.Reverse(context.Background(), pin)
	require.NoError(t, err)
	assert.Equal(t, &Place{Name: "T Nagar", Street: "Usman Road", Locality: "Chennai"}, place)

	label, err := Resolve(context.Background(), client, pin)
	require.NoError(t, err)
	assert.Equal(t, "T Nagar", label)
}

func TestNominatimClient_ReverseNothingFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	place, err := NewNominatimClient(srv.URL, "test", time.Second).Reverse(context.Background(), pin)
	require.NoError(t, err)
	assert.Nil(t, place)
}

func TestResolve_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	label, err := Resolve(context.Background(), NewNominatimClient(srv.URL, "test", time.Second), pin)
	assert.Error(t, err)
	assert.Equal(t, "Location (13.04, 80.23)", label)
}
