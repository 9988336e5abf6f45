package upstream_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/voyager-portal/internal/domain"
	"github.com/pkordes/voyager-portal/internal/upstream"
)

// newClient starts an httptest server running h and returns a Client rooted
// at its /api prefix. The server is closed when the test finishes.
func newClient(t *testing.T, h http.HandlerFunc) *upstream.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := upstream.New(srv.URL+"/api/", 2*time.Second, nil)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := upstream.New("/api", time.Second, nil)
	assert.Error(t, err)
}

// ---- GET /cart/{id} --------------------------------------------------------

func TestGetCartItem_SendsBearerAndDecodes(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/cart/c-1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"cartItem":{"_id":"c-1","trip_id":"t-9",
			"departure_date":"2026-11-01T00:00:00.000Z",
			"travelers":[{"firstName":"Ada","lastName":"Lovelace"},{"firstName":"Blaise","lastName":"Pascal"}]}}`)
	})

	item, err := c.GetCartItem(context.Background(), "tok", "c-1")

	require.NoError(t, err)
	assert.Equal(t, "c-1", item.ID)
	assert.Equal(t, "t-9", item.TripID)
	assert.Equal(t, 2026, item.DepartureDate.Year())
	assert.Equal(t, time.November, item.DepartureDate.Month())
	require.Len(t, item.Travelers, 2)
	assert.Equal(t, "Blaise", item.Travelers[1].FirstName)
}

func TestGetCartItem_DateOnlyDeparture(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"cartItem":{"trip_id":"t","departure_date":"2026-12-24","travelers":[]}}`)
	})

	item, err := c.GetCartItem(context.Background(), "tok", "c-2")

	require.NoError(t, err)
	assert.Equal(t, "c-2", item.ID, "falls back to the requested id")
	assert.Equal(t, 24, item.DepartureDate.Day())
}

func TestGetCartItem_404(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetCartItem(context.Background(), "tok", "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetCartItem_401(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.GetCartItem(context.Background(), "stale", "c-1")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestGetCartItem_500_StatusError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "boom")
	})

	_, err := c.GetCartItem(context.Background(), "tok", "c-1")

	var se *upstream.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "boom", se.Body)
}

// ---- PUT /cart/{id} --------------------------------------------------------

func TestUpdateCartItem_FullReplacementBody(t *testing.T) {
	var got map[string]any
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/cart/c-1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	err := c.UpdateCartItem(context.Background(), "tok", "c-1", domain.CartUpdate{
		DepartureDate: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		Travelers: []domain.Traveler{
			{FirstName: "Ada", LastName: "Lovelace"},
			{FirstName: "Blaise", LastName: "Pascal"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "2026-11-01", got["departure_date"])
	assert.Equal(t, []any{
		map[string]any{"firstName": "Ada", "lastName": "Lovelace"},
		map[string]any{"firstName": "Blaise", "lastName": "Pascal"},
	}, got["travelers"])
}

// ---- GET /trips/{id} -------------------------------------------------------

func TestGetTrip_Unauthenticated(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/trips/t-9", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"trip":{"_id":"t-9","name":"Okinawa","price":1000,"duration_days":5,
			"destination_from":"BKK","destination_to":"OKA","images":["a.jpg"]}}`)
	})

	trip, err := c.GetTrip(context.Background(), "t-9")

	require.NoError(t, err)
	assert.Equal(t, "Okinawa", trip.Name)
	assert.Equal(t, 1000.0, trip.Price)
	assert.Equal(t, 5, trip.DurationDays)
	assert.Equal(t, "a.jpg", trip.CoverImage())
}

func TestGetTrip_NullTrip_NotFound(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"trip":null}`)
	})

	_, err := c.GetTrip(context.Background(), "t-9")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetTrip_ContextCanceled(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetTrip(ctx, "t-9")

	assert.ErrorIs(t, err, context.Canceled)
}

// ---- PUT /profile/{id} -----------------------------------------------------

func TestUpdateProfile_SendsOnlySetFields(t *testing.T) {
	var got map[string]any
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/profile/u-1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	})
	phone := "0812345678"

	err := c.UpdateProfile(context.Background(), "tok", "u-1", domain.ProfilePatch{Phone: &phone})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"phone": "0812345678"}, got)
}

// ---- POST /auth/login ------------------------------------------------------

func TestLogin_Success(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])
		_, _ = io.WriteString(w, `{"success":true,"token":"new-tok","user":{"_id":"u-1","firstname":"Ada",
			"lastname":"Lovelace","email":"ada@example.com","dateOfBirth":"1990-12-10T00:00:00.000Z"}}`)
	})

	res, err := c.Login(context.Background(), "ada@example.com", "secret")

	require.NoError(t, err)
	assert.Equal(t, "new-tok", res.Token)
	assert.Equal(t, "u-1", res.User.ID)
	assert.Equal(t, "Ada", res.User.FirstName)
	require.NotNil(t, res.User.DateOfBirth)
	assert.Equal(t, 1990, res.User.DateOfBirth.Year())
}

func TestLogin_Rejected(t *testing.T) {
	tests := []struct {
		name string
		h    http.HandlerFunc
	}{
		{"401", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) }},
		{"success false", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"success":false}`)
		}},
		{"404 unknown email", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newClient(t, tc.h)

			_, err := c.Login(context.Background(), "ada@example.com", "wrong")

			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}
