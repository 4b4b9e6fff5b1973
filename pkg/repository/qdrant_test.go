package repository_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/dashbot/pkg/model"
	"github.com/m-mizutani/dashbot/pkg/repository"
	"github.com/m-mizutani/gt"
)

func TestQdrantCount(t *testing.T) {
	ctx := context.Background()

	t.Run("missing collection is zero", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		store := repository.NewQdrant(srv.URL)
		count, err := store.Count(ctx, "restaurants_98105")
		gt.NoError(t, err)
		gt.V(t, count).Equal(0)
	})

	t.Run("existing collection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gt.V(t, r.URL.Path).Equal("/collections/restaurants_98105_ramen")
			gt.NoError(t, json.NewEncoder(w).Encode(map[string]any{
				"result": map[string]any{"points_count": 42},
			}))
		}))
		defer srv.Close()

		store := repository.NewQdrant(srv.URL)
		count, err := store.Count(ctx, "restaurants_98105_ramen")
		gt.NoError(t, err)
		gt.V(t, count).Equal(42)
	})

	t.Run("server error is not an empty collection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		store := repository.NewQdrant(srv.URL)
		_, err := store.Count(ctx, "restaurants_98105")
		gt.Error(t, err)
	})

	t.Run("unauthorized is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		store := repository.NewQdrant(srv.URL, repository.WithQdrantAPIKey("wrong"))
		_, err := store.Count(ctx, "restaurants_98105")
		gt.Error(t, err)
	})
}

func TestQdrantUpsert(t *testing.T) {
	ctx := context.Background()

	var got struct {
		Points []struct {
			ID      string         `json:"id"`
			Vector  []float32      `json:"vector"`
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.V(t, r.Method).Equal(http.MethodPut)
		gt.V(t, r.URL.Path).Equal("/collections/restaurants_98105/points")
		gt.V(t, r.URL.Query().Get("wait")).Equal("true")
		gt.V(t, r.Header.Get("api-key")).Equal("secret")
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		gt.NoError(t, json.NewEncoder(w).Encode(map[string]any{"status": "ok"}))
	}))
	defer srv.Close()

	store := repository.NewQdrant(srv.URL, repository.WithQdrantAPIKey("secret"))
	err := store.Upsert(ctx, "restaurants_98105",
		[]*model.CatalogEntry{entry("Kizuki")}, [][]float32{{0.1, 0.2}})
	gt.NoError(t, err)

	gt.V(t, len(got.Points)).Equal(1)
	gt.V(t, got.Points[0].Payload["name"]).Equal("Kizuki")
	gt.V(t, got.Points[0].Payload["zip_code"]).Equal("98105")
	gt.True(t, got.Points[0].ID != "")
}

func TestQdrantQuery(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.V(t, r.URL.Path).Equal("/collections/restaurants_98105/points/search")

		var req map[string]any
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gt.V(t, req["limit"]).Equal(float64(30))
		gt.V(t, req["with_payload"]).Equal(true)

		gt.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{"payload": map[string]any{
					"name": "Kizuki", "categories": "Japanese", "rating": "4.5",
					"address": "320 E Pine St", "zip_code": "98122",
				}},
				{"payload": map[string]any{"name": "Ooink", "rating": "N/A"}},
			},
		}))
	}))
	defer srv.Close()

	store := repository.NewQdrant(srv.URL)
	results, err := store.Query(ctx, "restaurants_98105", []float32{0.1, 0.2}, 30)
	gt.NoError(t, err)
	gt.V(t, len(results)).Equal(2)
	gt.V(t, results[0].Name).Equal("Kizuki")
	gt.V(t, results[0].Categories).Equal("Japanese")
	gt.V(t, results[1].Rating).Equal("N/A")
}

func TestQdrantDrop(t *testing.T) {
	ctx := context.Background()

	t.Run("missing collection is not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gt.V(t, r.Method).Equal(http.MethodDelete)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		store := repository.NewQdrant(srv.URL)
		gt.NoError(t, store.Drop(ctx, "restaurants_98105"))
	})
}
