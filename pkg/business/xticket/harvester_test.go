package xticket

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHarvester_Harvest(t *testing.T) {
	ctx := context.Background()

	t.Run("TwoHopChainWithEncodedTicket", func(t *testing.T) {
		// hop1 -> hop2 -> Location: /register?ticket=AB%20C#frag
		mux := http.NewServeMux()
		var srv *httptest.Server
		mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, srv.URL+"/hop2", http.StatusFound)
		})
		mux.HandleFunc("/hop2", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Location", srv.URL+"/register?ticket=AB%20C#frag")
			w.WriteHeader(http.StatusFound)
		})
		mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
			t.Error("landing url must not be fetched once the ticket is extracted")
		})
		srv = httptest.NewServer(mux)
		defer srv.Close()

		h, err := NewHarvester(srv.Client())
		require.NoError(t, err)

		ticket, err := h.Harvest(ctx, srv.URL+"/login")
		require.NoError(t, err)
		assert.Equal(t, "AB C", ticket)
	})

	t.Run("RelativeLocationResolved", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Location", "/sso/register?ticket=rel-1")
			w.WriteHeader(http.StatusSeeOther)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		h, err := NewHarvester(srv.Client())
		require.NoError(t, err)

		ticket, err := h.Harvest(ctx, srv.URL+"/login")
		require.NoError(t, err)
		assert.Equal(t, "rel-1", ticket)
	})

	t.Run("ElevenHopChainFails", func(t *testing.T) {
		// 纯重定向链，永不落地：应在 10 跳内放弃
		var hits atomic.Int32
		var srv *httptest.Server
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			n := hits.Add(1)
			http.Redirect(w, r, fmt.Sprintf("%s/hop/%d", srv.URL, n), http.StatusFound)
		})
		srv = httptest.NewServer(mux)
		defer srv.Close()

		h, err := NewHarvester(srv.Client())
		require.NoError(t, err)

		ticket, err := h.Harvest(ctx, srv.URL+"/hop/0")
		assert.ErrorIs(t, err, ErrTooManyRedirects)
		assert.Empty(t, ticket)
		assert.LessOrEqual(t, hits.Load(), int32(10))
	})

	t.Run("RedirectWithoutLocationIsFatal", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusFound) // 无 Location 头
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		h, err := NewHarvester(srv.Client())
		require.NoError(t, err)

		_, err = h.Harvest(ctx, srv.URL+"/login")
		assert.ErrorIs(t, err, ErrMissingLocation)
	})

	t.Run("TerminalPageWithoutTicket", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		h, err := NewHarvester(srv.Client())
		require.NoError(t, err)

		_, err = h.Harvest(ctx, srv.URL+"/login")
		assert.ErrorIs(t, err, ErrNoTicket)
	})

	t.Run("LandingWithoutTicketParamNotExtracted", func(t *testing.T) {
		// path 命中落地模式但没有 ticket=：不提前返回，继续走链
		mux := http.NewServeMux()
		mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		h, err := NewHarvester(srv.Client())
		require.NoError(t, err)

		_, err = h.Harvest(ctx, srv.URL+"/register")
		assert.ErrorIs(t, err, ErrNoTicket)
	})

	t.Run("DoesNotMutateSharedClient", func(t *testing.T) {
		client := &http.Client{}
		_, err := NewHarvester(client)
		require.NoError(t, err)
		assert.Nil(t, client.CheckRedirect)
	})

	t.Run("NilClientRejected", func(t *testing.T) {
		_, err := NewHarvester(nil)
		assert.ErrorIs(t, err, ErrNilHTTPClient)
	})
}
