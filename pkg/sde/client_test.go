package sde

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL, Token: "sde-token"})
	require.NoError(t, err)
	return client
}

func TestGateData(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/v2/projects/", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Token sde-token", r.Header.Get("Authorization"))
			assert.Equal(t, "app-7", r.URL.Query().Get("application"))
			assert.Equal(t, "-created", r.URL.Query().Get("ordering"))
			fmt.Fprint(w, `{"results":[
				{"id":12,"name":"payments-api","risk_policy":3,"survey_complete":true},
				{"id":4,"name":"payments-api-old","risk_policy":3,"survey_complete":true}
			]}`)
		})
		mux.HandleFunc("/api/v2/risk-policies/3/", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id":3,"name":"Requirements Round 2"}`)
		})
		mux.HandleFunc("/api/v2/projects/12/countermeasures/", func(w http.ResponseWriter, r *http.Request) {
			page, _ := strconv.Atoi(r.URL.Query().Get("page"))
			if page > 2 {
				fmt.Fprint(w, `{"results":[]}`)
				return
			}
			fmt.Fprintf(w, `{"results":[
				{"id":"T%d","status":"DONE","verification_status":"pass"},
				{"id":"T%d0","status":"TODO"}
			]}`, page, page)
		})
		c := newTestClient(t, mux)

		project, policy, summary, err := c.GateData(context.Background(), "app-7")
		require.NoError(t, err)

		assert.Equal(t, 12, project.ID)
		assert.Equal(t, PolicyRound2, policy.Name)
		assert.Equal(t, CountermeasureSummary{Total: 4, Done: 2, Incomplete: 2}, summary)
	})

	t.Run("no project", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/v2/projects/", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"results":[]}`)
		})
		c := newTestClient(t, mux)

		_, _, _, err := c.GateData(context.Background(), "app-7")
		assert.ErrorIs(t, err, ErrNoProject)
	})

	t.Run("survey incomplete", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/v2/projects/", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"results":[{"id":12,"name":"payments-api","survey_complete":false}]}`)
		})
		c := newTestClient(t, mux)

		_, _, _, err := c.GateData(context.Background(), "app-7")
		assert.ErrorIs(t, err, ErrSurveyIncomplete)
		assert.Contains(t, err.Error(), "payments-api")
	})
}
