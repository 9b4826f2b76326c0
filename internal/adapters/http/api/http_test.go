package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/offsuit/analyzer/internal/adapters/http/api"
	"github.com/offsuit/analyzer/internal/adapters/repository"
	service "github.com/offsuit/analyzer/internal/app"
	"github.com/offsuit/analyzer/internal/config"
	"github.com/offsuit/analyzer/internal/domain/model"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.New()
	cfg.MinRoundsRequired = 1
	cfg.RefreshIntervalMinutes = 0
	cfg.ResolverIntervalMinutes = 0

	svc := service.New(cfg, service.WithStore(repository.NewMemoryStore()))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	_, err := svc.AddRound(context.Background(), model.Round{
		BarName:   "The Deuce",
		RoundDate: "2026-08-24",
		Players: []model.PlayerScore{
			{Name: "alice smith", Points: 10},
			{Name: "bob jones", Points: 5},
		},
	})
	if err != nil {
		t.Fatalf("seed round: %v", err)
	}

	srv := httptest.NewServer(api.NewServer(svc).Router())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url, body string, out any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given a running API server", t, func() {
		srv := newTestServer(t)

		Convey("GET /healthz reports ok", func() {
			var body map[string]string
			So(getJSON(t, srv.URL+"/healthz", &body), ShouldEqual, http.StatusOK)
			So(body["status"], ShouldEqual, "ok")
		})

		Convey("GET /stats reflects stored data", func() {
			var stats map[string]any
			So(getJSON(t, srv.URL+"/stats", &stats), ShouldEqual, http.StatusOK)
			So(stats["totalRounds"], ShouldEqual, 1)
			So(stats["totalPlayers"], ShouldEqual, 2)
		})

		Convey("GET /metrics serves the prometheus registry", func() {
			resp, err := http.Get(srv.URL + "/metrics")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}

func TestLeaderboardEndpoints(t *testing.T) {
	Convey("Given a running API server", t, func() {
		srv := newTestServer(t)

		Convey("GET /leaderboard/percentile returns the standings", func() {
			var body struct {
				Kind    string `json:"kind"`
				Entries []struct {
					Player  string  `json:"player"`
					Value   float64 `json:"value"`
					Display string  `json:"display"`
				} `json:"entries"`
			}
			So(getJSON(t, srv.URL+"/leaderboard/percentile", &body), ShouldEqual, http.StatusOK)
			So(body.Kind, ShouldEqual, "percentile")
			So(body.Entries, ShouldHaveLength, 2)
			So(body.Entries[0].Player, ShouldEqual, "alice smith")
			So(body.Entries[0].Display, ShouldEqual, "100.00%")
		})

		Convey("GET /leaderboard/skill returns ratings", func() {
			var entries []struct {
				Player       string  `json:"player"`
				Mu           float64 `json:"mu"`
				Conservative float64 `json:"conservative"`
			}
			So(getJSON(t, srv.URL+"/leaderboard/skill", &entries), ShouldEqual, http.StatusOK)
			So(entries, ShouldHaveLength, 2)
			So(entries[0].Player, ShouldEqual, "alice smith")
			So(entries[0].Mu, ShouldBeGreaterThan, 25)
		})

		Convey("GET /leaderboard/bogus is a 404", func() {
			So(getJSON(t, srv.URL+"/leaderboard/bogus", nil), ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestNameToolsEndpoints(t *testing.T) {
	Convey("Given a server with a flagged name in the data", t, func() {
		srv := newTestServer(t)

		// A single-token name triggers warnings and clash records.
		status := postJSON(t, srv.URL+"/admin/rounds", `{
			"bar_name": "The Deuce",
			"round_date": "2026-08-25",
			"players": [
				{"name": "alice smith", "points": 7},
				{"name": "rounder", "points": 3}
			]
		}`, nil)
		So(status, ShouldEqual, http.StatusCreated)

		Convey("POST /nametools/scan surfaces the warning", func() {
			var body struct {
				Warnings []string `json:"warnings"`
			}
			So(postJSON(t, srv.URL+"/nametools/scan", "", &body), ShouldEqual, http.StatusOK)
			So(body.Warnings, ShouldNotBeEmpty)
			So(body.Warnings[0], ShouldContainSubstring, "rounder")

			Convey("and GET /nametools/warnings returns the stored set", func() {
				var stored struct {
					Warnings []string `json:"warnings"`
				}
				So(getJSON(t, srv.URL+"/nametools/warnings", &stored), ShouldEqual, http.StatusOK)
				So(stored.Warnings, ShouldResemble, body.Warnings)
			})
		})

		Convey("POST /admin/resolve-names creates clash records", func() {
			var res struct {
				Detected []struct {
					Name string `json:"name"`
					Kind string `json:"kind"`
				} `json:"detected"`
			}
			So(postJSON(t, srv.URL+"/admin/resolve-names", "", &res), ShouldEqual, http.StatusOK)
			So(res.Detected, ShouldHaveLength, 1)
			So(res.Detected[0].Name, ShouldEqual, "rounder")
			So(res.Detected[0].Kind, ShouldEqual, "NO_LAST_NAME")

			Convey("and GET /nametools/clashes lists them", func() {
				var clashes []struct {
					Name string `json:"name"`
				}
				So(getJSON(t, srv.URL+"/nametools/clashes", &clashes), ShouldEqual, http.StatusOK)
				So(clashes, ShouldHaveLength, 1)
			})
		})
	})
}

func TestAdminRounds(t *testing.T) {
	Convey("Given a running API server", t, func() {
		srv := newTestServer(t)

		Convey("A valid round is created", func() {
			var body struct {
				RoundID string `json:"round_id"`
				Players int    `json:"players"`
			}
			status := postJSON(t, srv.URL+"/admin/rounds", `{
				"bar_name": "Side Pot",
				"round_date": "2026-08-26",
				"players": [{"name": "Carol Davis", "points": 4}]
			}`, &body)
			So(status, ShouldEqual, http.StatusCreated)
			So(body.RoundID, ShouldNotBeEmpty)
			So(body.Players, ShouldEqual, 1)
		})

		Convey("A round without a bar name is rejected", func() {
			status := postJSON(t, srv.URL+"/admin/rounds",
				`{"players": [{"name": "carol davis", "points": 4}]}`, nil)
			So(status, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Malformed JSON is rejected", func() {
			So(postJSON(t, srv.URL+"/admin/rounds", "{not json", nil),
				ShouldEqual, http.StatusBadRequest)
		})

		Convey("POST /admin/refresh succeeds with no bars configured", func() {
			So(postJSON(t, srv.URL+"/admin/refresh", "", nil), ShouldEqual, http.StatusOK)
		})
	})
}
