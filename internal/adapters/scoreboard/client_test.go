package scoreboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/offsuit/analyzer/internal/config"
)

const deuceBoard = `{
  "board": {"id": 42, "appearance": {"title": "The Deuce"}},
  "players": [{"name": "Alice Smith"}, {"name": "BOB  Jones"}, {"name": "Quiet Regular"}],
  "rounds": [
    {"id": 7, "date": "Wed, 26 Jun 2024 14:30:00 GMT", "scores": [10, 5, 0]},
    {"id": 8, "date": "Wed, 03 Jul 2024 09:00:00 GMT", "scores": [0, 7, 0]},
    {"id": 9, "date": "Wed, 10 Jul 2024 09:00:00 GMT", "scores": [0, 0, 0]}
  ]
}`

func TestFetchRounds(t *testing.T) {
	Convey("Given a scoreboard service with one healthy board", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/deuce-token/board/" {
				w.Write([]byte(deuceBoard))
				return
			}
			http.NotFound(w, r)
		}))
		defer srv.Close()

		client := New(WithBaseURL(srv.URL), WithRateLimit(1000, 10))

		Convey("When fetching rounds for a Monday-night bar", func() {
			rounds, err := client.FetchRounds(context.Background(), []config.BarConfig{
				{Token: "deuce-token", BarName: "The Deuce", PokerNight: 0},
			})

			Convey("Then rounds with scores convert, empty ones drop", func() {
				So(err, ShouldBeNil)
				So(rounds, ShouldHaveLength, 2)
			})

			Convey("Then bar identity comes from the board", func() {
				So(rounds[0].BarName, ShouldEqual, "The Deuce")
				So(rounds[0].BarID, ShouldEqual, "42")
				So(rounds[0].RoundID, ShouldEqual, "7")
			})

			Convey("Then the round date is the Monday before the entry", func() {
				So(rounds[0].RoundDate, ShouldEqual, "2024-06-24")
				So(rounds[1].RoundDate, ShouldEqual, "2024-07-01")
			})

			Convey("Then names are normalized and zero scores dropped", func() {
				So(rounds[0].Players, ShouldHaveLength, 2)
				So(rounds[0].Players[0].Name, ShouldEqual, "alice smith")
				So(rounds[0].Players[1].Name, ShouldEqual, "bob jones")
				So(rounds[1].Players, ShouldHaveLength, 1)
				So(rounds[1].Players[0].Name, ShouldEqual, "bob jones")
			})
		})

		Convey("When one of two bars fails", func() {
			rounds, err := client.FetchRounds(context.Background(), []config.BarConfig{
				{Token: "deuce-token", BarName: "The Deuce", PokerNight: 0},
				{Token: "missing-token", BarName: "Gone Bar", PokerNight: 3},
			})

			Convey("Then the healthy bar's rounds survive alongside the error", func() {
				So(err, ShouldNotBeNil)
				So(rounds, ShouldHaveLength, 2)
			})
		})
	})
}

func TestConvertBoard(t *testing.T) {
	Convey("Given a board with blank rows and surplus score columns", t, func() {
		payload := `{
		  "board": {"id": 7, "appearance": {"title": "Tap Room"}},
		  "players": [{"name": "Alice Smith"}, {"name": "Retired Reg"}],
		  "rounds": [
		    {"id": 1, "date": "Wed, 26 Jun 2024 14:30:00 GMT", "scores": [10, 0, 99]},
		    {"id": 2, "date": "Wed, 03 Jul 2024 09:00:00 GMT", "scores": [0, 0]}
		  ]
		}`
		b := &board{}
		So(json.Unmarshal([]byte(payload), b), ShouldBeNil)

		Convey("When the board converts", func() {
			rounds := convertBoard(b, 0)

			Convey("Then blank rows drop per round, not per board", func() {
				So(rounds, ShouldHaveLength, 1)
				So(rounds[0].Players, ShouldHaveLength, 1)
				So(rounds[0].Players[0].Name, ShouldEqual, "alice smith")
			})

			Convey("And scores beyond the roster are ignored", func() {
				So(rounds[0].Players[0].Points, ShouldEqual, 10)
			})
		})
	})
}

func TestPokerNightDate(t *testing.T) {
	Convey("Given board entry timestamps", t, func() {
		// 2024-06-26 is a Wednesday.
		const entry = "Wed, 26 Jun 2024 14:30:00 GMT"

		Convey("An entry after the league night maps back to it", func() {
			So(pokerNightDate(entry, 0), ShouldEqual, "2024-06-24") // Monday
			So(pokerNightDate(entry, 1), ShouldEqual, "2024-06-25") // Tuesday
		})

		Convey("An entry on the league night means last week's round", func() {
			So(pokerNightDate(entry, 2), ShouldEqual, "2024-06-19")
		})

		Convey("A league night later in the week wraps to the prior one", func() {
			So(pokerNightDate(entry, 6), ShouldEqual, "2024-06-23") // Sunday
		})

		Convey("An unparseable timestamp passes through untouched", func() {
			So(pokerNightDate("sometime last week", 0), ShouldEqual, "sometime last week")
		})
	})
}
