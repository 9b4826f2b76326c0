package service

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/offsuit/analyzer/internal/adapters/repository"
	"github.com/offsuit/analyzer/internal/config"
	"github.com/offsuit/analyzer/internal/domain/leaderboard"
	"github.com/offsuit/analyzer/internal/domain/model"
)

func testConfig() *config.Config {
	cfg := config.New()
	cfg.MinRoundsRequired = 1
	cfg.RefreshIntervalMinutes = 0
	cfg.ResolverIntervalMinutes = 0
	return cfg
}

func startedService(t *testing.T) *Service {
	t.Helper()
	svc := New(testConfig(), WithStore(repository.NewMemoryStore()))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestAddRound(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startedService(t)

		Convey("When a manual round is added", func() {
			round, err := svc.AddRound(ctx, model.Round{
				BarName:   "The Deuce",
				RoundDate: "2026-08-24",
				Players: []model.PlayerScore{
					{Name: "  Alice   SMITH ", Points: 10},
					{Name: "Bob Jones", Points: 5},
					{Name: "railbird", Points: 0},
				},
			})

			Convey("Then it stores with a generated id and normalized names", func() {
				So(err, ShouldBeNil)
				So(round.RoundID, ShouldNotBeEmpty)
				So(round.Players, ShouldHaveLength, 2)
				So(round.Players[0].Name, ShouldEqual, "alice smith")
			})
		})

		Convey("A round with no bar name is rejected", func() {
			_, err := svc.AddRound(ctx, model.Round{
				Players: []model.PlayerScore{{Name: "alice smith", Points: 1}},
			})
			So(errors.Is(err, ErrInvalidRound), ShouldBeTrue)
		})

		Convey("A round with only zero scores is rejected", func() {
			_, err := svc.AddRound(ctx, model.Round{
				BarName: "The Deuce",
				Players: []model.PlayerScore{{Name: "alice smith", Points: 0}},
			})
			So(errors.Is(err, ErrInvalidRound), ShouldBeTrue)
		})
	})
}

func TestLeaderboards(t *testing.T) {
	Convey("Given a service with one stored round", t, func() {
		ctx := context.Background()
		svc := startedService(t)

		_, err := svc.AddRound(ctx, model.Round{
			BarName:   "The Deuce",
			RoundDate: "2026-08-24",
			Players: []model.PlayerScore{
				{Name: "alice smith", Points: 10},
				{Name: "bob jones", Points: 5},
				{Name: "carol davis", Points: 1},
			},
		})
		So(err, ShouldBeNil)

		Convey("When the percentile leaderboard is requested", func() {
			table, err := svc.Leaderboard(ctx, leaderboard.KindPercentile)

			Convey("Then the winner tops the table", func() {
				So(err, ShouldBeNil)
				So(table.Entries, ShouldHaveLength, 3)
				So(table.Entries[0].Player, ShouldEqual, "alice smith")
				So(table.Entries[0].Value, ShouldEqual, 100)
			})
		})

		Convey("An unknown kind is rejected", func() {
			_, err := svc.Leaderboard(ctx, leaderboard.Kind("nonsense"))
			So(errors.Is(err, ErrUnknownKind), ShouldBeTrue)
		})

		Convey("When a new round arrives after a cached read", func() {
			before, err := svc.Leaderboard(ctx, leaderboard.KindFirstPlace)
			So(err, ShouldBeNil)
			So(before.Entries[0].Player, ShouldEqual, "alice smith")

			_, err = svc.AddRound(ctx, model.Round{
				BarName:   "The Deuce",
				RoundDate: "2026-08-25",
				Players: []model.PlayerScore{
					{Name: "bob jones", Points: 9},
					{Name: "alice smith", Points: 2},
				},
			})
			So(err, ShouldBeNil)

			Convey("Then the cache is invalidated and results move", func() {
				after, err := svc.Leaderboard(ctx, leaderboard.KindFirstPlace)
				So(err, ShouldBeNil)
				So(after.Entries, ShouldHaveLength, 3)
				// Alice and bob split the wins over two rounds; carol only
				// played the first round and never won.
				So(after.Entries[0].Count, ShouldEqual, 1)
				So(after.Entries[1].Count, ShouldEqual, 1)
				So(after.Entries[2].Player, ShouldEqual, "carol davis")
				So(after.Entries[2].Count, ShouldEqual, 0)
				So(after.Entries[2].RoundsPlayed, ShouldEqual, 1)
			})
		})

		Convey("When skill ratings are requested", func() {
			ratings, err := svc.SkillRatings(ctx)

			Convey("Then every player gets a rating, winner first", func() {
				So(err, ShouldBeNil)
				So(ratings, ShouldHaveLength, 3)
				So(ratings[0].Player, ShouldEqual, "alice smith")
			})
		})
	})
}

func TestNameTools(t *testing.T) {
	Convey("Given a service with a clashing history", t, func() {
		ctx := context.Background()
		svc := startedService(t)

		_, err := svc.AddRound(ctx, model.Round{
			BarName:   "The Deuce",
			RoundDate: "2026-08-24",
			Players: []model.PlayerScore{
				{Name: "john smith", Points: 10},
				{Name: "john", Points: 5},
			},
		})
		So(err, ShouldBeNil)

		Convey("When a name scan runs", func() {
			warnings, err := svc.ScanNames(ctx)

			Convey("Then the single-token name is flagged", func() {
				So(err, ShouldBeNil)
				So(warnings, ShouldNotBeEmpty)
				So(warnings[0], ShouldContainSubstring, "john")
			})

			Convey("Then stored warnings match the scan", func() {
				stored, err := svc.Warnings(ctx)
				So(err, ShouldBeNil)
				So(stored, ShouldResemble, warnings)
			})
		})

		Convey("When name resolution runs", func() {
			res, err := svc.ResolveNames(ctx)

			Convey("Then a clash record is created for the bare first name", func() {
				So(err, ShouldBeNil)
				So(res.Detected, ShouldHaveLength, 1)
				So(res.Detected[0].Name, ShouldEqual, "john")
				So(res.Detected[0].Kind, ShouldEqual, model.ClashSingleToFirstLast)

				clashes, err := svc.NameClashes(ctx)
				So(err, ShouldBeNil)
				So(clashes, ShouldHaveLength, 1)
			})

			Convey("Then a second run detects nothing new", func() {
				res2, err := svc.ResolveNames(ctx)
				So(err, ShouldBeNil)
				So(res2.Detected, ShouldBeEmpty)
				So(res2.Retracted, ShouldBeEmpty)
			})
		})
	})
}

func TestGetStats(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startedService(t)

		_, err := svc.AddRound(ctx, model.Round{
			BarName:   "The Deuce",
			RoundDate: "2026-08-24",
			Players: []model.PlayerScore{
				{Name: "alice smith", Points: 3},
				{Name: "bob jones", Points: 1},
			},
		})
		So(err, ShouldBeNil)

		Convey("When stats are requested", func() {
			stats := svc.GetStats(ctx)

			Convey("Then counts reflect the stored data", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["totalRounds"], ShouldEqual, 1)
				So(stats["totalPlayers"], ShouldEqual, 2)
			})
		})
	})
}
