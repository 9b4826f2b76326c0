package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/offsuit/analyzer/internal/domain/identity"
	"github.com/offsuit/analyzer/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeStore is an in-memory ClashStore for driving the resolver.
type fakeStore struct {
	records  map[string]model.NameClash
	fetchErr error
	writeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]model.NameClash)}
}

func (s *fakeStore) FetchAll(_ context.Context) ([]model.NameClash, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	out := make([]model.NameClash, 0, len(s.records))
	for _, c := range s.records {
		out = append(out, c)
	}
	return out, nil
}

func (s *fakeStore) UpsertMany(_ context.Context, clashes []model.NameClash) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	for _, c := range clashes {
		s.records[c.Name] = c
	}
	return nil
}

func (s *fakeStore) DeleteMany(_ context.Context, names []string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	for _, name := range names {
		delete(s.records, name)
	}
	return nil
}

// fakeNotifier records notifications and can be made to fail.
type fakeNotifier struct {
	subjects []string
	err      error
}

func (n *fakeNotifier) Notify(_ context.Context, subject, _ string, _ []byte) error {
	n.subjects = append(n.subjects, subject)
	return n.err
}

func roundWith(id string, players ...string) model.Round {
	r := model.Round{RoundID: id, BarName: "Dugout", RoundDate: "2026-06-01"}
	for i, name := range players {
		r.Players = append(r.Players, model.PlayerScore{Name: name, Points: 100 - i})
	}
	return r
}

func TestResolverDetection(t *testing.T) {
	Convey("Given a fresh store and a resolver", t, func() {
		store := newFakeStore()
		notifier := &fakeNotifier{}
		resolver := identity.New(store,
			identity.WithSimilarityThreshold(79.9),
			identity.WithNotifier(notifier),
		)
		ctx := context.Background()

		Convey("When a round has a single-token name and an unrelated full name", func() {
			result, err := resolver.Run(ctx, []model.Round{roundWith("r1", "john", "jane smith")})
			So(err, ShouldBeNil)

			Convey("Then john is flagged as missing a last name", func() {
				So(len(result.Detected), ShouldEqual, 1)
				So(result.Detected[0].Name, ShouldEqual, "john")
				So(result.Detected[0].Kind, ShouldEqual, model.ClashNoLastName)
			})

			Convey("And no similarity clash links john to jane smith", func() {
				_, hasJane := store.records["jane smith"]
				So(hasJane, ShouldBeFalse)
			})

			Convey("And a detection notification went out", func() {
				So(notifier.subjects, ShouldHaveLength, 1)
				So(notifier.subjects[0], ShouldContainSubstring, "Action Required")
			})
		})

		Convey("When a single-token name exactly prefixes a fuller name", func() {
			result, err := resolver.Run(ctx, []model.Round{roundWith("r1", "john", "john smith")})
			So(err, ShouldBeNil)

			Convey("Then it is classified as single-to-first-last with the fuller name", func() {
				So(len(result.Detected), ShouldEqual, 1)
				So(result.Detected[0].Kind, ShouldEqual, model.ClashSingleToFirstLast)
				So(result.Detected[0].Description, ShouldEqual, "john smith")
			})
		})

		Convey("When two full names are fuzzy-similar with matching last initials", func() {
			result, err := resolver.Run(ctx, []model.Round{roundWith("r1", "jon smith", "john smith")})
			So(err, ShouldBeNil)

			Convey("Then both are flagged against each other", func() {
				So(len(result.Detected), ShouldEqual, 2)
				for _, c := range result.Detected {
					So(c.Kind, ShouldEqual, model.ClashSimilarToOther)
				}
			})
		})

		Convey("When a name has several equally similar matches", func() {
			result, err := resolver.Run(ctx, []model.Round{
				roundWith("r1", "john smith", "johna smith", "johnn smith"),
			})
			So(err, ShouldBeNil)

			Convey("Then the reported match is the lexically first candidate", func() {
				found := false
				for _, c := range result.Detected {
					if c.Name == "john smith" {
						found = true
						So(c.Description, ShouldEqual, "johna smith")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When nothing is suspicious", func() {
			result, err := resolver.Run(ctx, []model.Round{roundWith("r1", "jane smith", "greg taylor")})
			So(err, ShouldBeNil)
			So(result.Detected, ShouldBeEmpty)
			So(notifier.subjects, ShouldBeEmpty)
		})
	})
}

func TestResolverThreshold(t *testing.T) {
	Convey("Given names that only clash at a permissive threshold", t, func() {
		rounds := []model.Round{roundWith("r1", "jon smith", "john smith")}

		Convey("A strict resolver applies its configured threshold as given", func() {
			resolver := identity.New(newFakeStore(), identity.WithSimilarityThreshold(100))
			result, err := resolver.Run(context.Background(), rounds)
			So(err, ShouldBeNil)
			So(result.Detected, ShouldBeEmpty)
		})

		Convey("A permissive resolver flags the pair", func() {
			resolver := identity.New(newFakeStore(), identity.WithSimilarityThreshold(79.9))
			result, err := resolver.Run(context.Background(), rounds)
			So(err, ShouldBeNil)
			So(len(result.Detected), ShouldEqual, 2)
		})
	})
}

func TestResolverRetraction(t *testing.T) {
	Convey("Given a name previously flagged as missing a last name", t, func() {
		store := newFakeStore()
		notifier := &fakeNotifier{}
		resolver := identity.New(store,
			identity.WithSimilarityThreshold(79.9),
			identity.WithNotifier(notifier),
		)
		ctx := context.Background()

		_, err := resolver.Run(ctx, []model.Round{roundWith("r1", "john", "greg taylor")})
		So(err, ShouldBeNil)
		So(store.records["john"].Kind, ShouldEqual, model.ClashNoLastName)

		Convey("When the data is fixed and the resolver re-runs", func() {
			result, err := resolver.Run(ctx, []model.Round{roundWith("r1", "john denver", "greg taylor")})
			So(err, ShouldBeNil)

			Convey("Then the stale record is retracted from the store", func() {
				_, still := store.records["john"]
				So(still, ShouldBeFalse)
				So(len(result.Retracted), ShouldEqual, 1)
				So(result.Retracted[0].Name, ShouldEqual, "john")
			})

			Convey("And a no-action-needed notification went out", func() {
				So(notifier.subjects, ShouldContain,
					"New Name Clash Fix Detected - No Action Required - AUTOMATED")
			})
		})

		Convey("When the data is unchanged", func() {
			result, err := resolver.Run(ctx, []model.Round{roundWith("r1", "john", "greg taylor")})
			So(err, ShouldBeNil)

			Convey("Then the record stays and is not re-detected", func() {
				So(result.Retracted, ShouldBeEmpty)
				So(result.Detected, ShouldBeEmpty)
				So(store.records["john"].Kind, ShouldEqual, model.ClashNoLastName)
			})
		})
	})
}

func TestResolverFailures(t *testing.T) {
	Convey("Given a resolver over a failing store", t, func() {
		store := newFakeStore()
		store.fetchErr = errors.New("connection reset")
		resolver := identity.New(store, identity.WithSimilarityThreshold(79.9))

		Convey("A fetch failure aborts the whole run", func() {
			_, err := resolver.Run(context.Background(), []model.Round{roundWith("r1", "john")})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a notifier that always fails", t, func() {
		store := newFakeStore()
		notifier := &fakeNotifier{err: errors.New("smtp down")}
		resolver := identity.New(store,
			identity.WithSimilarityThreshold(79.9),
			identity.WithNotifier(notifier),
		)

		Convey("Detection still persists and the run succeeds", func() {
			result, err := resolver.Run(context.Background(), []model.Round{roundWith("r1", "john")})
			So(err, ShouldBeNil)
			So(len(result.Detected), ShouldEqual, 1)
			_, ok := store.records["john"]
			So(ok, ShouldBeTrue)
		})
	})
}

func TestFormat(t *testing.T) {
	Convey("Given a mixed set of clashes", t, func() {
		clashes := []model.NameClash{
			{Name: "zed", Kind: model.ClashSimilarToOther, Description: "zed z"},
			{Name: "john", Kind: model.ClashNoLastName, Description: "add a last name"},
		}

		Convey("Formatting sorts by kind then name", func() {
			out := identity.Format(clashes)
			So(out, ShouldContainSubstring, "john")
			So(out, ShouldContainSubstring, "NO_LAST_NAME")
			So(out, ShouldStartWith, "john")
		})

		Convey("An empty set has a stable placeholder", func() {
			So(identity.Format(nil), ShouldEqual, "(no name clashes)")
		})
	})
}
