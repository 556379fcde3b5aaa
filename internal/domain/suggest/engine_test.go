package suggest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/mealspin/internal/domain/model"
	"github.com/okian/mealspin/internal/domain/sampling"
	"github.com/okian/mealspin/internal/domain/suggest"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	errHistoryDown = errors.New("history unavailable")
	errCatalogDown = errors.New("catalog unavailable")
	errPrefsDown   = errors.New("preferences unavailable")
	errWriteFailed = errors.New("write failed")
)

func TestPickRandomMeal(t *testing.T) {
	ctx := context.Background()

	Convey("Given a meal catalog", t, func() {
		catalog := newFakeCatalog(meal("m1", "thai"), meal("m2", "italian"), meal("m3", "mexican"))
		history := newFakeHistory()
		engine := newEngine(catalog, history, &fakePrefs{}, suggest.WithRand(sampling.NewLockedRand(3)))

		Convey("When some meals were picked recently", func() {
			history.recent[model.ItemTypeMeal] = []string{"m1", "m2"}

			Convey("Then only the remaining meal is suggested", func() {
				for i := 0; i < 25; i++ {
					item, err := engine.PickRandomMeal(ctx, "u1", 7, true, model.Filters{})
					So(err, ShouldBeNil)
					So(item.ID, ShouldEqual, "m3")
				}
			})
		})

		Convey("When every meal was picked recently", func() {
			history.recent[model.ItemTypeMeal] = []string{"m1", "m2", "m3"}

			Convey("Then recency relaxes instead of returning nothing", func() {
				seen := map[string]bool{}
				for i := 0; i < 60; i++ {
					item, err := engine.PickRandomMeal(ctx, "u1", 7, true, model.Filters{})
					So(err, ShouldBeNil)
					So(item, ShouldNotBeNil)
					seen[item.ID] = true
				}
				So(len(seen), ShouldEqual, 3)
			})
		})

		Convey("When the recency window is zero", func() {
			_, err := engine.PickRandomMeal(ctx, "u1", 0, true, model.Filters{})

			Convey("Then history is not consulted", func() {
				So(err, ShouldBeNil)
				So(history.recentCalls, ShouldEqual, 0)
			})
		})

		Convey("When filters are given", func() {
			item, err := engine.PickRandomMeal(ctx, "u1", 7, false, model.Filters{Cuisine: "italian"})

			Convey("Then they reach the catalog with the candidate limit", func() {
				So(err, ShouldBeNil)
				So(item.ID, ShouldEqual, "m2")
				calls := catalog.callsFor(model.ItemTypeMeal)
				So(calls, ShouldHaveLength, 1)
				So(calls[0].filters.Cuisine, ShouldEqual, "italian")
				So(calls[0].limit, ShouldEqual, suggest.DefaultCandidateLimit)
			})
		})

		Convey("When nothing matches the filters", func() {
			item, err := engine.PickRandomMeal(ctx, "u1", 7, true, model.Filters{Cuisine: "french"})

			Convey("Then the result is empty without an error", func() {
				So(err, ShouldBeNil)
				So(item, ShouldBeNil)
			})
		})

		Convey("When the history lookup fails", func() {
			history.recentErr = errHistoryDown
			item, err := engine.PickRandomMeal(ctx, "u1", 7, true, model.Filters{})

			Convey("Then the failure propagates", func() {
				So(item, ShouldBeNil)
				So(errors.Is(err, errHistoryDown), ShouldBeTrue)
			})
		})

		Convey("When the catalog query fails", func() {
			catalog.err = errCatalogDown
			_, err := engine.PickRandomMeal(ctx, "u1", 7, true, model.Filters{})
			So(errors.Is(err, errCatalogDown), ShouldBeTrue)
		})

		Convey("When the user id is blank", func() {
			_, err := engine.PickRandomMeal(ctx, " ", 7, true, model.Filters{})
			So(errors.Is(err, suggest.ErrInvalidUser), ShouldBeTrue)
		})
	})

	Convey("Given a custom candidate limit", t, func() {
		catalog := newFakeCatalog(meal("m1", ""), meal("m2", ""))
		engine := newEngine(catalog, newFakeHistory(), &fakePrefs{}, suggest.WithCandidateLimit(1))

		item, err := engine.PickRandomMeal(ctx, "u1", 7, true, model.Filters{})
		So(err, ShouldBeNil)
		So(item.ID, ShouldEqual, "m1")
		So(catalog.callsFor(model.ItemTypeMeal)[0].limit, ShouldEqual, 1)
	})
}

func TestPickRandomRestaurant(t *testing.T) {
	ctx := context.Background()

	Convey("Given restaurants on a Monday", t, func() {
		history := newFakeHistory()
		rng := suggest.WithRand(sampling.NewLockedRand(11))

		Convey("When the only non-recent restaurant is closed today", func() {
			catalog := newFakeCatalog(restaurant("open", nil), restaurant("closed", closedOnMonday()))
			history.recent[model.ItemTypeRestaurant] = []string{"open"}
			engine := newEngine(catalog, history, &fakePrefs{}, rng)

			Convey("Then recency wins over opening hours", func() {
				for i := 0; i < 20; i++ {
					item, err := engine.PickRandomRestaurant(ctx, "u1", 7, true, model.Filters{})
					So(err, ShouldBeNil)
					So(item.ID, ShouldEqual, "closed")
				}
			})
		})

		Convey("When eligible restaurants include an open one", func() {
			catalog := newFakeCatalog(restaurant("open", nil), restaurant("closed", closedOnMonday()), restaurant("recent", nil))
			history.recent[model.ItemTypeRestaurant] = []string{"recent"}
			engine := newEngine(catalog, history, &fakePrefs{}, rng)

			Convey("Then only the open, non-recent one is picked", func() {
				for i := 0; i < 20; i++ {
					item, err := engine.PickRandomRestaurant(ctx, "u1", 7, true, model.Filters{})
					So(err, ShouldBeNil)
					So(item.ID, ShouldEqual, "open")
				}
			})
		})

		Convey("When every restaurant is recent but one is open", func() {
			catalog := newFakeCatalog(restaurant("open", nil), restaurant("closed", closedOnMonday()))
			history.recent[model.ItemTypeRestaurant] = []string{"open", "closed"}
			engine := newEngine(catalog, history, &fakePrefs{}, rng)

			Convey("Then opening hours are still honored", func() {
				for i := 0; i < 20; i++ {
					item, err := engine.PickRandomRestaurant(ctx, "u1", 7, true, model.Filters{})
					So(err, ShouldBeNil)
					So(item.ID, ShouldEqual, "open")
				}
			})
		})

		Convey("When every restaurant is recent and closed today", func() {
			catalog := newFakeCatalog(restaurant("a", closedOnMonday()), restaurant("b", closedOnMonday()))
			history.recent[model.ItemTypeRestaurant] = []string{"a", "b"}
			engine := newEngine(catalog, history, &fakePrefs{}, rng)

			Convey("Then both constraints relax and something is still picked", func() {
				item, err := engine.PickRandomRestaurant(ctx, "u1", 7, true, model.Filters{})
				So(err, ShouldBeNil)
				So(item, ShouldNotBeNil)
				So(item.ID, ShouldBeIn, []string{"a", "b"})
			})
		})

		Convey("When the catalog has no restaurants", func() {
			engine := newEngine(newFakeCatalog(), history, &fakePrefs{}, rng)
			item, err := engine.PickRandomRestaurant(ctx, "u1", 7, true, model.Filters{})

			Convey("Then the result is empty", func() {
				So(err, ShouldBeNil)
				So(item, ShouldBeNil)
			})
		})

		Convey("When the configured time zone moves the date", func() {
			// 2024-01-01 23:00 UTC is already Tuesday in Tokyo.
			tokyo := time.FixedZone("JST", 9*60*60)
			catalog := newFakeCatalog(restaurant("closedTuesday", model.WeeklySchedule{time.Tuesday: {IsClosed: true}}), restaurant("other", closedOnMonday()))
			engine := newEngine(catalog, history, &fakePrefs{}, rng, suggest.WithClock(monday(23)), suggest.WithLocation(tokyo))

			item, err := engine.PickRandomRestaurant(ctx, "u1", 7, true, model.Filters{})
			So(err, ShouldBeNil)
			So(item.ID, ShouldEqual, "other")
		})
	})
}

func TestPickSuggestion(t *testing.T) {
	ctx := context.Background()

	Convey("Given a catalog with one meal and one restaurant", t, func() {
		catalog := newFakeCatalog(meal("m1", "thai"), restaurant("r1", nil))
		history := newFakeHistory()

		Convey("When the user prefers meals", func() {
			prefs := &fakePrefs{prefs: model.Preferences{PreferredSuggestionType: pref(model.PreferMeal)}}
			engine := newEngine(catalog, history, prefs, suggest.WithRand(&scriptedRand{values: []float64{0.99}}))
			s, err := engine.PickSuggestion(ctx, "u1", suggest.DefaultOptions())

			Convey("Then a meal is suggested without a coin flip", func() {
				So(err, ShouldBeNil)
				So(s.Type, ShouldEqual, model.ItemTypeMeal)
				So(s.Meal.ID, ShouldEqual, "m1")
				So(catalog.callsFor(model.ItemTypeRestaurant), ShouldBeEmpty)
			})
		})

		Convey("When the user prefers restaurants", func() {
			prefs := &fakePrefs{prefs: model.Preferences{PreferredSuggestionType: pref(model.PreferRestaurant)}}
			engine := newEngine(catalog, history, prefs, suggest.WithRand(&scriptedRand{values: []float64{0.01}}))
			s, err := engine.PickSuggestion(ctx, "u1", suggest.DefaultOptions())
			So(err, ShouldBeNil)
			So(s.Type, ShouldEqual, model.ItemTypeRestaurant)
			So(s.Restaurant.ID, ShouldEqual, "r1")
		})

		Convey("When there is no preference", func() {
			Convey("Then a draw below one half picks a meal", func() {
				engine := newEngine(catalog, history, &fakePrefs{}, suggest.WithRand(&scriptedRand{values: []float64{0.49}}))
				s, err := engine.PickSuggestion(ctx, "u1", suggest.DefaultOptions())
				So(err, ShouldBeNil)
				So(s.Type, ShouldEqual, model.ItemTypeMeal)
			})

			Convey("Then a draw of one half picks a restaurant", func() {
				engine := newEngine(catalog, history, &fakePrefs{}, suggest.WithRand(&scriptedRand{values: []float64{0.5}}))
				s, err := engine.PickSuggestion(ctx, "u1", suggest.DefaultOptions())
				So(err, ShouldBeNil)
				So(s.Type, ShouldEqual, model.ItemTypeRestaurant)
			})
		})

		Convey("When request filters are set", func() {
			prefs := &fakePrefs{prefs: model.Preferences{PreferredSuggestionType: pref(model.PreferMeal)}}
			engine := newEngine(catalog, history, prefs)
			opts := suggest.DefaultOptions()
			opts.MealFilters = model.Filters{Cuisine: "french"}
			s, err := engine.PickSuggestion(ctx, "u1", opts)

			Convey("Then an empty pick yields a nil suggestion", func() {
				So(err, ShouldBeNil)
				So(s, ShouldBeNil)
			})
		})

		Convey("When preferences cannot be loaded", func() {
			engine := newEngine(catalog, history, &fakePrefs{err: errPrefsDown})
			s, err := engine.PickSuggestion(ctx, "u1", suggest.DefaultOptions())
			So(s, ShouldBeNil)
			So(errors.Is(err, errPrefsDown), ShouldBeTrue)
		})
	})
}

func TestPickMultipleSuggestions(t *testing.T) {
	ctx := context.Background()

	Convey("Given a user asking for ten meals", t, func() {
		catalog := newFakeCatalog(meal("m1", "thai"), meal("m2", "thai"), restaurant("r1", nil))
		prefs := &fakePrefs{prefs: model.Preferences{MealSuggestionCount: intPtr(10)}}
		engine := newEngine(catalog, newFakeHistory(), prefs, suggest.WithRand(sampling.NewLockedRand(5)))

		out, err := engine.PickMultipleSuggestions(ctx, "u1", suggest.DefaultOptions())

		Convey("Then at most three meals and exactly one restaurant come back", func() {
			So(err, ShouldBeNil)
			So(out, ShouldHaveLength, 4)
			for _, s := range out[:3] {
				So(s.Type, ShouldEqual, model.ItemTypeMeal)
			}
			So(out[3].Type, ShouldEqual, model.ItemTypeRestaurant)
		})
	})

	Convey("Given a user with the legacy count key and no restaurants", t, func() {
		catalog := newFakeCatalog(meal("m1", "thai"))
		prefs := &fakePrefs{prefs: model.Preferences{SuggestionCount: intPtr(2)}}
		engine := newEngine(catalog, newFakeHistory(), prefs)

		out, err := engine.PickMultipleSuggestions(ctx, "u1", suggest.DefaultOptions())

		Convey("Then empty picks are omitted and duplicates allowed", func() {
			So(err, ShouldBeNil)
			So(out, ShouldHaveLength, 2)
			So(out[0].Meal.ID, ShouldEqual, "m1")
			So(out[1].Meal.ID, ShouldEqual, "m1")
		})
	})

	Convey("Given a catalog that fails", t, func() {
		catalog := newFakeCatalog()
		catalog.err = errCatalogDown
		engine := newEngine(catalog, newFakeHistory(), &fakePrefs{})

		out, err := engine.PickMultipleSuggestions(ctx, "u1", suggest.DefaultOptions())
		So(out, ShouldBeNil)
		So(errors.Is(err, errCatalogDown), ShouldBeTrue)
	})
}

func TestRecordSelection(t *testing.T) {
	ctx := context.Background()

	Convey("Given an engine with a fixed clock and id generator", t, func() {
		history := newFakeHistory()
		engine := newEngine(newFakeCatalog(), history, &fakePrefs{},
			suggest.WithIDGenerator(func() string { return "sel-1" }))

		Convey("When a pick is recorded", func() {
			rec, err := engine.RecordSelection(ctx, "u1", model.ItemTypeMeal, "m1")

			Convey("Then one record is appended", func() {
				So(err, ShouldBeNil)
				So(rec.ID, ShouldEqual, "sel-1")
				So(rec.SelectedAt, ShouldEqual, monday(15)())
				So(history.records, ShouldHaveLength, 1)
				So(history.records[0], ShouldResemble, rec)
			})

			Convey("Then recording the same pick again appends again", func() {
				_, err := engine.RecordSelection(ctx, "u1", model.ItemTypeMeal, "m1")
				So(err, ShouldBeNil)
				So(history.records, ShouldHaveLength, 2)
			})
		})

		Convey("When the write fails", func() {
			history.appendErr = errWriteFailed
			_, err := engine.RecordSelection(ctx, "u1", model.ItemTypeRestaurant, "r1")

			Convey("Then the failure surfaces", func() {
				So(errors.Is(err, errWriteFailed), ShouldBeTrue)
				So(history.records, ShouldBeEmpty)
			})
		})

		Convey("When input is invalid", func() {
			_, err := engine.RecordSelection(ctx, "u1", model.ItemType("snack"), "x")
			So(errors.Is(err, suggest.ErrInvalidItemType), ShouldBeTrue)
			So(errors.Is(err, model.ErrInvalidItemType), ShouldBeTrue)

			_, err = engine.RecordSelection(ctx, "u1", model.ItemTypeMeal, "")
			So(errors.Is(err, suggest.ErrInvalidItemID), ShouldBeTrue)

			_, err = engine.RecordSelection(ctx, "", model.ItemTypeMeal, "m1")
			So(errors.Is(err, suggest.ErrInvalidUser), ShouldBeTrue)
		})
	})
}
