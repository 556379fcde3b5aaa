package suggest_test

import (
	"context"
	"testing"

	"github.com/okian/mealspin/internal/domain/model"
	"github.com/okian/mealspin/internal/domain/suggest"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPickTimeBasedSuggestion(t *testing.T) {
	ctx := context.Background()

	quick := model.Item{ID: "oats", Type: model.ItemTypeMeal, DifficultyLevel: model.DifficultyEasy, PrepTimeMinutes: 10}
	hard := model.Item{ID: "wellington", Type: model.ItemTypeMeal, DifficultyLevel: model.DifficultyHard, PrepTimeMinutes: 180}
	medium := model.Item{ID: "risotto", Type: model.ItemTypeMeal, DifficultyLevel: model.DifficultyMedium, PrepTimeMinutes: 40}

	Convey("Given the morning bucket", t, func() {
		Convey("When only hard meals exist", func() {
			catalog := newFakeCatalog(hard, restaurant("r1", nil))
			engine := newEngine(catalog, newFakeHistory(), &fakePrefs{}, suggest.WithClock(monday(7)))
			s, err := engine.PickTimeBasedSuggestion(ctx, "u1")

			Convey("Then the easy and quick filter leaves nothing", func() {
				So(err, ShouldBeNil)
				So(s, ShouldBeNil)
				calls := catalog.callsFor(model.ItemTypeMeal)
				So(calls, ShouldHaveLength, 1)
				So(calls[0].filters.DifficultyLevel, ShouldEqual, model.DifficultyEasy)
				So(calls[0].filters.MaxPrepTime, ShouldEqual, 30)
				So(catalog.callsFor(model.ItemTypeRestaurant), ShouldBeEmpty)
			})
		})

		Convey("When a quick easy meal exists", func() {
			catalog := newFakeCatalog(hard, quick)
			engine := newEngine(catalog, newFakeHistory(), &fakePrefs{}, suggest.WithClock(monday(9)))
			s, err := engine.PickTimeBasedSuggestion(ctx, "u1")
			So(err, ShouldBeNil)
			So(s.Meal.ID, ShouldEqual, "oats")
		})
	})

	Convey("Given the lunch bucket", t, func() {
		catalog := newFakeCatalog(medium, hard, restaurant("r1", nil))

		Convey("When the draw is under seventy percent", func() {
			engine := newEngine(catalog, newFakeHistory(), &fakePrefs{},
				suggest.WithClock(monday(12)), suggest.WithRand(&scriptedRand{values: []float64{0.69}}))
			s, err := engine.PickTimeBasedSuggestion(ctx, "u1")
			So(err, ShouldBeNil)
			So(s.Type, ShouldEqual, model.ItemTypeRestaurant)
			So(catalog.callsFor(model.ItemTypeRestaurant)[0].filters.IsZero(), ShouldBeTrue)
		})

		Convey("When the draw is seventy percent or more", func() {
			engine := newEngine(catalog, newFakeHistory(), &fakePrefs{},
				suggest.WithClock(monday(13)), suggest.WithRand(&scriptedRand{values: []float64{0.7}}))
			s, err := engine.PickTimeBasedSuggestion(ctx, "u1")

			Convey("Then a meal under 45 minutes is picked", func() {
				So(err, ShouldBeNil)
				So(s.Meal.ID, ShouldEqual, "risotto")
				So(catalog.callsFor(model.ItemTypeMeal)[0].filters.MaxPrepTime, ShouldEqual, 45)
			})
		})
	})

	Convey("Given the dinner bucket", t, func() {
		catalog := newFakeCatalog(hard, restaurant("r1", nil))

		Convey("When the draw is under forty percent", func() {
			engine := newEngine(catalog, newFakeHistory(), &fakePrefs{},
				suggest.WithClock(monday(18)), suggest.WithRand(&scriptedRand{values: []float64{0.39}}))
			s, err := engine.PickTimeBasedSuggestion(ctx, "u1")
			So(err, ShouldBeNil)
			So(s.Type, ShouldEqual, model.ItemTypeRestaurant)
		})

		Convey("When the draw is forty percent or more", func() {
			engine := newEngine(catalog, newFakeHistory(), &fakePrefs{},
				suggest.WithClock(monday(20)), suggest.WithRand(&scriptedRand{values: []float64{0.4}}))
			s, err := engine.PickTimeBasedSuggestion(ctx, "u1")

			Convey("Then any meal qualifies", func() {
				So(err, ShouldBeNil)
				So(s.Meal.ID, ShouldEqual, "wellington")
				So(catalog.callsFor(model.ItemTypeMeal)[0].filters.IsZero(), ShouldBeTrue)
			})
		})
	})

	Convey("Given a late night request", t, func() {
		catalog := newFakeCatalog(hard, restaurant("r1", nil))
		prefs := &fakePrefs{prefs: model.Preferences{PreferredSuggestionType: pref(model.PreferRestaurant)}}
		engine := newEngine(catalog, newFakeHistory(), prefs, suggest.WithClock(monday(23)))

		Convey("Then the regular preference path is used", func() {
			s, err := engine.PickTimeBasedSuggestion(ctx, "u1")
			So(err, ShouldBeNil)
			So(s.Type, ShouldEqual, model.ItemTypeRestaurant)
		})
	})

	Convey("Given the gap between breakfast and lunch", t, func() {
		catalog := newFakeCatalog(hard, restaurant("r1", nil))
		engine := newEngine(catalog, newFakeHistory(), &fakePrefs{},
			suggest.WithClock(monday(10)), suggest.WithRand(&scriptedRand{values: []float64{0.1}}))

		Convey("Then the coin flip decides", func() {
			s, err := engine.PickTimeBasedSuggestion(ctx, "u1")
			So(err, ShouldBeNil)
			So(s.Meal.ID, ShouldEqual, "wellington")
		})
	})

	Convey("Given an engine whose configured recency window is zero", t, func() {
		a := model.Item{ID: "a", Type: model.ItemTypeMeal, DifficultyLevel: model.DifficultyEasy, PrepTimeMinutes: 10}
		b := model.Item{ID: "b", Type: model.ItemTypeMeal, DifficultyLevel: model.DifficultyEasy, PrepTimeMinutes: 15}
		history := newFakeHistory()
		history.recent[model.ItemTypeMeal] = []string{"a"}
		engine := newEngine(newFakeCatalog(a, b), history, &fakePrefs{},
			suggest.WithClock(monday(7)), suggest.WithDefaultExcludeDays(0),
			suggest.WithRand(&scriptedRand{values: []float64{0.1}}))

		Convey("When time based picks run repeatedly", func() {
			for i := 0; i < 20; i++ {
				s, err := engine.PickTimeBasedSuggestion(ctx, "u1")
				So(err, ShouldBeNil)
				So(s.Meal.ID, ShouldEqual, "b")
			}

			Convey("Then history is always read with the seven day window", func() {
				So(history.recentDays, ShouldNotBeEmpty)
				for _, days := range history.recentDays {
					So(days, ShouldEqual, suggest.DefaultExcludeRecentDays)
				}
			})
		})
	})
}
