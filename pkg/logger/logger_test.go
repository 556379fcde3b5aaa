package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		So(Init(), ShouldBeNil)
		defer func() { So(Sync(), ShouldBeNil) }()

		Convey("Then Get returns a usable logger", func() {
			l := Get()
			So(l, ShouldNotBeNil)
			So(func() { l.Info(context.Background(), "test message", String("k", "v")) }, ShouldNotPanic)
		})

		Convey("And Named returns a child logger", func() {
			So(Named("test"), ShouldNotBeNil)
		})
	})
}

func TestLoggerInitWriter(t *testing.T) {
	Convey("Given the global logger redirected to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWriter(&buf), ShouldBeNil)
		defer func() { So(Init(), ShouldBeNil) }()

		Convey("Then global records land in the buffer", func() {
			Get().Info(context.Background(), "spin started", Int("requests", 10))
			So(buf.String(), ShouldContainSubstring, "msg=\"spin started\"")
			So(buf.String(), ShouldContainSubstring, "requests=10")
		})

		Convey("Then a nil writer is rejected", func() {
			So(InitWriter(nil), ShouldNotBeNil)
		})
	})
}

func TestLoggerNew(t *testing.T) {
	Convey("Given a standalone logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		l := New(&buf, slog.LevelInfo)
		ctx := context.Background()

		Convey("When logging at info with fields", func() {
			l.Info(ctx, "picked", String("item_id", "m-1"), Int("candidates", 3), Bool("fallback", true))

			Convey("Then the record carries the message, fields and source", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "msg=picked")
				So(out, ShouldContainSubstring, "item_id=m-1")
				So(out, ShouldContainSubstring, "candidates=3")
				So(out, ShouldContainSubstring, "fallback=true")
				So(out, ShouldContainSubstring, "source=")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When logging below the configured level", func() {
			l.Debug(ctx, "hidden")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})

		Convey("When logging through a named logger", func() {
			l.Named("engine").Warn(ctx, "slow", String("op", "pick"))

			Convey("Then fields are grouped under the name", func() {
				So(buf.String(), ShouldContainSubstring, "engine.op=pick")
			})
		})
	})
}

func TestParseLevel(t *testing.T) {
	Convey("Given level names", t, func() {
		cases := map[string]slog.Level{
			"debug":   slog.LevelDebug,
			"":        slog.LevelInfo,
			"INFO":    slog.LevelInfo,
			"warning": slog.LevelWarn,
			" error ": slog.LevelError,
		}
		for name, want := range cases {
			got, err := ParseLevel(name)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}

		Convey("Then unknown names are rejected", func() {
			_, err := ParseLevel("loud")
			So(err, ShouldNotBeNil)
			So(SetLevelString("loud"), ShouldNotBeNil)
		})
	})
}

func TestNop(t *testing.T) {
	Convey("Given a nop logger", t, func() {
		l := Nop()
		So(func() { l.Error(context.Background(), "ignored", Error(nil)) }, ShouldNotPanic)
	})
}
