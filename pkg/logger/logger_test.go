package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get returns a logger", func() {
				So(Get(), ShouldNotBeNil)
				So(Named("ledger"), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with JSON output", func() {
			var buf bytes.Buffer
			So(Init(WithFormat("json"), WithWriter(&buf)), ShouldBeNil)
			Get().Info(context.Background(), "marked", String("subject_id", "R001"), Bool("replaced", false))

			Convey("Then records are JSON with the given fields", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "marked")
				So(rec["subject_id"], ShouldEqual, "R001")
				So(rec["replaced"], ShouldEqual, false)
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})
	})
}

func TestLoggerLevels(t *testing.T) {
	Convey("Given a text logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf)), ShouldBeNil)
		ctx := context.Background()

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("WARN"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Warn(ctx, "shown", Error(errors.New("boom")))

			Convey("Then lower levels are dropped", func() {
				out := buf.String()
				So(out, ShouldNotContainSubstring, "hidden")
				So(out, ShouldContainSubstring, "shown")
				So(out, ShouldContainSubstring, "boom")
			})
		})

		Convey("When an unknown level is set", func() {
			err := SetLevelString("verbose")
			So(err, ShouldNotBeNil)
		})

		Convey("When a named logger is used", func() {
			So(SetLevelString("debug"), ShouldBeNil)
			Named("voice").Debug(ctx, "heard", String("text", "mark r5 present"))

			Convey("Then fields are grouped under the name", func() {
				So(strings.Contains(buf.String(), "voice.text="), ShouldBeTrue)
			})
		})
	})
}

func TestNop(t *testing.T) {
	Convey("Given the no-op logger", t, func() {
		l := Nop()

		Convey("Then logging does not panic", func() {
			So(func() {
				l.Info(context.Background(), "ignored")
				l.Named("x").Error(context.Background(), "ignored")
			}, ShouldNotPanic)
		})
	})
}
