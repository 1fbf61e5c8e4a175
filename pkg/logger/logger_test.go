package logger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerNamed(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	namedLogger := Named("test")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}

	namedLogger.Info(context.Background(), "test message")
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing into a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf)), ShouldBeNil)

		Convey("When logging an info message with fields", func() {
			Get().Info(context.Background(), "cycle finished", String("contest", "final"), Int("records", 137))

			Convey("Then the fields and caller are rendered", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "cycle finished")
				So(out, ShouldContainSubstring, "contest=final")
				So(out, ShouldContainSubstring, "records=137")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(context.Background(), "hidden")
			Get().Warn(context.Background(), "visible")

			Convey("Then info messages are dropped", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "visible")
			})
		})

		Convey("When an unknown level is given", func() {
			err := SetLevelString("verbose")

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerFile(t *testing.T) {
	Convey("Given a logger with a log file", t, func() {
		path := filepath.Join(t.TempDir(), "boardsync.log")
		var buf bytes.Buffer
		So(Init(WithWriter(&buf), WithFile(path)), ShouldBeNil)
		defer func() { _ = Close() }()

		Get().Error(context.Background(), "fetch failed", Int("offset", 200))
		So(Sync(), ShouldBeNil)

		Convey("Then the message lands in both sinks", func() {
			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, "offset=200")
			So(buf.String(), ShouldContainSubstring, "offset=200")
		})
	})

	Convey("Given a named logger taken before logging is re-initialised", t, func() {
		dir := t.TempDir()
		first := filepath.Join(dir, "first.log")
		second := filepath.Join(dir, "second.log")
		So(Init(WithWriter(&bytes.Buffer{}), WithFile(first)), ShouldBeNil)
		defer func() { _ = Close() }()
		named := Named("exporter")

		var buf bytes.Buffer
		So(Init(WithWriter(&buf), WithFile(second)), ShouldBeNil)
		named.Info(context.Background(), "cycle done", Int("records", 137))
		So(Sync(), ShouldBeNil)

		Convey("Then its output follows the new destination", func() {
			So(buf.String(), ShouldContainSubstring, "records=137")
			data, err := os.ReadFile(second)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, "records=137")
		})

		Convey("Then nothing more reaches the old file", func() {
			data, err := os.ReadFile(first)
			So(err, ShouldBeNil)
			So(string(data), ShouldNotContainSubstring, "records=137")
		})
	})

	Convey("Given an unwritable log file path", t, func() {
		err := Init(WithFile(filepath.Join(t.TempDir(), "missing", "dir", "x.log")))

		Convey("Then Init fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
