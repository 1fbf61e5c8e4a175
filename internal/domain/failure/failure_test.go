package failure_test

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/okian/boardsync/internal/domain/failure"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFailureKinds(t *testing.T) {
	Convey("Given a fetch failure at an offset", t, func() {
		cause := errors.New("connection refused")
		err := failure.Fetch("source.fetch_page", 200, cause)

		Convey("Then it matches its kind and its cause", func() {
			So(errors.Is(err, failure.ErrFetch), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(errors.Is(err, failure.ErrParse), ShouldBeFalse)
			So(failure.KindLabel(err), ShouldEqual, "fetch")
		})

		Convey("Then the message names the op, kind and offset", func() {
			So(err.Error(), ShouldEqual, "source.fetch_page: fetch failure (offset 200): connection refused")
		})

		Convey("Then errors.As exposes the offset", func() {
			var fe *failure.Error
			So(errors.As(err, &fe), ShouldBeTrue)
			So(fe.Offset, ShouldEqual, 200)
		})
	})

	Convey("Given the other kinds", t, func() {
		So(failure.KindLabel(failure.Parse("op", 0, errors.New("bad json"))), ShouldEqual, "parse")
		So(failure.KindLabel(failure.Empty("op")), ShouldEqual, "empty")
		So(failure.KindLabel(failure.Write("op", fs.ErrPermission)), ShouldEqual, "write")
		So(failure.KindLabel(errors.New("other")), ShouldEqual, "unknown")
		So(failure.KindLabel(nil), ShouldEqual, "")

		Convey("Then errors without an offset omit it", func() {
			So(failure.Empty("app.export").Error(), ShouldEqual, "app.export: empty result")
			So(errors.Is(failure.Write("sink", fs.ErrPermission), fs.ErrPermission), ShouldBeTrue)
		})
	})
}
