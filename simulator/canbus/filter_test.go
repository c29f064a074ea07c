package canbus

import (
	. "github.com/smartystreets/goconvey/convey"
	"testing"
)

func TestFilters(t *testing.T) {
	brake, _ := NewFrame(0x100, nil)
	wheel, _ := NewFrame(0x2A5, nil)

	Convey("Any matches everything", t, func() {
		So(Any()(brake), ShouldBeTrue)
		So(Any()(wheel), ShouldBeTrue)
	})

	Convey("ByIDs matches exact identifiers only", t, func() {
		f := ByIDs(0x100, 0x101)
		So(f(brake), ShouldBeTrue)
		So(f(wheel), ShouldBeFalse)
	})

	Convey("ByMask implements acceptance filtering", t, func() {
		f := ByMask(0x200, 0x700)
		So(f(wheel), ShouldBeTrue)
		So(f(brake), ShouldBeFalse)
	})

	Convey("Or accepts frames either side accepts", t, func() {
		f := Or(ByIDs(0x100), ByMask(0x200, 0x700))
		So(f(brake), ShouldBeTrue)
		So(f(wheel), ShouldBeTrue)

		Convey("and collapses nil sides", func() {
			So(Or(nil, ByIDs(0x100))(brake), ShouldBeTrue)
			So(Or(ByIDs(0x100), nil)(brake), ShouldBeTrue)
		})
	})
}
