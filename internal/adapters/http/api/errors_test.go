package api_test

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/userboard/internal/adapters/http/api"
)

func TestErrors(t *testing.T) {
	Convey("Given API errors", t, func() {
		cause := errors.New("boom")

		Convey("NewKind should match its kind", func() {
			err := api.NewKind("api.op", api.ErrBadRequest)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request")
		})

		Convey("Wrap should keep the cause", func() {
			err := api.Wrap("api.op", cause)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: boom")
			So(api.Wrap("api.op", nil), ShouldBeNil)
		})

		Convey("WrapKind should match both kind and cause", func() {
			err := api.WrapKind("api.op", api.ErrUpstream, cause)
			So(errors.Is(err, api.ErrUpstream), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: upstream unavailable: boom")

			var apiErr *api.Error
			So(errors.As(err, &apiErr), ShouldBeTrue)
			So(apiErr.Op, ShouldEqual, "api.op")
			So(api.WrapKind("api.op", api.ErrUpstream, nil), ShouldBeNil)
		})
	})
}
