package lead_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/delhihouse/internal/domain/lead"
	"github.com/okian/delhihouse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func ts(t time.Time) *time.Time { return &t }

func TestComputeStats(t *testing.T) {
	now := time.Date(2026, 5, 20, 15, 0, 0, 0, time.UTC)

	Convey("Given leads from today, yesterday and ten days ago", t, func() {
		leads := []model.Lead{
			{ID: "a", Timestamp: ts(now.Add(-2 * time.Hour))},
			{ID: "b", Timestamp: ts(now.Add(-26 * time.Hour))},
			{ID: "c", Timestamp: ts(now.AddDate(0, 0, -10))},
		}

		Convey("Then the stats are 3 / 1 / 2", func() {
			st := lead.ComputeStats(leads, now)
			So(st.Total, ShouldEqual, 3)
			So(st.Last24h, ShouldEqual, 1)
			So(st.ThisWeek, ShouldEqual, 2)
		})
	})

	Convey("Given leads exactly at the cutoffs", t, func() {
		leads := []model.Lead{
			{ID: "day", Timestamp: ts(now.Add(-24 * time.Hour))},
			{ID: "week", Timestamp: ts(now.AddDate(0, 0, -7))},
		}

		Convey("Then they are excluded", func() {
			st := lead.ComputeStats(leads, now)
			So(st.Last24h, ShouldEqual, 0)
			So(st.ThisWeek, ShouldEqual, 1)
		})
	})

	Convey("Given leads without a timestamp", t, func() {
		leads := []model.Lead{{ID: "x"}, {ID: "y", Timestamp: ts(now)}}

		Convey("Then they only count towards the total", func() {
			st := lead.ComputeStats(leads, now)
			So(st.Total, ShouldEqual, 2)
			So(st.Last24h, ShouldEqual, 1)
			So(st.ThisWeek, ShouldEqual, 1)
		})
	})

	Convey("Given no leads", t, func() {
		So(lead.ComputeStats(nil, now), ShouldResemble, lead.Stats{})
	})
}

func TestSortAndFormat(t *testing.T) {
	base := time.Date(2026, 3, 5, 18, 30, 0, 0, time.UTC)

	Convey("SortNewestFirst puts the newest first and untimed last", t, func() {
		leads := []model.Lead{
			{ID: "old", Timestamp: ts(base.Add(-time.Hour))},
			{ID: "none"},
			{ID: "new", Timestamp: ts(base)},
		}
		lead.SortNewestFirst(leads)
		So(leads[0].ID, ShouldEqual, "new")
		So(leads[1].ID, ShouldEqual, "old")
		So(leads[2].ID, ShouldEqual, "none")
	})

	Convey("FormatDate uses the day-month-year layout", t, func() {
		So(lead.FormatDate(ts(base), time.UTC), ShouldEqual, "05 Mar 2026, 18:30")
		So(lead.FormatDate(nil, time.UTC), ShouldEqual, "N/A")
	})

	Convey("Find and Without address leads by id", t, func() {
		leads := []model.Lead{{ID: "a"}, {ID: "b"}}
		l, ok := lead.Find(leads, "b")
		So(ok, ShouldBeTrue)
		So(l.ID, ShouldEqual, "b")
		_, ok = lead.Find(leads, "zz")
		So(ok, ShouldBeFalse)
		So(lead.Without(leads, "a"), ShouldResemble, []model.Lead{{ID: "b"}})
		So(len(leads), ShouldEqual, 2)
	})
}

func TestValidateAndSanitize(t *testing.T) {
	valid := model.Submission{
		Name:    "Asha Patel",
		Email:   "asha@example.co.uk",
		Phone:   "+44 161 834 3333",
		Message: "Do you cater for parties of 20?",
		Token:   "tok",
	}

	Convey("Given a complete submission", t, func() {
		Convey("Then it validates", func() {
			So(lead.Validate(valid), ShouldBeNil)
		})
	})

	Convey("Given a submission with missing and malformed fields", t, func() {
		s := valid
		s.Name = "   "
		s.Email = "not-an-email"
		s.Phone = "call me"

		Convey("Then every failing field is reported", func() {
			err := lead.Validate(s)
			So(err, ShouldNotBeNil)
			So(errors.Is(err, lead.ErrInvalidSubmission), ShouldBeTrue)

			var ve *lead.ValidationError
			So(errors.As(err, &ve), ShouldBeTrue)
			So(ve.Fields, ShouldContainKey, "name")
			So(ve.Fields, ShouldContainKey, "email")
			So(ve.Fields, ShouldContainKey, "phone")
			So(ve.Fields, ShouldNotContainKey, "message")
		})
	})

	Convey("Given a submission whose name and message are only markup", t, func() {
		s := valid
		s.Name = "<img src=x>"
		s.Message = "<script>alert(1)</script>"

		Convey("Then Prepare reports them as missing", func() {
			out, err := lead.Prepare(s)
			So(out, ShouldResemble, model.Submission{})
			var ve *lead.ValidationError
			So(errors.As(err, &ve), ShouldBeTrue)
			So(ve.Fields["name"], ShouldResemble, []string{"is required"})
			So(ve.Fields["message"], ShouldResemble, []string{"is required"})
			So(ve.Fields, ShouldNotContainKey, "email")
		})

		Convey("Then a clean submission comes back sanitized", func() {
			s.Name = " <b>Asha</b> "
			s.Message = "<i>Table</i> for two"
			out, err := lead.Prepare(s)
			So(err, ShouldBeNil)
			So(out.Name, ShouldEqual, "Asha")
			So(out.Message, ShouldEqual, "Table for two")
		})
	})

	Convey("Given a submission carrying markup", t, func() {
		s := valid
		s.Name = "  <b>Asha</b> "
		s.Message = `Hello <script>alert(1)</script>fish & chips`

		Convey("Then markup is stripped and plain text kept", func() {
			out := lead.Sanitize(s)
			So(out.Name, ShouldEqual, "Asha")
			So(out.Message, ShouldNotContainSubstring, "<script>")
			So(out.Message, ShouldContainSubstring, "fish & chips")
		})
	})
}
