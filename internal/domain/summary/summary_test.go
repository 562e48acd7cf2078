package summary_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/summary"
	. "github.com/smartystreets/goconvey/convey"
)

func roster(n int) []model.Subject {
	out := make([]model.Subject, n)
	for i := range out {
		out[i] = model.Subject{ID: fmt.Sprintf("R%03d", i+1), Name: fmt.Sprintf("Student_%d", i+1)}
	}
	return out
}

func TestTodaySummary(t *testing.T) {
	Convey("Given a roster of 30 subjects", t, func() {
		subjects := roster(30)
		at := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

		Convey("When five are recorded present and the rest are unrecorded", func() {
			var snap []model.Entry
			for i := 0; i < 5; i++ {
				snap = append(snap, model.Entry{SubjectID: subjects[i].ID, Status: model.StatusPresent, ObservedAt: at})
			}
			s := summary.TodaySummary(subjects, snap)

			Convey("Then absentees are implicit", func() {
				So(s, ShouldResemble, summary.Summary{Total: 30, Present: 5, Absent: 25})
			})
		})

		Convey("When some entries are explicitly absent", func() {
			snap := []model.Entry{
				{SubjectID: "R001", Status: model.StatusPresent},
				{SubjectID: "R002", Status: model.StatusAbsent},
			}
			s := summary.TodaySummary(subjects, snap)

			Convey("Then only Present counts", func() {
				So(s.Present, ShouldEqual, 1)
				So(s.Absent, ShouldEqual, 29)
			})
		})

		Convey("When the snapshot holds ids outside the roster", func() {
			snap := []model.Entry{
				{SubjectID: "R001", Status: model.StatusPresent},
				{SubjectID: "visitor", Status: model.StatusPresent},
			}
			s := summary.TodaySummary(subjects, snap)

			Convey("Then they are not counted", func() {
				So(s.Present, ShouldEqual, 1)
				So(s.Total, ShouldEqual, 30)
			})
		})

		Convey("When the snapshot is empty", func() {
			s := summary.TodaySummary(subjects, nil)
			So(s, ShouldResemble, summary.Summary{Total: 30, Present: 0, Absent: 30})
		})
	})
}

func TestJoin(t *testing.T) {
	Convey("Given a roster and a partial snapshot", t, func() {
		subjects := roster(3)
		at := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
		snap := []model.Entry{{SubjectID: "R002", Status: model.StatusPresent, ObservedAt: at}}

		Convey("When joined", func() {
			rows := summary.Join(subjects, snap)

			Convey("Then every roster member has a row in roster order", func() {
				So(rows, ShouldHaveLength, 3)
				So(rows[0].Subject.ID, ShouldEqual, "R001")
				So(rows[0].Status, ShouldEqual, model.StatusAbsent)
				So(rows[0].Recorded, ShouldBeFalse)
				So(rows[0].ObservedAt.IsZero(), ShouldBeTrue)

				So(rows[1].Status, ShouldEqual, model.StatusPresent)
				So(rows[1].Recorded, ShouldBeTrue)
				So(rows[1].ObservedAt, ShouldEqual, at)
			})
		})

		Convey("When built into a report", func() {
			r := summary.Build(subjects, snap)
			So(r.Summary.Present, ShouldEqual, 1)
			So(r.Rows, ShouldHaveLength, 3)
		})
	})
}
